package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const argon2idID = "argon2id"

// HasherParams are the argon2id cost parameters. Memory is in KiB.
type HasherParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHasherParams follows the OWASP argon2id baseline
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Memory:      19 * 1024,
		Iterations:  2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// PasswordHasher produces and verifies self describing password hashes.
// Hashes are argon2id PHC strings; bcrypt hashes are still accepted by
// Verify so older rows keep working.
type PasswordHasher struct {
	params HasherParams
}

// NewPasswordHasher creates a hasher, zero fields fall back to the defaults
func NewPasswordHasher(params ...HasherParams) *PasswordHasher {
	p := DefaultHasherParams()
	if len(params) > 0 {
		given := params[0]
		if given.Memory > 0 {
			p.Memory = given.Memory
		}
		if given.Iterations > 0 {
			p.Iterations = given.Iterations
		}
		if given.Parallelism > 0 {
			p.Parallelism = given.Parallelism
		}
		if given.SaltLength > 0 {
			p.SaltLength = given.SaltLength
		}
		if given.KeyLength > 0 {
			p.KeyLength = given.KeyLength
		}
	}
	return &PasswordHasher{params: p}
}

// Params returns the parameters new hashes are created with
func (h *PasswordHasher) Params() HasherParams {
	return h.params
}

// Hash derives a salted hash of password. Two calls with the same input
// return different strings. The empty password is hashed like any other.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", wrapAs(ErrHashing, err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idID,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. A mismatch is
// (false, nil); an encoded value that can not be parsed is ErrHashing.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, wrapAs(ErrHashing, err)
		}
	}

	params, salt, key, err := decodePHC(encoded)
	if err != nil {
		return false, wrapAs(ErrHashing, err)
	}

	other := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

// NeedsRehash reports whether encoded was produced with other parameters
// or another algorithm than the current configuration.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}

	params, salt, _, err := decodePHC(encoded)
	if err != nil {
		return true
	}

	return params.Memory != h.params.Memory ||
		params.Iterations != h.params.Iterations ||
		params.Parallelism != h.params.Parallelism ||
		params.KeyLength != h.params.KeyLength ||
		uint32(len(salt)) != h.params.SaltLength
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// decodePHC parses $argon2id$v=19$m=..,t=..,p=..$salt$hash
func decodePHC(encoded string) (HasherParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return HasherParams{}, nil, nil, fmt.Errorf("malformed password hash")
	}

	if parts[1] != argon2idID {
		return HasherParams{}, nil, nil, fmt.Errorf("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HasherParams{}, nil, nil, fmt.Errorf("malformed hash version: %w", err)
	}
	if version != argon2.Version {
		return HasherParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	params, err := parseCostParams(parts[3])
	if err != nil {
		return HasherParams{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return HasherParams{}, nil, nil, fmt.Errorf("malformed hash salt")
	}

	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return HasherParams{}, nil, nil, fmt.Errorf("malformed hash key")
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}

func parseCostParams(s string) (HasherParams, error) {
	var params HasherParams
	seen := map[string]bool{}

	for _, kv := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return HasherParams{}, fmt.Errorf("malformed hash parameter %q", kv)
		}

		if seen[name] {
			return HasherParams{}, fmt.Errorf("repeated hash parameter %q", name)
		}

		switch name {
		case "m":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil || n == 0 {
				return HasherParams{}, fmt.Errorf("malformed memory parameter")
			}
			params.Memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil || n == 0 {
				return HasherParams{}, fmt.Errorf("malformed iterations parameter")
			}
			params.Iterations = uint32(n)
		case "p":
			n, err := strconv.ParseUint(value, 10, 8)
			if err != nil || n == 0 {
				return HasherParams{}, fmt.Errorf("malformed parallelism parameter")
			}
			params.Parallelism = uint8(n)
		default:
			return HasherParams{}, fmt.Errorf("unknown hash parameter %q", name)
		}
		seen[name] = true
	}

	if !seen["m"] || !seen["t"] || !seen["p"] {
		return HasherParams{}, fmt.Errorf("incomplete hash parameters")
	}

	return params, nil
}
