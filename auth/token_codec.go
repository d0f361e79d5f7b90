package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec turns session claims into signed compact tokens and back.
// It holds only the immutable policy and is safe for concurrent use.
type TokenCodec struct {
	policy Policy
	method jwt.SigningMethod
	parser *jwt.Parser
}

// NewTokenCodec creates a codec bound to policy
func NewTokenCodec(policy Policy) *TokenCodec {
	return &TokenCodec{
		policy: policy,
		method: jwt.GetSigningMethod(policy.Algorithm()),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{policy.Algorithm()}),
			// validity is decided by SessionValidator from iat and the policy
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
	}
}

// Encode signs claims with the policy key and algorithm
func (c *TokenCodec) Encode(claims SessionClaims) (string, error) {
	if c.method == nil || c.policy.IsZero() {
		return "", ErrEncoding
	}

	if !claims.Complete() {
		return "", wrapAs(ErrEncoding, fmt.Errorf("incomplete session claims"))
	}

	token := jwt.NewWithClaims(c.method, claims)

	signed, err := token.SignedString(c.policy.key())
	if err != nil {
		return "", wrapAs(ErrEncoding, err)
	}

	return signed, nil
}

// Decode verifies the token signature and only then returns its claims
func (c *TokenCodec) Decode(raw string) (SessionClaims, error) {
	if raw == "" || c.policy.IsZero() {
		return SessionClaims{}, ErrInvalidToken
	}

	wire := &wireClaims{}
	token, err := c.parser.ParseWithClaims(raw, wire, c.keyFunc)
	if err != nil {
		return SessionClaims{}, wrapAs(ErrInvalidToken, err)
	}

	if token == nil || !token.Valid {
		return SessionClaims{}, ErrInvalidToken
	}

	claims, ok := wire.sessionClaims()
	if !ok {
		return SessionClaims{}, wrapAs(ErrInvalidToken, fmt.Errorf("incomplete session claims"))
	}

	return claims, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (any, error) {
	if t.Method == nil || t.Method.Alg() != c.policy.Algorithm() {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return c.policy.key(), nil
}
