package auth

import (
	"strings"
	"time"
)

const (
	// HeaderAuthorization carries the bearer credential
	HeaderAuthorization = "Authorization"
	// AuthSchemeBearer is the only accepted scheme
	AuthSchemeBearer = "Bearer"
)

// ExtractIdentity validates the bearer credential in headers against policy
// at instant now. Every failure is reported as ErrUnauthorized so callers
// can not tell a malformed token from an expired one.
func ExtractIdentity(headers Headers, policy Policy, now time.Time) (Identity, error) {
	return NewIdentityExtractor(policy).
		WithClock(func() time.Time { return now }).
		FromHeaders(headers)
}

// IdentityExtractor is the request boundary of the session core. It holds
// the codec, validator and clock so the per-request path does no setup.
type IdentityExtractor struct {
	codec     *TokenCodec
	validator *SessionValidator
	clock     Clock
	logger    Logger
}

// NewIdentityExtractor creates an extractor for policy using the system clock
func NewIdentityExtractor(policy Policy) *IdentityExtractor {
	return &IdentityExtractor{
		codec:     NewTokenCodec(policy),
		validator: NewSessionValidator(policy),
		clock:     SystemClock,
		logger:    defLogger{},
	}
}

// WithClock overrides the time source
func (e *IdentityExtractor) WithClock(clock Clock) *IdentityExtractor {
	if clock != nil {
		e.clock = clock
	}
	return e
}

// WithLogger sets the logger used to record rejection reasons
func (e *IdentityExtractor) WithLogger(logger Logger) *IdentityExtractor {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// FromHeaders reads the Authorization header and validates it
func (e *IdentityExtractor) FromHeaders(headers Headers) (Identity, error) {
	if headers == nil {
		e.logger.Debug("identity extraction rejected", "reason", "missing headers")
		return Identity{}, ErrUnauthorized
	}
	return e.FromAuthorization(headers.Get(HeaderAuthorization))
}

// FromAuthorization validates a raw Authorization header value
func (e *IdentityExtractor) FromAuthorization(value string) (Identity, error) {
	raw, ok := ParseBearer(value)
	if !ok {
		e.logger.Debug("identity extraction rejected", "reason", "missing or malformed bearer header")
		return Identity{}, ErrUnauthorized
	}

	claims, err := e.codec.Decode(raw)
	if err != nil {
		e.logger.Debug("identity extraction rejected", "reason", "invalid token", "error", err)
		return Identity{}, ErrUnauthorized
	}

	identity, err := e.validator.Validate(claims, e.clock())
	if err != nil {
		e.logger.Debug("identity extraction rejected", "reason", "expired session", "user_id", claims.UserID)
		return Identity{}, ErrUnauthorized
	}

	return identity, nil
}

// ParseBearer returns the token of a "Bearer <token>" header value.
// The scheme is matched case-insensitively.
func ParseBearer(value string) (string, bool) {
	value = strings.TrimSpace(value)
	scheme, token, found := strings.Cut(value, " ")
	if !found || !strings.EqualFold(scheme, AuthSchemeBearer) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}
