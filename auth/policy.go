package auth

import (
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// AlgorithmHS256 is the only signing algorithm sessions are minted or accepted with
const AlgorithmHS256 = "HS256"

// DefaultSessionDurationMinutes is used by configuration loaders when unset
const DefaultSessionDurationMinutes = 60

// MaxSessionDurationMinutes is the longest session whose length still fits
// a time.Duration
const MaxSessionDurationMinutes = math.MaxInt64 / int64(time.Minute)

// Policy is the process wide session configuration. It is built once at
// startup and never changes; the same key and algorithm mint and verify.
type Policy struct {
	signingKey      []byte
	algorithm       string
	durationMinutes int64
}

// PolicyOption customizes NewPolicy
type PolicyOption func(*Policy)

// WithAlgorithm overrides the signing algorithm identifier.
// Only HS256 passes validation.
func WithAlgorithm(alg string) PolicyOption {
	return func(p *Policy) {
		p.algorithm = alg
	}
}

// NewPolicy validates and freezes the session policy. The key is copied so
// later changes to the caller's slice have no effect.
func NewPolicy(signingKey []byte, sessionDurationMinutes int64, opts ...PolicyOption) (Policy, error) {
	p := Policy{
		algorithm:       AlgorithmHS256,
		durationMinutes: sessionDurationMinutes,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}

	if len(signingKey) == 0 {
		return Policy{}, policyError("signing key is required", map[string]any{})
	}

	if sessionDurationMinutes <= 0 {
		return Policy{}, policyError("session duration must be a positive number of minutes", map[string]any{
			"session_duration_minutes": sessionDurationMinutes,
		})
	}

	if sessionDurationMinutes > MaxSessionDurationMinutes {
		return Policy{}, policyError("session duration is too long", map[string]any{
			"session_duration_minutes": sessionDurationMinutes,
			"max":                      MaxSessionDurationMinutes,
		})
	}

	if p.algorithm != jwt.SigningMethodHS256.Alg() {
		return Policy{}, policyError("unsupported signing algorithm", map[string]any{
			"algorithm": p.algorithm,
		})
	}

	p.signingKey = append([]byte(nil), signingKey...)

	return p, nil
}

// MustPolicy is NewPolicy that panics, meant for tests and tooling
func MustPolicy(signingKey []byte, sessionDurationMinutes int64, opts ...PolicyOption) Policy {
	p, err := NewPolicy(signingKey, sessionDurationMinutes, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Algorithm returns the signing algorithm identifier
func (p Policy) Algorithm() string {
	return p.algorithm
}

// SessionDurationMinutes returns the session length measured from issuance
func (p Policy) SessionDurationMinutes() int64 {
	return p.durationMinutes
}

// SessionDuration returns the session length as a time.Duration
func (p Policy) SessionDuration() time.Duration {
	return time.Duration(p.durationMinutes) * time.Minute
}

// IsZero reports whether the policy was not built with NewPolicy
func (p Policy) IsZero() bool {
	return len(p.signingKey) == 0
}

func (p Policy) key() []byte {
	return p.signingKey
}

// String never prints the key
func (p Policy) String() string {
	return "Policy{alg=" + p.algorithm + ", duration=" + p.SessionDuration().String() + "}"
}

func policyError(msg string, metadata map[string]any) *errors.Error {
	return errors.New(msg, errors.CategoryBadInput).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeInvalidPolicy).
		WithMetadata(metadata)
}
