package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the signed payload of a session token. All fields are
// required and fixed once the token is minted.
type SessionClaims struct {
	IssuedAt int64  `json:"iat"`
	TokenID  string `json:"jti"`
	UserID   int64  `json:"user_id"`
}

// Verify interface compliance
var _ jwt.Claims = SessionClaims{}

// NewSessionClaims mints claims for userID issued at the given instant.
// Each call gets a fresh token id, so two logins in the same second still
// produce different tokens.
func NewSessionClaims(userID int64, issuedAt time.Time) SessionClaims {
	return SessionClaims{
		IssuedAt: issuedAt.Unix(),
		TokenID:  uuid.NewString(),
		UserID:   userID,
	}
}

// IssuedAtTime returns IssuedAt as a time.Time
func (c SessionClaims) IssuedAtTime() time.Time {
	return time.Unix(c.IssuedAt, 0)
}

// Complete reports whether every required field is populated
func (c SessionClaims) Complete() bool {
	return c.UserID > 0 && c.TokenID != ""
}

func (c SessionClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return nil, nil
}

func (c SessionClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(c.IssuedAtTime()), nil
}

func (c SessionClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

func (c SessionClaims) GetIssuer() (string, error) {
	return "", nil
}

func (c SessionClaims) GetSubject() (string, error) {
	return "", nil
}

func (c SessionClaims) GetAudience() (jwt.ClaimStrings, error) {
	return nil, nil
}

// wireClaims is the decode target. Pointers let us tell a missing field
// apart from a zero value.
type wireClaims struct {
	IssuedAt *int64  `json:"iat"`
	TokenID  *string `json:"jti"`
	UserID   *int64  `json:"user_id"`
}

var _ jwt.Claims = (*wireClaims)(nil)

func (w *wireClaims) sessionClaims() (SessionClaims, bool) {
	if w == nil || w.IssuedAt == nil || w.TokenID == nil || w.UserID == nil {
		return SessionClaims{}, false
	}

	claims := SessionClaims{
		IssuedAt: *w.IssuedAt,
		TokenID:  *w.TokenID,
		UserID:   *w.UserID,
	}

	if !claims.Complete() {
		return SessionClaims{}, false
	}

	return claims, true
}

func (w *wireClaims) GetExpirationTime() (*jwt.NumericDate, error) { return nil, nil }
func (w *wireClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (w *wireClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (w *wireClaims) GetIssuer() (string, error)                   { return "", nil }
func (w *wireClaims) GetSubject() (string, error)                  { return "", nil }
func (w *wireClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
