package auth

import "time"

// SessionValidator decides whether authentic claims are still inside their
// session window. The window starts at issuance and is never extended.
//
// There is no clock skew tolerance and no lower bound on IssuedAt: a token
// minted with a future iat is accepted while the arithmetic holds.
type SessionValidator struct {
	policy Policy
}

// NewSessionValidator creates a validator bound to policy
func NewSessionValidator(policy Policy) *SessionValidator {
	return &SessionValidator{policy: policy}
}

// Validate returns the identity carried by claims, or ErrSessionExpired
func (v *SessionValidator) Validate(claims SessionClaims, now time.Time) (Identity, error) {
	if claims.IssuedAt+v.policy.SessionDurationMinutes()*60 >= now.Unix() {
		return Identity{UserID: claims.UserID}, nil
	}
	return Identity{}, ErrSessionExpired
}

// ExpiresAt is the last instant at which claims validate
func (v *SessionValidator) ExpiresAt(claims SessionClaims) time.Time {
	return time.Unix(claims.IssuedAt+v.policy.SessionDurationMinutes()*60, 0)
}
