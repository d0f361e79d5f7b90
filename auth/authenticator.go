package auth

import (
	"context"
	"sync"
	"time"
)

// Session is the result of a successful login
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticator verifies credentials and issues session tokens. It holds no
// mutable state after construction and can serve concurrent logins.
type Authenticator struct {
	store     CredentialStore
	hasher    *PasswordHasher
	codec     *TokenCodec
	validator *SessionValidator
	clock     Clock
	logger    Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthenticator creates an authenticator that mints tokens under policy
func NewAuthenticator(store CredentialStore, hasher *PasswordHasher, policy Policy) *Authenticator {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	return &Authenticator{
		store:     store,
		hasher:    hasher,
		codec:     NewTokenCodec(policy),
		validator: NewSessionValidator(policy),
		clock:     SystemClock,
		logger:    defLogger{},
	}
}

// WithLogger sets the logger
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithClock overrides the issuance time source
func (a *Authenticator) WithClock(clock Clock) *Authenticator {
	if clock != nil {
		a.clock = clock
	}
	return a
}

// Login checks username and password and returns a fresh session.
// Unknown users and wrong passwords both produce ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	default:
	}

	cred, err := a.store.FindCredentialByUsername(ctx, username)
	if err != nil {
		if IsCredentialNotFound(err) {
			// keep the unknown user path as slow as a wrong password
			_, _ = a.hasher.Verify(password, a.dummy())
			a.logger.Debug("login rejected", "reason", "unknown username")
			return Session{}, ErrInvalidCredentials
		}
		a.logger.Error("login credential lookup failed", "error", err)
		return Session{}, err
	}

	ok, err := a.hasher.Verify(password, cred.PasswordHash)
	if err != nil {
		a.logger.Error("login password verification failed", "user_id", cred.UserID, "error", err)
		return Session{}, err
	}

	if !ok {
		a.logger.Debug("login rejected", "reason", "password mismatch", "user_id", cred.UserID)
		return Session{}, ErrInvalidCredentials
	}

	return a.Issue(cred.UserID)
}

// Issue mints a session for userID without checking credentials. It is
// used after Login succeeds and by operator tooling.
func (a *Authenticator) Issue(userID int64) (Session, error) {
	claims := NewSessionClaims(userID, a.clock())

	token, err := a.codec.Encode(claims)
	if err != nil {
		a.logger.Error("session token encoding failed", "user_id", userID, "error", err)
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    userID,
		IssuedAt:  claims.IssuedAtTime(),
		ExpiresAt: a.validator.ExpiresAt(claims),
	}, nil
}

// Hasher exposes the password hasher used to verify credentials
func (a *Authenticator) Hasher() *PasswordHasher {
	return a.hasher
}

func (a *Authenticator) dummy() string {
	a.dummyOnce.Do(func() {
		h, err := a.hasher.Hash("records-dummy-password")
		if err != nil {
			return
		}
		a.dummyHash = h
	})
	return a.dummyHash
}
