package jwtware_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-records/auth"
	"github.com/goliatone/go-records/middleware/jwtware"
)

var testSecret = []byte("jwtware-test-secret-0123456789-abcdef")

func mintToken(t *testing.T, policy auth.Policy, userID int64, issuedAt time.Time) string {
	t.Helper()

	raw, err := auth.NewTokenCodec(policy).Encode(auth.NewSessionClaims(userID, issuedAt))
	require.NoError(t, err)
	return raw
}

type recorder struct {
	called   bool
	identity auth.Identity
}

func (r *recorder) handler(ctx router.Context) error {
	r.called = true
	r.identity, _ = auth.IdentityFromContext(ctx.Context())
	return nil
}

func returnErr(_ router.Context, err error) error {
	return err
}

func TestJWTWare_ValidTokenReachesHandler(t *testing.T) {
	policy := auth.MustPolicy(testSecret, 60)
	token := mintToken(t, policy, 42, time.Now())

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer " + token
	ctx.On("Locals", jwtware.DefaultContextKey, mock.AnythingOfType("auth.Identity")).Return(nil)
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Return()

	var stored auth.Identity
	next := &recorder{}
	mw := jwtware.New(jwtware.Config{
		Policy:       policy,
		ErrorHandler: returnErr,
		ContextEnricher: func(c context.Context, identity auth.Identity) context.Context {
			stored = identity
			return auth.WithIdentity(c, identity)
		},
	})

	err := mw(next.handler)(ctx)
	require.NoError(t, err)
	assert.True(t, next.called)
	assert.Equal(t, int64(42), stored.UserID)
}

func TestJWTWare_RejectedRequestsNeverReachHandler(t *testing.T) {
	policy := auth.MustPolicy(testSecret, 60)
	other := auth.MustPolicy([]byte("another-secret-for-the-same-test-suite"), 60)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic " + mintToken(t, policy, 1, time.Now())},
		{name: "bearer without token", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.token"},
		{name: "different secret", header: "Bearer " + mintToken(t, other, 1, time.Now())},
		{name: "expired session", header: "Bearer " + mintToken(t, policy, 1, time.Now().Add(-2*time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := router.NewMockContext()
			ctx.HeadersM[router.HeaderAuthorization] = tt.header

			next := &recorder{}
			mw := jwtware.New(jwtware.Config{
				Policy:       policy,
				ErrorHandler: returnErr,
			})

			err := mw(next.handler)(ctx)
			require.Error(t, err)
			assert.True(t, auth.IsUnauthorized(err), "expected unauthorized, got %v", err)
			assert.False(t, next.called)
		})
	}
}

func TestJWTWare_DefaultErrorHandlerRespondsUnauthorized(t *testing.T) {
	policy := auth.MustPolicy(testSecret, 60)

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = ""

	var body any
	ctx.On("JSON", router.StatusUnauthorized, mock.Anything).Run(func(args mock.Arguments) {
		body = args.Get(1)
	}).Return(nil)

	next := &recorder{}
	err := jwtware.New(jwtware.Config{Policy: policy})(next.handler)(ctx)
	require.NoError(t, err)
	assert.False(t, next.called)
	assert.Equal(t, jwtware.UnauthorizedResponse{Message: "Unauthorized"}, body)
}

func TestJWTWare_ListenerCanReject(t *testing.T) {
	policy := auth.MustPolicy(testSecret, 60)
	token := mintToken(t, policy, 7, time.Now())

	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer " + token

	var seen int64
	next := &recorder{}
	mw := jwtware.New(jwtware.Config{
		Policy:       policy,
		ErrorHandler: returnErr,
		ValidationListeners: []jwtware.ValidationListener{
			func(_ router.Context, identity auth.Identity) error {
				seen = identity.UserID
				return errors.New("account disabled")
			},
		},
	})

	err := mw(next.handler)(ctx)
	require.Error(t, err)
	assert.True(t, auth.IsUnauthorized(err))
	assert.Equal(t, int64(7), seen)
	assert.False(t, next.called)
}

func TestJWTWare_FilterSkipsValidation(t *testing.T) {
	policy := auth.MustPolicy(testSecret, 60)

	ctx := router.NewMockContext()
	next := &recorder{}
	ctx.On("Context").Return(context.Background())

	mw := jwtware.New(jwtware.Config{
		Policy: policy,
		Filter: func(router.Context) bool { return true },
	})

	require.NoError(t, mw(next.handler)(ctx))
	assert.True(t, next.called)
	assert.True(t, next.identity.IsZero())
}

func TestGetDefaultConfig(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.GetDefaultConfig(jwtware.Config{})
	})

	cfg := jwtware.GetDefaultConfig(jwtware.Config{Policy: auth.MustPolicy(testSecret, 60)})
	assert.Equal(t, jwtware.DefaultContextKey, cfg.ContextKey)
	assert.NotNil(t, cfg.Extractor)
	assert.NotNil(t, cfg.ErrorHandler)
	assert.NotNil(t, cfg.ContextEnricher)
}

func TestIdentityFromRouter(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.LocalsMock[jwtware.DefaultContextKey] = auth.Identity{UserID: 9}

	identity, ok := jwtware.IdentityFromRouter(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(9), identity.UserID)

	ctx = router.NewMockContext()
	ctx.On("Context").Return(auth.WithIdentity(context.Background(), auth.Identity{UserID: 3}))

	identity, ok = jwtware.IdentityFromRouter(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(3), identity.UserID)
}
