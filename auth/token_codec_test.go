package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-records/auth"
)

var testKey = []byte("a-test-signing-key-with-32-bytes!")

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))

	claims := auth.NewSessionClaims(17, time.Unix(1_700_000_000, 0))
	raw, err := codec.Encode(claims)
	require.NoError(t, err)

	got, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}

func TestTokenCodec_EncodeIsDeterministic(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))
	claims := auth.NewSessionClaims(1, time.Unix(1000, 0))

	first, err := codec.Encode(claims)
	require.NoError(t, err)
	second, err := codec.Encode(claims)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTokenCodec_ConcurrentMintsDiffer(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))
	now := time.Unix(1_700_000_000, 0)

	const n = 32
	tokens := make([]string, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := codec.Encode(auth.NewSessionClaims(5, now))
			assert.NoError(t, err)
			tokens[i] = raw
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, raw := range tokens {
		assert.False(t, seen[raw], "duplicate token minted")
		seen[raw] = true

		claims, err := codec.Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, int64(5), claims.UserID)
	}
}

func TestTokenCodec_EncodeRejectsIncompleteClaims(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))

	_, err := codec.Encode(auth.SessionClaims{IssuedAt: 1, UserID: 1})
	require.Error(t, err)
	assert.True(t, auth.IsEncodingError(err))

	_, err = auth.NewTokenCodec(auth.Policy{}).Encode(auth.NewSessionClaims(1, time.Now()))
	require.Error(t, err)
	assert.True(t, auth.IsEncodingError(err))
}

func TestTokenCodec_SingleByteTamperFails(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))

	raw, err := codec.Encode(auth.NewSessionClaims(99, time.Unix(1_700_000_000, 0)))
	require.NoError(t, err)

	for i := 0; i < len(raw); i++ {
		if raw[i] == '.' {
			continue
		}

		b := []byte(raw)
		if b[i] == 'A' {
			b[i] = 'B'
		} else {
			b[i] = 'A'
		}

		_, err := codec.Decode(string(b))
		require.Error(t, err, "tampered byte %d accepted", i)
		assert.True(t, auth.IsInvalidToken(err))
	}
}

func TestTokenCodec_RejectsForeignTokens(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))

	payload := jwt.MapClaims{
		"iat":     time.Now().Unix(),
		"jti":     "7b0f2a49-5f7e-4d0b-8c1e-4d1e2b3c4d5e",
		"user_id": 1,
	}

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, payload).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, payload).SignedString(testKey)
	require.NoError(t, err)

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString([]byte("some-other-key-entirely-different"))
	require.NoError(t, err)

	missingUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"jti": "x",
	}).SignedString(testKey)
	require.NoError(t, err)

	stringUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat":     time.Now().Unix(),
		"jti":     "x",
		"user_id": "1",
	}).SignedString(testKey)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-token",
		"two segments":    "abc.def",
		"alg none":        noneToken,
		"HS512":           hs512,
		"other key":       otherKey,
		"missing user_id": missingUser,
		"string user_id":  stringUser,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(raw)
			require.Error(t, err)
			assert.True(t, auth.IsInvalidToken(err), "got %v", err)
		})
	}
}

func TestTokenCodec_AcceptsOwnClaimsFromMapClaims(t *testing.T) {
	codec := auth.NewTokenCodec(auth.MustPolicy(testKey, 60))

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat":     1000,
		"jti":     "abc",
		"user_id": 12,
	}).SignedString(testKey)
	require.NoError(t, err)

	claims, err := codec.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, auth.SessionClaims{IssuedAt: 1000, TokenID: "abc", UserID: 12}, claims)
}
