package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-records/logging"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestAdapterFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logging.Named(logging.SetupWriter(buf, false), "auth")

	log.Info("user registered", "user_id", 7)
	log.Error("store failure", "error", errors.New("disk full"))
	log.Warn("dangling", "key")
	log.Debug("hidden at info level")

	entries := lines(t, buf)
	require.Len(t, entries, 3)

	assert.Equal(t, "user registered", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "auth", entries[0]["component"])
	assert.EqualValues(t, 7, entries[0]["user_id"])

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "disk full", entries[1]["error"])

	assert.Equal(t, "(MISSING)", entries[2]["key"])
}

func TestSetupDebugLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logging.SetupWriter(buf, true)
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	mw := logging.RequestLogger(logging.SetupWriter(buf, false))

	ctx := router.NewMockContext()
	ctx.On("Method").Return("GET")
	ctx.On("Path").Return("/records")
	ctx.On("Context").Return(context.Background())
	ctx.On("SetContext", mock.Anything).Return()

	called := false
	err := mw(func(c router.Context) error {
		called = true
		return nil
	})(ctx)
	require.NoError(t, err)
	assert.True(t, called)

	entries := lines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "GET", entries[0]["method"])
	assert.Equal(t, "/records", entries[0]["path"])
	assert.Equal(t, "http request", entries[0]["message"])

	ctx.AssertCalled(t, "SetContext", mock.Anything)
}
