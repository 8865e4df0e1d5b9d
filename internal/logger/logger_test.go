package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(opts ...Option) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return FromZap(zap.New(core), opts...), logs
}

func TestRedactsCredentialKeys(t *testing.T) {
	log, logs := observed()

	log.Info("verifying", "bearer_token", "abc", "Authorization", "Bearer abc", "model", "gemini")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["bearer_token"])
	assert.Equal(t, "[REDACTED]", fields["Authorization"])
	assert.Equal(t, "gemini", fields["model"])
}

func TestRedactsJWTLookingValues(t *testing.T) {
	log, logs := observed()

	log.Warn("odd", "value", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig")

	assert.Equal(t, "[REDACTED]", logs.All()[0].ContextMap()["value"])
}

func TestHashesSubjectIDs(t *testing.T) {
	log, logs := observed(WithHashSalt("pepper"))

	log.With("subject_id", "user-1").Info("start")

	got, ok := logs.All()[0].ContextMap()["subject_id"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^hash:[0-9a-f]{12}$`, got)
	assert.NotContains(t, got, "user-1")
}

func TestRedactionCanBeDisabled(t *testing.T) {
	log, logs := observed(WithRedaction(false))

	log.Debug("raw", "api_key", "k", "subject_id", "user-1")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "k", fields["api_key"])
	assert.Equal(t, "user-1", fields["subject_id"])
}
