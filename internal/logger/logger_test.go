package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs_RedactsCredentials(t *testing.T) {
	out := sanitizeKVs([]interface{}{"user_id", "u1", "jwt_token", "abc", "DB_PASSWORD", "pw"})
	assert.Equal(t, []interface{}{"user_id", "u1", "jwt_token", "[REDACTED]", "DB_PASSWORD", "[REDACTED]"}, out)
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"k", 1, "dangling"})
	assert.Equal(t, []interface{}{"k", 1, "dangling"}, out)
}

func TestLogger_WritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "test")

	l.Info("decision recorded", "user_id", "u1", "decision_index", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "decision recorded", entries[0].Message)
		assert.Equal(t, "test", ctx["component"])
		assert.Equal(t, "u1", ctx["user_id"])
		assert.EqualValues(t, 3, ctx["decision_index"])
	}
}
