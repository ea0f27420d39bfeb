package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{"component": "cache"}).
		WithError(errors.New("boom"))

	log.Info("cache miss", map[string]interface{}{"categoryId": 10})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "cache", ctx["component"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, int64(10), ctx["categoryId"])
}

func TestZapAdapter_ErrorValuedField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	NewZapAdapter(zap.New(core)).Warn("fetch failed", map[string]interface{}{
		"cause": errors.New("timeout"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "timeout", entries[0].ContextMap()["cause"])
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.Debug("x", nil)
		log.Warn("x", map[string]interface{}{"a": 1})
		log.Error("x", nil)
	})
}
