// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewFromCore_FieldsAndNames(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core).Named("synonym").With(String("backend", "memory"))

	log.Warn("lookup failed", String("surface", "leche"), Int("attempt", 2), Err(errors.New("boom")))
	log.Debug("skipped", Bool("cached", true), Float64("similarity", 0.4))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "synonym", first.LoggerName)
	assert.Equal(t, zapcore.WarnLevel, first.Level)
	ctx := first.ContextMap()
	assert.Equal(t, "memory", ctx["backend"])
	assert.Equal(t, "leche", ctx["surface"])
	assert.Equal(t, int64(2), ctx["attempt"])
	assert.Equal(t, "boom", ctx["error"])

	assert.Equal(t, true, entries[1].ContextMap()["cached"])
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, Field{Key: "error", Value: "<nil>"}, Err(nil))
}

func TestNewLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alergias.log")
	log, err := NewLogger(types.LogConfig{Level: "debug", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Info("hello", String("k", "v"))
	require.NoError(t, log.Sync())

	assert.FileExists(t, path)
}

func TestNop(t *testing.T) {
	log := NewNop().Named("x").With(String("a", "b"))
	log.Error("ignored")
	assert.NoError(t, log.Sync())
}
