// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
)

func writeSecret(t *testing.T, dir, name, content string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
	// WriteFile is subject to umask; force the mode under test.
	require.NoError(t, os.Chmod(path, mode))
}

func TestLoad_BackendCredentials(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, PostgresDSN, "  postgres://scanner:pw@db.internal:5432/alergias?sslmode=require  \n", 0o600)
	writeSecret(t, dir, RPCKey, "eyJhbGciOiJIUzI1NiJ9.anon\n", 0o600)
	writeSecret(t, dir, RedisPassword, "\tcache-pw\n", 0o600)
	writeSecret(t, dir, ".gitkeep", "", 0o600)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old"), 0o700))

	core, logs := observer.New(zapcore.DebugLevel)
	got, err := Load(dir, logging.NewFromCore(core))
	require.NoError(t, err)

	assert.Equal(t, Secrets{
		PostgresDSN:   "postgres://scanner:pw@db.internal:5432/alergias?sslmode=require",
		RPCKey:        "eyJhbGciOiJIUzI1NiJ9.anon",
		RedisPassword: "cache-pw",
	}, got)
	assert.Equal(t, []string{PostgresDSN, RedisPassword, RPCKey}, got.Keys())
	assert.Zero(t, logs.Len())
}

func TestLoad_MissingDirectory(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, got.Resolve("", PostgresDSN))
}

func TestLoad_SkipsBlankCredentials(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, RedisPassword, "   \n\t", 0o600)
	writeSecret(t, dir, RPCKey, "", 0o600)

	got, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_WarnsOnUnknownKeyAndLoosePermissions(t *testing.T) {
	dir := t.TempDir()
	writeSecret(t, dir, "postgres_dsn", "postgres://typo", 0o600)
	writeSecret(t, dir, PostgresDSN, "postgres://shared", 0o644)

	core, logs := observer.New(zapcore.WarnLevel)
	got, err := Load(dir, logging.NewFromCore(core))
	require.NoError(t, err)

	// Both are still loaded; the warnings are advisory.
	assert.Equal(t, "postgres://typo", got["postgres_dsn"])
	assert.Equal(t, "postgres://shared", got[PostgresDSN])

	unknown := logs.FilterMessage("unknown secret key").All()
	require.Len(t, unknown, 1)
	assert.Equal(t, "postgres_dsn", unknown[0].ContextMap()["key"])

	loose := logs.FilterMessage("secret file is readable by other users").All()
	require.Len(t, loose, 1)
	assert.Equal(t, PostgresDSN, loose[0].ContextMap()["key"])
}

func TestLoad_UnreadableCredentialSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions do not apply to root")
	}
	dir := t.TempDir()
	writeSecret(t, dir, RPCKey, "sk_live", 0o600)
	writeSecret(t, dir, RedisPassword, "locked", 0o000)
	t.Cleanup(func() { os.Chmod(filepath.Join(dir, RedisPassword), 0o600) })

	core, logs := observer.New(zapcore.WarnLevel)
	got, err := Load(dir, logging.NewFromCore(core))
	require.NoError(t, err)

	assert.Equal(t, Secrets{RPCKey: "sk_live"}, got)
	assert.Equal(t, 1, logs.FilterMessage("skipping unreadable secret").Len())
}

func TestResolve(t *testing.T) {
	s := Secrets{PostgresDSN: "postgres://from-secrets", RedisPassword: "pw"}

	tests := []struct {
		name  string
		value string
		key   string
		want  string
	}{
		{"config wins", "postgres://from-config", PostgresDSN, "postgres://from-config"},
		{"fallback to file", "", PostgresDSN, "postgres://from-secrets"},
		{"blank config falls back", "  ", PostgresDSN, "postgres://from-secrets"},
		{"redis password", "", RedisPassword, "pw"},
		{"rpc key absent", "", RPCKey, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Resolve(tt.value, tt.key))
		})
	}

	var none Secrets
	assert.Empty(t, none.Resolve("", RPCKey))
}
