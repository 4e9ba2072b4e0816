// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text
// files, one credential per file named after its key. Credentials set in
// the config file or environment take precedence over the directory.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lukas-andre/alergias-app-sub001/internal/logging"
)

// DefaultDir is where the CLI looks for credential files.
const DefaultDir = ".secrets"

// Key names read by the CLI.
const (
	PostgresDSN   = "postgres-dsn"
	RPCKey        = "rpc-key"
	RedisPassword = "redis-password"
)

var known = map[string]bool{PostgresDSN: true, RPCKey: true, RedisPassword: true}

// Secrets maps key names to credential values.
type Secrets map[string]string

// Load reads the credential files in dir. A missing directory yields an
// empty set. Unreadable files are skipped with a warning. Unknown key names
// and files readable by group or others are loaded but warned about.
func Load(dir string, log logging.Logger) (Secrets, error) {
	if log == nil {
		log = logging.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable secret", logging.String("key", name), logging.Err(err))
			continue
		}
		value := strings.TrimSpace(string(data))
		if value == "" {
			continue
		}

		if !known[name] {
			log.Warn("unknown secret key", logging.String("key", name))
		}
		if info, err := entry.Info(); err == nil && info.Mode().Perm()&0o077 != 0 {
			log.Warn("secret file is readable by other users",
				logging.String("key", name),
				logging.String("mode", info.Mode().Perm().String()))
		}
		s[name] = value
	}
	return s, nil
}

// Resolve returns value when it is set, otherwise the credential stored
// under key.
func (s Secrets) Resolve(value, key string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return s[key]
}

// Keys returns the loaded key names, sorted. Values are never listed.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
