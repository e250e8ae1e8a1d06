// Package tokenstore persists the GasBuddy csrf token between runs as a tiny
// JSON record on disk. The store is deliberately forgiving: undersized or
// corrupt data is treated as "no token", never as an error, because the token
// is always re-derivable from the landing page.
package tokenstore

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

const tokenField = "gbcsrf"

// A validly-encoded token record is always larger than this; anything
// smaller is junk left behind by an interrupted or concurrent writer.
const minPlausibleSize = 30

type Store struct {
	path string
}

// New returns a store backed by the given file, or a per-user default
// location when path is empty.
func New(path string) Store {
	if path == "" {
		path = defaultPath()
	}
	return Store{path: path}
}

func defaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gasbuddy", "token.json")
}

// Get returns the cached token, or "" when the record is absent or does not
// parse. Parse failures are logged, not surfaced.
func (s Store) Get() string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read token cache", "path", s.path, "err", err)
		}
		return ""
	}

	var record map[string]string
	if err := json.Unmarshal(raw, &record); err != nil {
		slog.Info("invalid JSON in token cache", "path", s.path)
		return ""
	}
	return record[tokenField]
}

// Set persists the token, creating parent directories as needed.
func (s Store) Set(token string) error {
	raw, err := json.MarshalIndent(map[string]string{tokenField: token}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0600)
}

// Exists reports whether the store holds a plausibly valid record: the file
// must exist and exceed the minimum encoded size.
func (s Store) Exists() bool {
	info, err := os.Stat(s.path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() > minPlausibleSize
}

// Clear removes the record; clearing an absent record is not an error.
func (s Store) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
