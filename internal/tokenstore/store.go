// Package tokenstore persists identity caches between runs.
package tokenstore

import (
	"errors"
	"path/filepath"
)

// ErrNotFound is returned by Load when nothing is stored under a key
var ErrNotFound = errors.New("tokenstore: not found")

// Store is a small key/value store for serialized token caches
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, data []byte) error
	Delete(key string) error
	Close() error
}

// Backend names
const (
	BackendSQLite  = "sqlite"
	BackendKeyring = "keyring"
)

// Open opens the store for the named backend. For sqlite, path is the
// database file; the keyring's encrypted file fallback is kept in a
// "keyring" directory next to it.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return OpenSQLite(path)
	case BackendKeyring:
		var dir string
		if path != "" {
			dir = filepath.Join(filepath.Dir(path), "keyring")
		}
		return OpenKeyring(KeyringConfig{FileDir: dir})
	default:
		return nil, errors.New("tokenstore: unknown backend " + backend)
	}
}
