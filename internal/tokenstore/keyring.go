package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/99designs/keyring"
)

const serviceName = "emlsave"

// KeyringConfig selects the keyring backends
type KeyringConfig struct {
	// FileDir is used by the encrypted file backend when no system keyring is available
	FileDir string

	// Backends overrides the default backend list
	Backends []keyring.BackendType
}

// KeyringStore keeps cache entries in the system keyring
type KeyringStore struct {
	ring keyring.Keyring
}

// OpenKeyring returns a store backed by the OS keyring
func OpenKeyring(cfg KeyringConfig) (*KeyringStore, error) {
	backends := cfg.Backends
	if len(backends) == 0 {
		backends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
	}

	fileDir := cfg.FileDir
	if fileDir == "" {
		fileDir = "~/.config/emlsave/keyring"
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("emlsave-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// Load returns the data stored under key
func (s *KeyringStore) Load(key string) ([]byte, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", key, err)
	}
	return item.Data, nil
}

// Save stores data under key
func (s *KeyringStore) Save(key string, data []byte) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  data,
		Label: "emlsave token cache",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (s *KeyringStore) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; keyring handles are not held open
func (s *KeyringStore) Close() error {
	return nil
}
