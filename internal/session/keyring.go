package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"github.com/nhle/learnbell/internal/model"
)

const serviceName = "learnbell"

const (
	keyToken    = "auth-token"
	keyUserID   = "user-id"
	keyUserName = "user-name"
)

// Store reads and writes the signed-in session.
type Store interface {
	Load() (model.Session, error)
	Save(s model.Session) error
	Clear() error
}

// KeyringStore keeps the auth token and user record in the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// Open returns a KeyringStore backed by the first available keyring
// backend. fileDir is used by the encrypted file fallback.
func Open(fileDir string) (*KeyringStore, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("learnbell-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &KeyringStore{ring: ring}, nil
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// Load returns the stored session. Missing entries yield an empty
// session rather than an error: a logged-out user is a normal state.
func (k *KeyringStore) Load() (model.Session, error) {
	var s model.Session
	var err error

	if s.Token, err = k.get(keyToken); err != nil {
		return model.Session{}, err
	}
	if s.UserID, err = k.get(keyUserID); err != nil {
		return model.Session{}, err
	}
	if s.UserName, err = k.get(keyUserName); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Save stores every session field.
func (k *KeyringStore) Save(s model.Session) error {
	if err := k.set(keyToken, s.Token); err != nil {
		return err
	}
	if err := k.set(keyUserID, s.UserID); err != nil {
		return err
	}
	return k.set(keyUserName, s.UserName)
}

// Clear removes the session. Removing absent keys is not an error.
func (k *KeyringStore) Clear() error {
	for _, key := range []string{keyToken, keyUserID, keyUserName} {
		if err := k.ring.Remove(key); err != nil && !isNotFound(err) {
			return fmt.Errorf("deleting credential %q: %w", key, err)
		}
	}
	return nil
}

func (k *KeyringStore) get(key string) (string, error) {
	item, err := k.ring.Get(key)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (k *KeyringStore) set(key, value string) error {
	err := k.ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound)
}
