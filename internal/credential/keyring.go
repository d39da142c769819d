package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "tracker"

// sessionTokenKey is the keyring entry holding the CLI's session token.
const sessionTokenKey = "session-token"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/tracker/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("tracker-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// TokenStore persists a session token between CLI invocations.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// KeyringTokenStore keeps the token in the system keyring.
type KeyringTokenStore struct{}

// Load returns the saved token, or "" when none is saved.
func (KeyringTokenStore) Load() (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(sessionTokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", sessionTokenKey, err)
	}

	return string(item.Data), nil
}

// Save stores token, replacing any previous one.
func (KeyringTokenStore) Save(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   sessionTokenKey,
		Data:  []byte(token),
		Label: "tracker session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", sessionTokenKey, err)
	}

	return nil
}

// Clear removes the saved token. Clearing an absent token is not an error.
func (KeyringTokenStore) Clear() error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(sessionTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", sessionTokenKey, err)
	}

	return nil
}
