// Package secrets stores sensitive values in the operating system keyring
// so OAuth credentials and tokens never touch the database file in
// plaintext.
package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// ErrNotFound indicates that the requested secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Service is the keyring service name all driveshelf secrets live under.
const Service = "driveshelf"

// Vault is a flat key-value store for secrets.
type Vault interface {
	// Set stores a secret, overwriting any previous value.
	Set(key, value string) error

	// Get retrieves a secret. Missing keys return ErrNotFound.
	Get(key string) (string, error)

	// Delete removes a secret. Deleting a missing key is not an error.
	Delete(key string) error

	// Available reports whether the backing keyring is functional.
	Available() bool
}

// keyringVault backs Vault with the platform keyring (Keychain on macOS,
// Credential Manager on Windows, Secret Service over D-Bus on Linux).
type keyringVault struct {
	service string
}

// NewKeyringVault returns a Vault backed by the OS keyring.
func NewKeyringVault() Vault {
	return &keyringVault{service: Service}
}

func (v *keyringVault) Set(key, value string) error {
	if err := keyring.Set(v.service, key, value); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (v *keyringVault) Get(key string) (string, error) {
	val, err := keyring.Get(v.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", key, err)
	}
	return val, nil
}

func (v *keyringVault) Delete(key string) error {
	err := keyring.Delete(v.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}

// Available probes the keyring with a throwaway entry. Some environments
// (headless Linux without a Secret Service daemon) have the API but no
// working backend.
func (v *keyringVault) Available() bool {
	const probe = "driveshelf-keyring-probe"
	if err := keyring.Set(v.service, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(v.service, probe)
	return true
}
