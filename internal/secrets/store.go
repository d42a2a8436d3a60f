package secrets

import (
	"errors"
	"strconv"
	"time"

	"github.com/markb/driveshelf/internal/auth"
)

// Keyring entry names. These are stable identifiers; renaming one orphans
// the secrets existing installs already stored.
const (
	keyClientID     = "google_client_id"
	keyClientSecret = "google_client_secret"
	keyAccessToken  = "google_access_token"
	keyRefreshToken = "google_refresh_token"
	keyTokenExpiry  = "google_token_expiry"
	keyAccountEmail = "google_account_email"
)

// VaultStore persists OAuth credentials and tokens in the OS keyring. It is
// the drop-in alternative to the SQLite-backed store for installs where a
// keyring is available.
type VaultStore struct {
	vault Vault

	now func() time.Time
}

var _ auth.Store = (*VaultStore)(nil)

// NewVaultStore creates a store over the given vault.
func NewVaultStore(vault Vault) *VaultStore {
	return &VaultStore{vault: vault, now: time.Now}
}

func (s *VaultStore) get(key string) (string, error) {
	val, err := s.vault.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return val, err
}

// Credentials returns the stored client credentials, or nil when none are
// configured.
func (s *VaultStore) Credentials() (*auth.Credentials, error) {
	id, err := s.get(keyClientID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	secret, err := s.get(keyClientSecret)
	if err != nil {
		return nil, err
	}
	return &auth.Credentials{ClientID: id, ClientSecret: secret}, nil
}

// SaveCredentials stores the client credentials, replacing any previous pair.
func (s *VaultStore) SaveCredentials(creds *auth.Credentials) error {
	if err := s.vault.Set(keyClientID, creds.ClientID); err != nil {
		return err
	}
	return s.vault.Set(keyClientSecret, creds.ClientSecret)
}

// DeleteCredentials removes the credentials and every token derived from
// them.
func (s *VaultStore) DeleteCredentials() error {
	if err := s.ClearTokens(); err != nil {
		return err
	}
	if err := s.vault.Delete(keyClientID); err != nil {
		return err
	}
	return s.vault.Delete(keyClientSecret)
}

// Tokens returns the stored token set, or nil when no tokens are stored.
func (s *VaultStore) Tokens() (*auth.TokenSet, error) {
	access, err := s.get(keyAccessToken)
	if err != nil {
		return nil, err
	}
	refresh, err := s.get(keyRefreshToken)
	if err != nil {
		return nil, err
	}
	if access == "" && refresh == "" {
		return nil, nil
	}

	ts := &auth.TokenSet{AccessToken: access, RefreshToken: refresh}

	if expiry, err := s.get(keyTokenExpiry); err != nil {
		return nil, err
	} else if expiry != "" {
		sec, perr := strconv.ParseInt(expiry, 10, 64)
		if perr == nil {
			ts.ExpiresAt = time.Unix(sec, 0)
		}
	}

	email, err := s.get(keyAccountEmail)
	if err != nil {
		return nil, err
	}
	ts.AccountEmail = email
	return ts, nil
}

// SaveTokens stores a token response. An empty refresh token keeps the one
// already stored; a non-positive lifetime clears the stored expiry. The
// absolute expiry is computed from the local clock at save time.
func (s *VaultStore) SaveTokens(accessToken, refreshToken string, expiresIn int64) error {
	creds, err := s.Credentials()
	if err != nil {
		return err
	}
	if creds == nil {
		return auth.ErrNotConfigured
	}

	if err := s.vault.Set(keyAccessToken, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.vault.Set(keyRefreshToken, refreshToken); err != nil {
			return err
		}
	}

	if expiresIn > 0 {
		expiry := s.now().Add(time.Duration(expiresIn) * time.Second).Unix()
		return s.vault.Set(keyTokenExpiry, strconv.FormatInt(expiry, 10))
	}
	return s.vault.Delete(keyTokenExpiry)
}

// SaveAccountEmail records the account the tokens belong to.
func (s *VaultStore) SaveAccountEmail(email string) error {
	return s.vault.Set(keyAccountEmail, email)
}

// ClearTokens removes every stored token while keeping the credentials.
func (s *VaultStore) ClearTokens() error {
	for _, key := range []string{keyAccessToken, keyRefreshToken, keyTokenExpiry, keyAccountEmail} {
		if err := s.vault.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
