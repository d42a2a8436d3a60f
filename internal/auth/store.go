package auth

import (
	"database/sql"
	"fmt"
	"time"
)

// Credentials are the OAuth client credentials issued by the provider.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenSet is the persisted token state for the single connected account.
// ExpiresAt is zero when the provider reported no token lifetime.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	AccountEmail string
}

// Status is the derived authentication state, recomputed on demand.
type Status struct {
	Configured    bool   `json:"configured"`
	Authenticated bool   `json:"authenticated"`
	AccountEmail  string `json:"account_email,omitempty"`
}

// Store persists client credentials and the token set. Implementations must
// serialize concurrent writes; SaveTokens must keep a previously stored
// refresh token when the new one is empty (providers often omit the refresh
// token on renewal).
type Store interface {
	// Credentials returns the stored client credentials, or (nil, nil) when
	// none have been configured.
	Credentials() (*Credentials, error)
	SaveCredentials(creds *Credentials) error
	DeleteCredentials() error

	// Tokens returns the stored token set, or (nil, nil) when no account
	// record exists.
	Tokens() (*TokenSet, error)
	// SaveTokens replaces the access token, keeps the stored refresh token
	// unless refreshToken is non-empty, and records an absolute expiry of
	// now+expiresIn. expiresIn <= 0 means the provider gave no lifetime.
	SaveTokens(accessToken, refreshToken string, expiresIn int64) error
	SaveAccountEmail(email string) error
	ClearTokens() error
}

// DBStore is the SQLite-backed Store over the google_auth singleton row.
type DBStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewDBStore creates a store backed by the application database.
func NewDBStore(db *sql.DB) *DBStore {
	return &DBStore{db: db, now: time.Now}
}

// Credentials returns the stored client credentials.
func (s *DBStore) Credentials() (*Credentials, error) {
	var creds Credentials
	err := s.db.QueryRow(
		"SELECT client_id, client_secret FROM google_auth WHERE id = 1").
		Scan(&creds.ClientID, &creds.ClientSecret)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &creds, nil
}

// SaveCredentials upserts the singleton credentials row, keeping any tokens
// already stored on it.
func (s *DBStore) SaveCredentials(creds *Credentials) error {
	now := s.now().Unix()
	_, err := s.db.Exec(`
		INSERT INTO google_auth (id, client_id, client_secret, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  client_id = excluded.client_id,
		  client_secret = excluded.client_secret,
		  updated_at = excluded.updated_at`,
		creds.ClientID, creds.ClientSecret, now, now)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// DeleteCredentials removes the account record entirely, tokens included.
func (s *DBStore) DeleteCredentials() error {
	_, err := s.db.Exec("DELETE FROM google_auth WHERE id = 1")
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

// Tokens returns the stored token set.
func (s *DBStore) Tokens() (*TokenSet, error) {
	var access, refresh, email sql.NullString
	var expiry sql.NullInt64
	err := s.db.QueryRow(
		"SELECT access_token, refresh_token, token_expiry, account_email FROM google_auth WHERE id = 1").
		Scan(&access, &refresh, &expiry, &email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load tokens: %w", err)
	}

	ts := &TokenSet{
		AccessToken:  access.String,
		RefreshToken: refresh.String,
		AccountEmail: email.String,
	}
	if expiry.Valid {
		ts.ExpiresAt = time.Unix(expiry.Int64, 0)
	}
	return ts, nil
}

// SaveTokens persists a newly issued token set. The absolute expiry is
// computed from the clock at the moment of the call, which is conservative
// by up to one token-endpoint round trip.
func (s *DBStore) SaveTokens(accessToken, refreshToken string, expiresIn int64) error {
	now := s.now().Unix()

	var expiry interface{}
	if expiresIn > 0 {
		expiry = now + expiresIn
	}

	res, err := s.db.Exec(`
		UPDATE google_auth SET
		  access_token = ?,
		  refresh_token = COALESCE(NULLIF(?, ''), refresh_token),
		  token_expiry = ?,
		  updated_at = ?
		WHERE id = 1`,
		accessToken, refreshToken, expiry, now)
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotConfigured
	}
	return nil
}

// SaveAccountEmail records the e-mail of the connected account.
func (s *DBStore) SaveAccountEmail(email string) error {
	_, err := s.db.Exec(
		"UPDATE google_auth SET account_email = ?, updated_at = ? WHERE id = 1",
		email, s.now().Unix())
	if err != nil {
		return fmt.Errorf("save account email: %w", err)
	}
	return nil
}

// ClearTokens removes the token set but keeps the client credentials.
func (s *DBStore) ClearTokens() error {
	_, err := s.db.Exec(`
		UPDATE google_auth SET
		  access_token = NULL,
		  refresh_token = NULL,
		  token_expiry = NULL,
		  account_email = NULL,
		  updated_at = ?
		WHERE id = 1`,
		s.now().Unix())
	if err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}
