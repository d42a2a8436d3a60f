package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Tokens within this window of expiry are refreshed proactively instead of
// being used until the provider rejects them.
const refreshExpiryWindow = 300 * time.Second

// GetValidAccessToken returns an access token that is good for at least the
// refresh window, refreshing it first when the stored one is expired or
// about to expire. Tokens stored without a lifetime are returned as-is.
func (m *Manager) GetValidAccessToken(ctx context.Context) (string, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotConfigured
	}

	ts, err := m.store.Tokens()
	if err != nil {
		return "", err
	}
	if ts == nil || ts.AccessToken == "" {
		return "", ErrNotAuthenticated
	}

	if !ts.ExpiresAt.IsZero() && !m.now().Before(ts.ExpiresAt.Add(-refreshExpiryWindow)) {
		return m.RefreshAccessToken(ctx)
	}

	return ts.AccessToken, nil
}

// RefreshAccessToken obtains a new access token with the stored refresh
// token and persists the result. A refresh response that omits the refresh
// token keeps the stored one.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotConfigured
	}

	ts, err := m.store.Tokens()
	if err != nil {
		return "", err
	}
	if ts == nil || ts.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token stored", ErrTokenRefreshFailed)
	}

	cfg := m.oauthConfig(creds, "")
	src := cfg.TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: ts.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", tokenEndpointError(err, ErrTokenRefreshFailed)
	}

	if err := m.saveToken(tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
