package auth

import "errors"

var (
	// ErrNotConfigured means no client credentials have been saved yet.
	ErrNotConfigured = errors.New("google auth not configured: client credentials not set")

	// ErrNotAuthenticated means credentials exist but no access token is stored.
	ErrNotAuthenticated = errors.New("not authenticated with google")

	// ErrCallbackServerFailed means the loopback callback listener could not bind.
	ErrCallbackServerFailed = errors.New("oauth callback server failed to start")

	// ErrAuthorizationFailed means a callback arrived with no matching flow.
	ErrAuthorizationFailed = errors.New("oauth authorization failed")

	// ErrTokenExchangeFailed means the token endpoint rejected the code exchange.
	ErrTokenExchangeFailed = errors.New("token exchange failed")

	// ErrTokenRefreshFailed means the token endpoint rejected the refresh grant.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrHTTPRequestFailed means the token endpoint could not be reached.
	ErrHTTPRequestFailed = errors.New("http request failed")

	// ErrInvalidResponse means the token endpoint returned a malformed payload.
	ErrInvalidResponse = errors.New("invalid response from token endpoint")
)
