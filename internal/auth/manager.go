package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultCallbackAddr is the loopback address registered with the
	// provider as part of the redirect URI.
	DefaultCallbackAddr = "127.0.0.1:8585"

	// CallbackPath is the path component of the redirect URI.
	CallbackPath = "/callback"

	// Read-only Drive access is the only scope the bookshelf needs.
	driveReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"
)

// flowState holds the secrets of one authorization attempt. It lives in
// process memory only and is consumed by a successful exchange.
type flowState struct {
	codeVerifier string
	state        string
	redirectURI  string
}

// Manager drives the authorization flow and the token lifecycle. At most one
// flow is active; StartFlow supersedes any flow still in progress.
type Manager struct {
	store Store

	// Endpoint is the provider's authorization/token endpoint pair.
	// Tests point TokenURL at a local server.
	Endpoint oauth2.Endpoint

	// HTTPClient performs the outbound token-endpoint requests. It must
	// carry a request timeout; exchange and refresh are not otherwise
	// cancellable.
	HTTPClient *http.Client

	// CallbackAddr is the listen address for the callback server. A port of
	// 0 selects an ephemeral port and the redirect URI follows the bound
	// address.
	CallbackAddr string

	// ListenTimeout bounds how long the callback listener waits for the
	// single redirect before giving up.
	ListenTimeout time.Duration

	mu       sync.Mutex
	flow     *flowState
	listener *callbackServer

	now        func() time.Time
	exchangeFn func(ctx context.Context, code string) error
}

// NewManager creates a Manager persisting through the given store.
func NewManager(store Store) *Manager {
	m := &Manager{
		store:         store,
		Endpoint:      google.Endpoint,
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		CallbackAddr:  DefaultCallbackAddr,
		ListenTimeout: 5 * time.Minute,
		now:           time.Now,
	}
	m.exchangeFn = m.ExchangeCode
	return m
}

// StartFlow begins a new authorization attempt: it generates the PKCE
// verifier/challenge pair and the CSRF state, replaces any in-flight flow,
// starts the callback listener, and returns the authorization URL to open in
// the user's browser. The call returns as soon as the listener is bound.
func (m *Manager) StartFlow(ctx context.Context) (string, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotConfigured
	}

	verifier := GenerateCodeVerifier()
	challenge := GenerateCodeChallenge(verifier)
	state := GenerateState()

	// Stop the previous listener before rebinding the port. Its flow state
	// is superseded below, so a late callback against the old flow would be
	// rejected anyway; shutting the listener down keeps the port free and
	// the old goroutine joined.
	m.mu.Lock()
	old := m.listener
	m.listener = nil
	m.mu.Unlock()
	if old != nil {
		old.stop()
	}

	ls, err := m.startListener()
	if err != nil {
		return "", err
	}
	redirectURI := "http://" + ls.addr() + CallbackPath

	m.mu.Lock()
	m.flow = &flowState{codeVerifier: verifier, state: state, redirectURI: redirectURI}
	m.listener = ls
	m.mu.Unlock()

	cfg := m.oauthConfig(creds, redirectURI)
	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return authURL, nil
}

// Logout clears the stored token set and abandons any in-flight flow.
func (m *Manager) Logout() error {
	m.mu.Lock()
	m.flow = nil
	old := m.listener
	m.listener = nil
	m.mu.Unlock()
	if old != nil {
		old.stop()
	}
	return m.store.ClearTokens()
}

// Status reports the derived authentication state. It never performs network
// I/O or token refresh.
func (m *Manager) Status() (Status, error) {
	creds, err := m.store.Credentials()
	if err != nil {
		return Status{}, err
	}
	if creds == nil {
		return Status{}, nil
	}

	ts, err := m.store.Tokens()
	if err != nil {
		return Status{}, err
	}

	st := Status{Configured: true}
	if ts != nil {
		st.Authenticated = ts.AccessToken != ""
		st.AccountEmail = ts.AccountEmail
	}
	return st, nil
}

// Wait blocks until the current callback listener exits (a callback was
// served, the listener timed out, or it was superseded). It returns
// immediately when no listener is running.
func (m *Manager) Wait() {
	m.mu.Lock()
	ls := m.listener
	m.mu.Unlock()
	if ls != nil {
		<-ls.closed
	}
}

func (m *Manager) oauthConfig(creds *Credentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{driveReadonlyScope},
		Endpoint:     m.Endpoint,
	}
}

// httpContext routes the oauth2 package's requests through the manager's
// timeout-bounded client.
func (m *Manager) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.HTTPClient)
}
