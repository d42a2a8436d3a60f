package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/markb/driveshelf/internal/log"
)

// ExchangeCode exchanges an authorization code for tokens using the active
// flow's verifier, persists the result, and consumes the flow state. It runs
// at most once per successful callback; replaying a code fails upstream.
func (m *Manager) ExchangeCode(ctx context.Context, code string) error {
	creds, err := m.store.Credentials()
	if err != nil {
		return err
	}
	if creds == nil {
		return ErrNotConfigured
	}

	m.mu.Lock()
	flow := m.flow
	m.mu.Unlock()
	if flow == nil {
		// A callback with no started flow, e.g. after a process restart.
		return fmt.Errorf("%w: no active authorization flow", ErrAuthorizationFailed)
	}

	cfg := m.oauthConfig(creds, flow.redirectURI)
	tok, err := cfg.Exchange(m.httpContext(ctx), code,
		oauth2.SetAuthURLParam("code_verifier", flow.codeVerifier))
	if err != nil {
		return tokenEndpointError(err, ErrTokenExchangeFailed)
	}

	if err := m.saveToken(tok); err != nil {
		return err
	}

	if email := idTokenEmail(tok); email != "" {
		if err := m.store.SaveAccountEmail(email); err != nil {
			log.Warn("failed to store account email", "error", err)
		}
	}

	m.mu.Lock()
	m.flow = nil
	m.mu.Unlock()
	return nil
}

// saveToken persists a token response, translating the absolute expiry the
// oauth2 package computed back into a relative lifetime for the store.
func (m *Manager) saveToken(tok *oauth2.Token) error {
	var expiresIn int64
	if !tok.Expiry.IsZero() {
		expiresIn = int64(tok.Expiry.Sub(m.now()) / time.Second)
	}
	return m.store.SaveTokens(tok.AccessToken, tok.RefreshToken, expiresIn)
}

// tokenEndpointError maps an oauth2 exchange/refresh error onto the package
// error taxonomy: upstream rejection carries the response body, transport
// failures are retryable, everything else is a malformed payload.
func tokenEndpointError(err error, upstream error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		body := strings.TrimSpace(string(rerr.Body))
		if body == "" && rerr.Response != nil {
			body = rerr.Response.Status
		}
		return fmt.Errorf("%w: %s", upstream, body)
	}

	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%w: %v", ErrHTTPRequestFailed, uerr)
	}

	return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
}

// idTokenEmail pulls the e-mail claim out of an id_token when the response
// carries one. The token arrived directly from the provider over TLS, so it
// is parsed without signature verification.
func idTokenEmail(tok *oauth2.Token) string {
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return ""
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		log.Debug("could not parse id_token", "error", err)
		return ""
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	email, _ := claims["email"].(string)
	return email
}
