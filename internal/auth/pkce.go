// Package auth implements Google sign-in for driveshelf using the OAuth 2.0
// authorization-code flow with PKCE (RFC 7636). One authorization attempt is
// active at a time; a loopback callback listener receives the redirect and
// exchanges the code for tokens, which are persisted through a Store.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// GenerateCodeVerifier generates a cryptographically random code verifier
// for PKCE (RFC 7636). Returns a 43-character URL-safe string.
func GenerateCodeVerifier() string {
	// 32 bytes = 43 characters in base64url (without padding)
	return base64.RawURLEncoding.EncodeToString(randomBytes(32))
}

// GenerateCodeChallenge computes the S256 code challenge from a verifier.
func GenerateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GenerateState generates a cryptographically random state parameter
// for CSRF protection.
func GenerateState() string {
	return base64.RawURLEncoding.EncodeToString(randomBytes(16))
}

// randomBytes panics if the system random source fails; there is no way to
// continue an authorization flow without entropy.
func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return b
}
