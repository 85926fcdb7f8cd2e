package auth

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// StateLength is the length of the state parameter for CSRF protection.
const StateLength = 32

// PKCE holds the code verifier, challenge and state for one login attempt.
type PKCE struct {
	Verifier  string
	Challenge string
	State     string
}

// NewPKCE generates a new PKCE code verifier, challenge, and state.
func NewPKCE() (*PKCE, error) {
	state, err := generateRandomString(StateLength)
	if err != nil {
		return nil, err
	}

	verifier := oauth2.GenerateVerifier()
	return &PKCE{
		Verifier:  verifier,
		Challenge: oauth2.S256ChallengeFromVerifier(verifier),
		State:     state,
	}, nil
}

// generateRandomString creates a random string of URL-safe base64 characters.
func generateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(bytes)
	if len(encoded) > length {
		encoded = encoded[:length]
	}
	return encoded, nil
}
