package auth

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
)

const (
	// SpotifyAuthURL is the Spotify authorization endpoint.
	SpotifyAuthURL = "https://accounts.spotify.com/authorize"

	// SpotifyTokenURL is the Spotify token endpoint.
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultRedirectURI is the default callback URI for the local server.
	DefaultRedirectURI = "http://127.0.0.1:8888/callback"
)

// DefaultScopes are the Spotify scopes required for cody functionality.
var DefaultScopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"user-read-private",
	"user-read-email",
	"user-library-read",
	"user-library-modify",
	"user-top-read",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// LoginConfig holds the authorization-code settings used by `cody auth login`.
type LoginConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
}

// NewLoginConfig creates a login configuration with defaults.
func NewLoginConfig(clientID, clientSecret string) *LoginConfig {
	return &LoginConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  DefaultRedirectURI,
		Scopes:       DefaultScopes,
		AuthURL:      SpotifyAuthURL,
		TokenURL:     SpotifyTokenURL,
	}
}

// OAuth2 returns the equivalent oauth2 configuration.
func (c *LoginConfig) OAuth2() *oauth2.Config {
	authURL, tokenURL := c.AuthURL, c.TokenURL
	if authURL == "" {
		authURL = SpotifyAuthURL
	}
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// AuthCodeURL builds the URL the user visits to grant access.
func (c *LoginConfig) AuthCodeURL(p *PKCE) string {
	return c.OAuth2().AuthCodeURL(p.State, oauth2.S256ChallengeOption(p.Verifier))
}

// Exchange trades an authorization code for tokens.
func (c *LoginConfig) Exchange(ctx context.Context, code string, p *PKCE) (*Token, error) {
	tok, err := c.OAuth2().Exchange(ctx, code, oauth2.VerifierOption(p.Verifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	token := &Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		token.Scope = scope
	}
	if tok.ExpiresIn > 0 {
		token.ExpiresIn = int(tok.ExpiresIn)
	}
	return token, nil
}

// CallbackAddr returns the listen port and path encoded in the redirect URI.
func (c *LoginConfig) CallbackAddr() (port int, path string, err error) {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return 0, "", fmt.Errorf("invalid redirect URI: %w", err)
	}

	_, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return 0, "", fmt.Errorf("redirect URI %q must include a port", c.RedirectURI)
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return 0, "", fmt.Errorf("invalid redirect port %q", portStr)
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return port, path, nil
}
