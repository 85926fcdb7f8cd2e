package auth

import "sync"

// Update is a partial credential change. Nil fields are left unchanged.
type Update struct {
	AccessToken  *string
	RefreshToken *string
	ClientID     *string
	ClientSecret *string
}

// String returns a pointer to s, for building an Update.
func String(s string) *string {
	return &s
}

// Snapshot is a point-in-time copy of the stored credentials.
type Snapshot struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// CanRefresh reports whether a refresh grant can be attempted.
func (s Snapshot) CanRefresh() bool {
	return s.RefreshToken != "" && s.ClientID != "" && s.ClientSecret != ""
}

// Configured reports whether any way to authenticate exists.
func (s Snapshot) Configured() bool {
	return s.AccessToken != "" || s.RefreshToken != ""
}

// Credentials is the in-memory credential store shared by every API call.
// It is never written to disk.
type Credentials struct {
	mu sync.RWMutex
	s  Snapshot
}

// NewCredentials creates a store seeded with the given values.
func NewCredentials(u Update) *Credentials {
	c := &Credentials{}
	c.Set(u)
	return c
}

// Set applies every non-nil field of u.
func (c *Credentials) Set(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.AccessToken != nil {
		c.s.AccessToken = *u.AccessToken
	}
	if u.RefreshToken != nil {
		c.s.RefreshToken = *u.RefreshToken
	}
	if u.ClientID != nil {
		c.s.ClientID = *u.ClientID
	}
	if u.ClientSecret != nil {
		c.s.ClientSecret = *u.ClientSecret
	}
}

// AccessToken returns the current access token.
func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s.AccessToken
}

// Snapshot returns a copy of all stored values.
func (c *Credentials) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.s
}

// Configured reports whether an access token or a refresh token is present.
func (c *Credentials) Configured() bool {
	return c.Snapshot().Configured()
}
