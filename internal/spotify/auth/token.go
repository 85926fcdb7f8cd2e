package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	cerrors "github.com/tessro/cody/internal/errors"
)

// Token represents Spotify OAuth tokens.
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsExpired returns true if the token has expired or will expire within the buffer.
func (t *Token) IsExpired() bool {
	// Consider token expired 60 seconds before actual expiry
	return time.Now().Add(60 * time.Second).After(t.ExpiresAt)
}

// tokenResponse is the raw response from Spotify's token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// Refresher exchanges the stored refresh token for a new access token and
// writes the result back into the credential store.
type Refresher struct {
	TokenURL   string
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewRefresher creates a refresher against tokenURL (the Spotify endpoint when empty).
func NewRefresher(tokenURL string, httpClient *http.Client, logger *log.Logger) *Refresher {
	if tokenURL == "" {
		tokenURL = SpotifyTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Refresher{TokenURL: tokenURL, HTTPClient: httpClient, Logger: logger}
}

// Refresh performs one refresh_token grant using the client credentials as
// HTTP Basic auth. On success the new access token (and a rotated refresh
// token, if any) is stored in creds.
func (r *Refresher) Refresh(ctx context.Context, creds *Credentials) (*Token, error) {
	snap := creds.Snapshot()
	if !snap.CanRefresh() {
		return nil, fmt.Errorf("%w: refresh token or client credentials missing", cerrors.ErrRefreshFailed)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", snap.RefreshToken)

	token, err := r.requestToken(ctx, data, snap.ClientID, snap.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cerrors.ErrRefreshFailed, err)
	}

	u := Update{AccessToken: String(token.AccessToken)}
	if token.RefreshToken != "" && token.RefreshToken != snap.RefreshToken {
		u.RefreshToken = String(token.RefreshToken)
	}
	creds.Set(u)

	r.Logger.Info("refreshed access token", "expires_in", token.ExpiresIn, "rotated", u.RefreshToken != nil)
	return token, nil
}

func (r *Refresher) requestToken(ctx context.Context, data url.Values, clientID, clientSecret string) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if tokenResp.Error != "" {
		return nil, fmt.Errorf("token error: %s - %s", tokenResp.Error, tokenResp.ErrorDesc)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response has no access_token")
	}

	return &Token{
		AccessToken:  tokenResp.AccessToken,
		TokenType:    tokenResp.TokenType,
		Scope:        tokenResp.Scope,
		ExpiresIn:    tokenResp.ExpiresIn,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}, nil
}
