package cody

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tessro/cody/internal/config"
	"github.com/tessro/cody/internal/desktop"
)

// fakeSpotify serves the API under /v1 and the token endpoint under
// /api/token. Only "fresh" is accepted as an access token.
type fakeSpotify struct {
	mu       sync.Mutex
	requests []string
	refresh  int
	server   *httptest.Server
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeSpotify) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/api/token" {
		f.mu.Lock()
		f.refresh++
		f.mu.Unlock()
		if id, secret, ok := r.BasicAuth(); !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		return
	}

	if r.Header.Get("Authorization") != "Bearer fresh" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		return
	}

	switch r.Method + " " + r.URL.Path {
	case "GET /v1/me":
		_, _ = w.Write([]byte(`{"id":"u1","display_name":"Ada","product":"premium"}`))
	case "GET /v1/me/playlists":
		_, _ = w.Write([]byte(`{"items":[{"id":"p1","name":"cody-favs","owner":{"id":"u1"},"tracks":{"total":3}}],"next":null,"total":1}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"status":404,"message":"Not found"}}`))
	}
}

func (f *fakeSpotify) count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == route {
			n++
		}
	}
	return n
}

func newTestCody(t *testing.T, api *fakeSpotify, mutate func(*config.Config)) *Cody {
	t.Helper()
	cfg := config.Default()
	cfg.Spotify.APIBaseURL = api.server.URL + "/v1"
	cfg.Spotify.TokenURL = api.server.URL + "/api/token"
	cfg.Spotify.AccessToken = "stale"
	cfg.Spotify.RefreshToken = "refresh"
	cfg.Spotify.ClientID = "client"
	cfg.Spotify.ClientSecret = "secret"
	if mutate != nil {
		mutate(cfg)
	}

	c := New(cfg, WithHTTPClient(api.server.Client()))
	t.Cleanup(c.Close)
	return c
}

func TestRefreshOnExpiredToken(t *testing.T) {
	api := newFakeSpotify(t)
	c := newTestCody(t, api, nil)

	resp := c.Profiles.Me(context.Background())
	if !resp.OK() {
		t.Fatalf("Me() = %d %s", resp.Status, resp.Message)
	}
	if resp.Data.DisplayName != "Ada" {
		t.Errorf("DisplayName = %q", resp.Data.DisplayName)
	}
	if got := c.AccessToken(); got != "fresh" {
		t.Errorf("AccessToken() = %q, want fresh", got)
	}
	if n := api.count("GET /v1/me"); n != 2 {
		t.Errorf("GET /me sent %d times, want 2", n)
	}

	// The profile is cached now.
	c.Profiles.Me(context.Background())
	if n := api.count("GET /v1/me"); n != 2 {
		t.Errorf("GET /me sent %d times after a cached read, want 2", n)
	}
}

func TestRefreshFailureReturnsOriginal401(t *testing.T) {
	api := newFakeSpotify(t)
	c := newTestCody(t, api, func(cfg *config.Config) { cfg.Spotify.ClientSecret = "wrong" })

	resp := c.Profiles.Me(context.Background())
	if resp.Status != http.StatusUnauthorized {
		t.Fatalf("Status = %d, want 401", resp.Status)
	}
	if resp.Message != "The access token expired" {
		t.Errorf("Message = %q", resp.Message)
	}
	if n := api.count("GET /v1/me"); n != 1 {
		t.Errorf("GET /me sent %d times, want 1", n)
	}
}

func TestCreateDuplicatePlaylist(t *testing.T) {
	api := newFakeSpotify(t)
	c := newTestCody(t, api, func(cfg *config.Config) { cfg.Spotify.AccessToken = "fresh" })

	resp := c.Playlists.Create(context.Background(), "cody-favs", false, "")
	if resp.OK() || resp.Status != http.StatusInternalServerError {
		t.Fatalf("Create() = %d %s, want 500 Failed", resp.Status, resp.State)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope["state"] != "Failed" || envelope["message"] != "The playlist 'cody-favs' already exists" {
		t.Errorf("envelope = %s", data)
	}
	if n := api.count("POST /v1/users/u1/playlists"); n != 0 {
		t.Errorf("create endpoint hit %d times", n)
	}
}

func TestUnconfigured(t *testing.T) {
	api := newFakeSpotify(t)
	c := newTestCody(t, api, func(cfg *config.Config) {
		cfg.Spotify.AccessToken = ""
		cfg.Spotify.RefreshToken = ""
	})

	resp := c.Profiles.Me(context.Background())
	if resp.Status != http.StatusUnauthorized || resp.Message != "Spotify credentials are not configured" {
		t.Errorf("Me() = %d %q", resp.Status, resp.Message)
	}

	c.SetCredentials(Credentials{AccessToken: strPtr("fresh")})
	if resp := c.Profiles.Me(context.Background()); !resp.OK() {
		t.Errorf("Me() after SetCredentials = %d %q", resp.Status, resp.Message)
	}
	if c.AccessToken() != "fresh" {
		t.Errorf("AccessToken() = %q", c.AccessToken())
	}
}

func TestSetCredentialsClearsCache(t *testing.T) {
	api := newFakeSpotify(t)
	c := newTestCody(t, api, func(cfg *config.Config) { cfg.Spotify.AccessToken = "fresh" })

	c.Profiles.Me(context.Background())
	c.SetCredentials(Credentials{RefreshToken: strPtr("other")})
	c.Profiles.Me(context.Background())

	if n := api.count("GET /v1/me"); n != 2 {
		t.Errorf("GET /me sent %d times, want 2", n)
	}
}

func TestDesktopUnsupported(t *testing.T) {
	api := newFakeSpotify(t)
	c := New(config.Default(),
		WithHTTPClient(api.server.Client()),
		WithDesktopOptions(desktop.WithOS("plan9")),
	)
	defer c.Close()

	resp := c.RunPlayerCommand(context.Background(), "Spotify", "play")
	if resp.Status != http.StatusNotImplemented {
		t.Errorf("RunPlayerCommand() status = %d, want 501", resp.Status)
	}
	if !strings.Contains(resp.Message, "not supported") {
		t.Errorf("Message = %q", resp.Message)
	}

	running, err := c.IsProcessRunning(context.Background(), "Spotify")
	if running || err != nil {
		t.Errorf("IsProcessRunning() = %v, %v", running, err)
	}
	if err := c.KillProcess(context.Background(), "Spotify"); err != nil {
		t.Errorf("KillProcess() = %v", err)
	}
	if caps := c.Capabilities(); caps.CanDetect || caps.CanScript {
		t.Errorf("Capabilities() = %+v", caps)
	}
}

func TestNewWithoutConfig(t *testing.T) {
	api := newFakeSpotify(t)
	c := New(nil,
		WithHTTPClient(api.server.Client()),
		WithAPIBaseURL(api.server.URL+"/v1"),
		WithTokenURL(api.server.URL+"/api/token"),
		WithCacheTTL(time.Minute, 0, 0),
	)
	defer c.Close()

	c.SetCredentials(Credentials{
		AccessToken:  strPtr("stale"),
		RefreshToken: strPtr("refresh"),
		ClientID:     strPtr("client"),
		ClientSecret: strPtr("secret"),
	})

	resp := c.Profiles.Me(context.Background())
	if !resp.OK() || resp.Data.ID != "u1" {
		t.Fatalf("Me() = %d %q", resp.Status, resp.Message)
	}
	if c.AccessToken() != "fresh" {
		t.Errorf("AccessToken() = %q, want fresh", c.AccessToken())
	}
}

func TestNewLeavesConfigUntouched(t *testing.T) {
	cfg := &config.Config{}
	c := New(cfg, WithAPIBaseURL("http://127.0.0.1:1/v1"))
	defer c.Close()

	if cfg.Spotify.APIBaseURL != "" || cfg.Cache.ProfileTTL != 0 {
		t.Errorf("cfg modified: %+v", cfg)
	}
}

func TestWholeSeconds(t *testing.T) {
	tests := map[time.Duration]int{
		time.Second:             1,
		1500 * time.Millisecond: 2,
		time.Millisecond:        1,
		time.Minute:             60,
	}
	for in, want := range tests {
		if got := wholeSeconds(in); got != want {
			t.Errorf("wholeSeconds(%v) = %d, want %d", in, got, want)
		}
	}
}

func strPtr(s string) *string { return &s }
