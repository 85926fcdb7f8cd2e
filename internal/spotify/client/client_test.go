package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/auth"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params map[string]string
		want   string
	}{
		{"no params", "/me", nil, "/me"},
		{"empty params", "/me", map[string]string{}, "/me"},
		{"single param", "/search", map[string]string{"q": "test"}, "/search?q=test"},
		{"multiple params", "/search", map[string]string{"q": "test", "type": "track"}, "/search?q=test&type=track"},
		{"escaping", "/search", map[string]string{"q": "a b"}, "/search?q=a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.path, tt.params); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{}
	err.ErrorInfo.Status = 401
	err.ErrorInfo.Message = "Invalid access token"

	expected := "Spotify API error 401: Invalid access token"
	if got := err.Error(); got != expected {
		t.Errorf("Error() = %q, want %q", got, expected)
	}
	if IsNoActiveDeviceError(err) {
		t.Error("401 is not a no-active-device error")
	}

	err.ErrorInfo.Status = 404
	if !IsNoActiveDeviceError(err) {
		t.Error("404 should be a no-active-device error")
	}
	if IsAlreadyPlayingError(errors.New("other")) {
		t.Error("plain errors are never already-playing errors")
	}
}

// fakeRefresher sets a fixed token, or fails.
type fakeRefresher struct {
	token string
	err   error
	calls atomic.Int32
}

func (f *fakeRefresher) Refresh(ctx context.Context, creds *auth.Credentials) (*auth.Token, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	creds.Set(auth.Update{AccessToken: auth.String(f.token)})
	return &auth.Token{AccessToken: f.token}, nil
}

func newTestClient(t *testing.T, handler http.Handler, r Refresher) (*Client, *auth.Credentials) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	creds := auth.NewCredentials(auth.Update{
		AccessToken:  auth.String("old"),
		RefreshToken: auth.String("refresh"),
		ClientID:     auth.String("id"),
		ClientSecret: auth.String("secret"),
	})
	return New(creds, WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithRefresher(r)), creds
}

func TestDoSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer old" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}), &fakeRefresher{})

	resp := c.Get(context.Background(), "/me")
	if !resp.OK() || resp.Status != 200 || resp.StatusText != "OK" {
		t.Fatalf("Get() = %+v", resp)
	}
	if string(resp.Data) != `{"id":"u1"}` {
		t.Errorf("Data = %s", resp.Data)
	}
}

func TestDoRetriesOnceAfterRefresh(t *testing.T) {
	var calls atomic.Int32
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		switch n {
		case 1:
			if got := r.Header.Get("Authorization"); got != "Bearer old" {
				t.Errorf("first call Authorization = %q", got)
			}
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
		default:
			if got := r.Header.Get("Authorization"); got != "Bearer fresh" {
				t.Errorf("retry Authorization = %q, want Bearer fresh", got)
			}
			_, _ = w.Write([]byte(`{"id":"u1"}`))
		}
	}), &fakeRefresher{token: "fresh"})

	resp := c.Get(context.Background(), "/me")
	if !resp.OK() {
		t.Fatalf("Get() = %+v, want success after refresh", resp)
	}
	if calls.Load() != 2 {
		t.Errorf("API calls = %d, want 2", calls.Load())
	}
	if creds.AccessToken() != "fresh" {
		t.Errorf("AccessToken() = %q, want fresh", creds.AccessToken())
	}
}

func TestDoSecondUnauthorizedReturnedAsIs(t *testing.T) {
	var calls atomic.Int32
	refresher := &fakeRefresher{token: "fresh"}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
	}), refresher)

	resp := c.Get(context.Background(), "/me")
	if resp.OK() || resp.Status != http.StatusUnauthorized {
		t.Fatalf("Get() = %+v, want 401", resp)
	}
	if resp.Message != "Invalid access token" {
		t.Errorf("Message = %q", resp.Message)
	}
	if calls.Load() != 2 {
		t.Errorf("API calls = %d, want exactly 2", calls.Load())
	}
	if refresher.calls.Load() != 1 {
		t.Errorf("refreshes = %d, want exactly 1", refresher.calls.Load())
	}
}

func TestDoRefreshFailureReturnsOriginal(t *testing.T) {
	var calls atomic.Int32
	c, creds := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
	}), &fakeRefresher{err: cerrors.ErrRefreshFailed})

	resp := c.Get(context.Background(), "/me")
	if resp.Status != http.StatusUnauthorized || resp.Message != "The access token expired" {
		t.Errorf("Get() = %+v, want the original 401", resp)
	}
	if calls.Load() != 1 {
		t.Errorf("API calls = %d, want 1", calls.Load())
	}
	if creds.AccessToken() != "old" {
		t.Errorf("AccessToken() = %q, want old", creds.AccessToken())
	}
}

func TestDoRefreshPropagatesThroughTokenEndpoint(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Errorf("BasicAuth() = %q, %q, %v", user, pass, ok)
		}
		_, _ = w.Write([]byte(`{"access_token":"from-endpoint","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	var (
		mu   sync.Mutex
		seen []string
	)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer from-endpoint" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	c, creds := newTestClient(t, api, auth.NewRefresher(tokenServer.URL, tokenServer.Client(), nil))

	resp := c.Put(context.Background(), "/me/player/pause", nil)
	if !resp.OK() || resp.Status != http.StatusNoContent {
		t.Fatalf("Put() = %+v", resp)
	}
	if resp.Data != nil {
		t.Errorf("Data = %s, want nil for 204", resp.Data)
	}
	if tokenCalls.Load() != 1 {
		t.Errorf("token calls = %d, want 1", tokenCalls.Load())
	}
	if creds.AccessToken() != "from-endpoint" {
		t.Errorf("AccessToken() = %q", creds.AccessToken())
	}
	want := []string{"Bearer old", "Bearer from-endpoint"}
	mu.Lock()
	defer mu.Unlock()
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Errorf("Authorization headers = %v, want %v", seen, want)
	}
}

func TestRefreshedTokenUsedByLaterCalls(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string][]string{}
	)
	refresher := &fakeRefresher{token: "fresh"}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = append(seen[r.URL.Path], r.Header.Get("Authorization"))
		mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}), refresher)

	ctx := context.Background()
	if resp := c.Get(ctx, "/me"); !resp.OK() {
		t.Fatalf("first call = %+v", resp)
	}
	if resp := c.Get(ctx, "/me/playlists"); !resp.OK() {
		t.Fatalf("second call = %+v", resp)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := seen["/me"]; len(got) != 2 || got[0] != "Bearer old" || got[1] != "Bearer fresh" {
		t.Errorf("/me headers = %v", got)
	}
	if got := seen["/me/playlists"]; len(got) != 1 || got[0] != "Bearer fresh" {
		t.Errorf("/me/playlists headers = %v, want one request with the fresh token", got)
	}
	if refresher.calls.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", refresher.calls.Load())
	}
}

func TestNonStandardStatusHasMessage(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(599)
	}), &fakeRefresher{})

	resp := c.Get(context.Background(), "/me")
	if resp.Status != 599 || resp.State != core.StateFailed {
		t.Fatalf("Get() = %+v", resp)
	}
	want := "request failed with status 599"
	if resp.StatusText != want || resp.Message != want {
		t.Errorf("StatusText = %q, Message = %q, want %q", resp.StatusText, resp.Message, want)
	}
}

func TestDoNoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	refresher := &fakeRefresher{token: "fresh"}
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream</html>"))
	}), refresher)

	resp := c.Get(context.Background(), "/me")
	if resp.Status != http.StatusBadGateway || resp.State != core.StateFailed {
		t.Errorf("Get() = %+v", resp)
	}
	if resp.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want status text fallback", resp.Message)
	}
	if calls.Load() != 1 || refresher.calls.Load() != 0 {
		t.Errorf("calls = %d, refreshes = %d; want 1, 0", calls.Load(), refresher.calls.Load())
	}
}

func TestDoNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := server.URL
	server.Close()

	c := New(auth.NewCredentials(auth.Update{AccessToken: auth.String("t")}), WithBaseURL(base))

	resp := c.Get(context.Background(), "/me")
	if resp.Status != core.StatusNetworkError || resp.StatusText != "Network Error" {
		t.Errorf("Get() = %+v, want network error envelope", resp)
	}
	if !errors.Is(resp.Error, cerrors.ErrNetworkError) {
		t.Errorf("Error = %v, want ErrNetworkError", resp.Error)
	}
}

func TestDoSendsJSONBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		var body CreatePlaylistRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Name != "cody-favs" {
			t.Errorf("Name = %q", body.Name)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1","name":"cody-favs"}`))
	}), &fakeRefresher{})

	resp := c.CreatePlaylist(context.Background(), "u1", CreatePlaylistRequest{Name: "cody-favs"})
	decoded := Decode[Playlist](resp)
	if !decoded.OK() || decoded.Status != http.StatusCreated || decoded.Data.ID != "p1" {
		t.Errorf("Decode() = %+v", decoded)
	}
}

func TestDecode(t *testing.T) {
	ok := core.Success(200, json.RawMessage(`{"id":"u1","display_name":"Ada"}`))
	user := Decode[User](ok)
	if !user.OK() || user.Data.DisplayName != "Ada" {
		t.Errorf("Decode() = %+v", user)
	}

	bad := core.Success(200, json.RawMessage(`{"id":`))
	if got := Decode[User](bad); got.OK() {
		t.Error("Decode() of malformed JSON should fail")
	}

	empty := core.Success[json.RawMessage](204, nil)
	if got := Decode[*PlaybackState](empty); !got.OK() || got.Data != nil {
		t.Errorf("Decode() of empty body = %+v", got)
	}

	failedResp := failed(404, []byte(`{"error":{"status":404,"message":"Not found."}}`))
	got := Decode[User](failedResp)
	if got.OK() || got.Status != 404 || got.Message != "Not found." {
		t.Errorf("Decode() of failure = %+v", got)
	}
}

func TestWithRateLimit(t *testing.T) {
	c := New(auth.NewCredentials(auth.Update{}), WithRateLimit(0))
	if c.limiter != nil {
		t.Error("zero rate should disable limiting")
	}

	c = New(auth.NewCredentials(auth.Update{}), WithRateLimit(0.5))
	if c.limiter == nil || c.limiter.Burst() != 1 {
		t.Errorf("limiter = %v, want burst 1", c.limiter)
	}
}

func TestResolve(t *testing.T) {
	c := New(auth.NewCredentials(auth.Update{}), WithBaseURL("http://api.test/v1/"))

	tests := []struct {
		path string
		want string
	}{
		{"/me", "http://api.test/v1/me"},
		{"me", "http://api.test/v1/me"},
		{"https://other.test/x", "https://other.test/x"},
	}
	for _, tt := range tests {
		if got := c.resolve(tt.path); got != tt.want {
			t.Errorf("resolve(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func ExampleBuildURL() {
	fmt.Println(BuildURL("/me/player/pause", map[string]string{"device_id": "abc"}))
	// Output: /me/player/pause?device_id=abc
}
