package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tessro/cody/internal/cache"
	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/auth"
	"github.com/tessro/cody/internal/spotify/client"
)

// fakeAPI is a scripted Spotify API that records every request.
type fakeAPI struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []recorded
	routes   map[string]http.HandlerFunc
}

type recorded struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{t: t, routes: make(map[string]http.HandlerFunc)}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// handle registers a handler for "METHOD /path".
func (f *fakeAPI) handle(route string, h http.HandlerFunc) {
	f.routes[route] = h
}

// reply registers a handler answering with a fixed status and body.
func (f *fakeAPI) reply(route string, status int, body string) {
	f.handle(route, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"status":404,"message":"Not found."}}`)
		return
	}
	h(w, r)
}

func (f *fakeAPI) calls(method, path string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []recorded
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type services struct {
	api       *fakeAPI
	cache     *cache.Cache
	creds     *auth.Credentials
	profiles  *Profiles
	playlists *Playlists
	tracks    *Tracks
}

func newServices(t *testing.T) *services {
	t.Helper()

	api := newFakeAPI(t)
	creds := auth.NewCredentials(auth.Update{
		AccessToken:  auth.String("token"),
		RefreshToken: auth.String("refresh"),
		ClientID:     auth.String("id"),
		ClientSecret: auth.String("secret"),
	})
	c := client.New(creds, client.WithBaseURL(api.server.URL), client.WithHTTPClient(api.server.Client()))
	cc := cache.New()
	profiles := NewProfiles(c, cc, 0)

	return &services{
		api:       api,
		cache:     cc,
		creds:     creds,
		profiles:  profiles,
		playlists: NewPlaylists(c, cc, profiles, 0),
		tracks:    NewTracks(c),
	}
}

func trackJSON(id, name string, artists ...string) string {
	as := make([]string, len(artists))
	for i, a := range artists {
		as[i] = fmt.Sprintf(`{"id":"a%d","name":%q}`, i, a)
	}
	return fmt.Sprintf(`{"id":%q,"name":%q,"uri":"spotify:track:%s","duration_ms":215000,"artists":[%s],"album":{"name":"Album","images":[{"url":"https://img/1"}]}}`,
		id, name, id, strings.Join(as, ","))
}

func TestListOptionsNormalize(t *testing.T) {
	tests := []struct {
		name       string
		opts       ListOptions
		max        int
		wantLimit  int
		wantOffset int
		wantMax    int
	}{
		{"defaults", ListOptions{}, 50, 20, 0, 20},
		{"clamped high", ListOptions{Limit: 500}, 50, 50, 0, 50},
		{"negative", ListOptions{Limit: -3, Offset: -1}, 50, 20, 0, 20},
		{"in range", ListOptions{Limit: 7, Offset: 14}, 100, 7, 14, 7},
		{"all unbounded", ListOptions{All: true}, 50, 20, 0, 0},
		{"all with max", ListOptions{All: true, Limit: 50, Max: 120}, 50, 50, 0, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, max := tt.opts.normalize(tt.max)
			if params.Limit != tt.wantLimit || params.Offset != tt.wantOffset || max != tt.wantMax {
				t.Errorf("normalize() = %+v, %d; want limit %d offset %d max %d",
					params, max, tt.wantLimit, tt.wantOffset, tt.wantMax)
			}
		})
	}
}

func TestExtractIDs(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"bare track", TrackID, "4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"track uri", TrackID, "spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"track link", TrackID, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc", "4uLU6hMCjMI75M1A2tKUQC"},
		{"localized link", TrackID, "https://open.spotify.com/intl-de/track/4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"track to uri", TrackURI, " 4uLU6hMCjMI75M1A2tKUQC ", "spotify:track:4uLU6hMCjMI75M1A2tKUQC"},
		{"uri to uri", TrackURI, "spotify:track:abc", "spotify:track:abc"},
		{"playlist link", PlaylistID, "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=xxx", "37i9dQZF1DXcBWIGoYBM5M"},
		{"playlist uri", PlaylistID, "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChunk(t *testing.T) {
	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}

	chunks := chunk(ids, 100)
	if len(chunks) != 3 {
		t.Fatalf("chunk() = %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 100 || len(chunks[1]) != 100 || len(chunks[2]) != 50 {
		t.Errorf("chunk sizes = %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if chunks[2][0] != "200" {
		t.Errorf("third chunk starts at %q", chunks[2][0])
	}
	if got := chunk(nil, 100); len(got) != 0 {
		t.Errorf("chunk(nil) = %v", got)
	}
}

func TestConvertTrack(t *testing.T) {
	var wire client.Track
	if err := json.Unmarshal([]byte(trackJSON("t1", "Teardrop", "Massive Attack", "Elizabeth Fraser")), &wire); err != nil {
		t.Fatal(err)
	}

	got := ConvertTrack(&wire)
	if got.Artist != "Massive Attack, Elizabeth Fraser" {
		t.Errorf("Artist = %q", got.Artist)
	}
	if got.DurationMS != 215000 || got.Duration.Seconds() != 215 {
		t.Errorf("Duration = %v / %d", got.Duration, got.DurationMS)
	}
	if got.Album != "Album" || got.ImageURL != "https://img/1" {
		t.Errorf("Album = %q, ImageURL = %q", got.Album, got.ImageURL)
	}
	if got.Source != core.SourceSpotify {
		t.Errorf("Source = %q", got.Source)
	}
	if ConvertTrack(nil) != nil {
		t.Error("ConvertTrack(nil) should be nil")
	}
}

func TestMissingCredentialsShortCircuit(t *testing.T) {
	s := newServices(t)
	s.creds.Set(auth.Update{AccessToken: auth.String(""), RefreshToken: auth.String("")})
	ctx := context.Background()

	checks := map[string]core.Response[struct{}]{
		"me":        core.Convert[*core.UserProfile, struct{}](s.profiles.Me(ctx)),
		"playlists": core.Convert[[]core.Playlist, struct{}](s.playlists.List(ctx, ListOptions{})),
		"saved":     core.Convert[[]core.PlaylistItem, struct{}](s.tracks.Saved(ctx, ListOptions{})),
		"search":    core.Convert[[]core.Track, struct{}](s.tracks.Search(ctx, "query", ListOptions{})),
		"add":       core.Convert[string, struct{}](s.playlists.AddTracks(ctx, "p1", []string{"t1"}, nil)),
	}

	for name, resp := range checks {
		if resp.Status != http.StatusUnauthorized || resp.State != core.StateFailed {
			t.Errorf("%s: got %d %s, want 401 Failed", name, resp.Status, resp.State)
		}
		if resp.Message != "Spotify credentials are not configured" {
			t.Errorf("%s: Message = %q", name, resp.Message)
		}
	}
	if s.api.total() != 0 {
		t.Errorf("made %d requests, want none", s.api.total())
	}
}
