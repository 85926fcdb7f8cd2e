package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/tessro/cody/internal/core"
)

const playlistsPage = `{
	"items": [
		{"id":"p1","name":"cody-favs","uri":"spotify:playlist:p1","owner":{"id":"u1","display_name":"Ada"},"tracks":{"total":12}},
		{"id":"p2","name":"Road Trip","uri":"spotify:playlist:p2","owner":{"id":"u1"},"tracks":{"total":40}}
	],
	"next": null, "total": 2, "limit": 50, "offset": 0
}`

func TestCreateRejectsDuplicateName(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)
	s.api.reply("GET /me", http.StatusOK, `{"id":"u1"}`)

	resp := s.playlists.Create(context.Background(), "cody-favs", false, "")

	if resp.State != core.StateFailed || resp.Status != http.StatusInternalServerError {
		t.Fatalf("Create() = %d %s, want 500 Failed", resp.Status, resp.State)
	}
	if resp.Message != "The playlist 'cody-favs' already exists" {
		t.Errorf("Message = %q", resp.Message)
	}
	if n := len(s.api.calls(http.MethodPost, "/users/u1/playlists")); n != 0 {
		t.Errorf("create endpoint called %d times, want 0", n)
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	s := newServices(t)

	resp := s.playlists.Create(context.Background(), "  ", true, "")
	if resp.Status != http.StatusInternalServerError || resp.OK() {
		t.Errorf("Create() = %+v", resp)
	}
	if s.api.total() != 0 {
		t.Errorf("made %d requests, want none", s.api.total())
	}
}

func TestCreate(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)
	s.api.reply("GET /me", http.StatusOK, `{"id":"u1","display_name":"Ada"}`)
	s.api.reply("POST /users/u1/playlists", http.StatusCreated, `{"id":"p3","name":"New Mix","owner":{"id":"u1"},"public":false}`)

	ctx := context.Background()
	resp := s.playlists.Create(ctx, "New Mix", false, "made by cody")
	if !resp.OK() || resp.Status != http.StatusCreated {
		t.Fatalf("Create() = %+v", resp)
	}
	if resp.Data.ID != "p3" || resp.Data.Name != "New Mix" {
		t.Errorf("Data = %+v", resp.Data)
	}

	posts := s.api.calls(http.MethodPost, "/users/u1/playlists")
	if len(posts) != 1 {
		t.Fatalf("create calls = %d, want 1", len(posts))
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(posts[0].Body), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "New Mix" || body["public"] != false || body["description"] != "made by cody" {
		t.Errorf("body = %v", body)
	}

	// The listing was invalidated, so the next List refetches.
	s.playlists.List(ctx, ListOptions{All: true})
	if n := len(s.api.calls(http.MethodGet, "/me/playlists")); n != 2 {
		t.Errorf("listing fetched %d times, want 2", n)
	}
}

func TestListCachesFullListing(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)
	ctx := context.Background()

	first := s.playlists.List(ctx, ListOptions{All: true})
	if !first.OK() || len(first.Data) != 2 {
		t.Fatalf("List() = %+v", first)
	}

	second := s.playlists.List(ctx, ListOptions{Limit: 1, Offset: 1})
	if !second.OK() || len(second.Data) != 1 || second.Data[0].Name != "Road Trip" {
		t.Errorf("List() from cache = %+v", second.Data)
	}

	if n := len(s.api.calls(http.MethodGet, "/me/playlists")); n != 1 {
		t.Errorf("listing fetched %d times, want 1", n)
	}

	calls := s.api.calls(http.MethodGet, "/me/playlists")
	if !strings.Contains(calls[0].Query, "limit=50") {
		t.Errorf("full listing should use the page maximum, query = %q", calls[0].Query)
	}
}

func TestListSinglePage(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)

	resp := s.playlists.List(context.Background(), ListOptions{Limit: 5, Offset: 10})
	if !resp.OK() || len(resp.Data) != 2 {
		t.Fatalf("List() = %+v", resp)
	}
	q := s.api.calls(http.MethodGet, "/me/playlists")[0].Query
	if !strings.Contains(q, "limit=5") || !strings.Contains(q, "offset=10") {
		t.Errorf("query = %q", q)
	}
	if _, ok := s.cache.Get(KeyPlaylists); ok {
		t.Error("a single page must not be cached as the full listing")
	}
}

func TestFindByNameAndResolve(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)
	ctx := context.Background()

	if got := s.playlists.FindByName(ctx, "road trip"); !got.OK() || got.Data.ID != "p2" {
		t.Errorf("FindByName() = %+v", got)
	}
	if got := s.playlists.FindByName(ctx, "missing"); got.OK() || got.Status != http.StatusNotFound {
		t.Errorf("FindByName(missing) = %+v", got)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=x", "37i9dQZF1DXcBWIGoYBM5M"},
		{"spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M"},
		{"37i9dQZF1DXcBWIGoYBM5M", "37i9dQZF1DXcBWIGoYBM5M"},
		{"cody-favs", "p1"},
	}
	for _, tt := range tests {
		if got := s.playlists.Resolve(ctx, tt.ref); !got.OK() || got.Data != tt.want {
			t.Errorf("Resolve(%q) = %+v, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestAddTracksWithoutIDs(t *testing.T) {
	s := newServices(t)

	for _, ids := range [][]string{nil, {}, {"", "  "}} {
		resp := s.playlists.AddTracks(context.Background(), "p1", ids, nil)
		if resp.State != core.StateFailed || resp.Status != http.StatusInternalServerError {
			t.Errorf("AddTracks(%q) = %d %s, want 500 Failed", ids, resp.Status, resp.State)
		}
	}
	if s.api.total() != 0 {
		t.Errorf("made %d requests, want none", s.api.total())
	}
}

func TestAddTracksChunks(t *testing.T) {
	s := newServices(t)
	var n atomic.Int32
	s.api.handle("POST /playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"snapshot_id":"snap%d"}`, n.Add(1))
	})

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%03d", i)
	}
	pos := 5
	resp := s.playlists.AddTracks(context.Background(), "spotify:playlist:p1", ids, &pos)
	if !resp.OK() || resp.Data != "snap3" {
		t.Fatalf("AddTracks() = %+v", resp)
	}

	calls := s.api.calls(http.MethodPost, "/playlists/p1/tracks")
	if len(calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(calls))
	}

	wantSizes := []int{100, 100, 50}
	wantPos := []float64{5, 105, 205}
	for i, c := range calls {
		var body struct {
			URIs     []string `json:"uris"`
			Position float64  `json:"position"`
		}
		if err := json.Unmarshal([]byte(c.Body), &body); err != nil {
			t.Fatal(err)
		}
		if len(body.URIs) != wantSizes[i] || body.Position != wantPos[i] {
			t.Errorf("chunk %d: %d uris at %v, want %d at %v", i, len(body.URIs), body.Position, wantSizes[i], wantPos[i])
		}
		if !strings.HasPrefix(body.URIs[0], "spotify:track:id") {
			t.Errorf("uri = %q", body.URIs[0])
		}
	}
}

func TestAddTracksStopsOnFailedChunk(t *testing.T) {
	s := newServices(t)
	s.api.reply("POST /playlists/p1/tracks", http.StatusForbidden, `{"error":{"status":403,"message":"You cannot add tracks to a playlist you don't own."}}`)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = "t"
	}
	resp := s.playlists.AddTracks(context.Background(), "p1", ids, nil)
	if resp.OK() || resp.Status != http.StatusForbidden {
		t.Errorf("AddTracks() = %+v", resp)
	}
	if n := len(s.api.calls(http.MethodPost, "/playlists/p1/tracks")); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestReplaceAndRemoveTracks(t *testing.T) {
	s := newServices(t)
	s.api.reply("PUT /playlists/p1/tracks", http.StatusOK, `{"snapshot_id":"r1"}`)
	s.api.reply("DELETE /playlists/p1/tracks", http.StatusOK, `{"snapshot_id":"d1"}`)
	ctx := context.Background()

	if resp := s.playlists.ReplaceTracks(ctx, "p1", nil); !resp.OK() || resp.Data != "r1" {
		t.Errorf("ReplaceTracks(nil) = %+v", resp)
	}
	put := s.api.calls(http.MethodPut, "/playlists/p1/tracks")
	if len(put) != 1 || put[0].Body != `{"uris":[]}` {
		t.Errorf("clear body = %+v", put)
	}

	tooMany := make([]string, 101)
	for i := range tooMany {
		tooMany[i] = "t"
	}
	if resp := s.playlists.ReplaceTracks(ctx, "p1", tooMany); resp.Status != http.StatusInternalServerError {
		t.Errorf("ReplaceTracks(101) = %+v", resp)
	}

	if resp := s.playlists.RemoveTracks(ctx, "p1", nil); resp.Status != http.StatusInternalServerError {
		t.Errorf("RemoveTracks(nil) = %+v", resp)
	}
	if resp := s.playlists.RemoveTracks(ctx, "p1", []string{"abc"}); !resp.OK() || resp.Data != "d1" {
		t.Errorf("RemoveTracks() = %+v", resp)
	}
	del := s.api.calls(http.MethodDelete, "/playlists/p1/tracks")
	if len(del) != 1 || del[0].Body != `{"tracks":[{"uri":"spotify:track:abc"}]}` {
		t.Errorf("remove body = %+v", del)
	}
}

func TestDeleteAndFollowInvalidate(t *testing.T) {
	s := newServices(t)
	s.api.reply("DELETE /playlists/p1/followers", http.StatusOK, "")
	s.api.reply("PUT /playlists/p2/followers", http.StatusOK, "")
	ctx := context.Background()

	s.cache.Set(KeyPlaylists, []core.Playlist{{ID: "p1"}}, DefaultPlaylistsTTL)
	if resp := s.playlists.Delete(ctx, "p1"); !resp.OK() {
		t.Fatalf("Delete() = %+v", resp)
	}
	if _, ok := s.cache.Get(KeyPlaylists); ok {
		t.Error("Delete should invalidate the listing")
	}

	s.cache.Set(KeyPlaylists, []core.Playlist{{ID: "p1"}}, DefaultPlaylistsTTL)
	if resp := s.playlists.Follow(ctx, "p2", true); !resp.OK() {
		t.Fatalf("Follow() = %+v", resp)
	}
	if _, ok := s.cache.Get(KeyPlaylists); ok {
		t.Error("Follow should invalidate the listing")
	}

	put := s.api.calls(http.MethodPut, "/playlists/p2/followers")
	if len(put) != 1 || put[0].Body != `{"public":true}` {
		t.Errorf("follow body = %+v", put)
	}
}

func TestPlaylistTracks(t *testing.T) {
	s := newServices(t)
	s.api.handle("GET /playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[
			{"added_at":"2024-05-01T10:00:00Z","added_by":{"id":"u1"},"track":%s},
			{"added_at":"2024-05-02T10:00:00Z","track":null},
			{"added_at":"2024-05-03T10:00:00Z","is_local":true,"track":%s}
		],"next":null,"total":3}`, trackJSON("t1", "One", "A"), trackJSON("", "Local File", "B"))
	})

	resp := s.playlists.Tracks(context.Background(), "p1", ListOptions{Limit: 500})
	if !resp.OK() {
		t.Fatalf("Tracks() = %+v", resp)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("got %d items, want 2 (null track skipped)", len(resp.Data))
	}
	if resp.Data[0].AddedBy != "u1" || resp.Data[0].AddedAt.Day() != 1 {
		t.Errorf("item 0 = %+v", resp.Data[0])
	}
	if !resp.Data[1].Track.IsLocal {
		t.Error("local flag should carry over")
	}
	if q := s.api.calls(http.MethodGet, "/playlists/p1/tracks")[0].Query; !strings.Contains(q, "limit=100") {
		t.Errorf("limit not clamped to 100: %q", q)
	}
}

func TestCachedValuesAreCopies(t *testing.T) {
	s := newServices(t)
	s.api.reply("GET /me/playlists", http.StatusOK, playlistsPage)
	s.api.reply("GET /me", http.StatusOK, `{"id":"u1"}`)
	ctx := context.Background()

	listed := s.playlists.List(ctx, ListOptions{All: true})
	if !listed.OK() || len(listed.Data) != 2 {
		t.Fatalf("List() = %+v", listed)
	}
	listed.Data[0].Name = "renamed"

	found := s.playlists.FindByName(ctx, "Road Trip")
	if !found.OK() {
		t.Fatalf("FindByName() = %+v", found)
	}
	found.Data.Name = "renamed too"

	me := s.profiles.Me(ctx)
	if !me.OK() {
		t.Fatalf("Me() = %+v", me)
	}
	me.Data.ID = "someone-else"

	if got := s.profiles.Me(ctx).Data.ID; got != "u1" {
		t.Errorf("cached profile id = %q, want u1", got)
	}
	again := s.playlists.List(ctx, ListOptions{All: true})
	if again.Data[0].Name != "cody-favs" || again.Data[1].Name != "Road Trip" {
		t.Errorf("cached listing = %+v", again.Data)
	}

	resp := s.playlists.Create(ctx, "cody-favs", false, "")
	if resp.Status != http.StatusInternalServerError {
		t.Errorf("Create() status = %d, want 500", resp.Status)
	}
	if n := len(s.api.calls(http.MethodPost, "/users/someone-else/playlists")) + len(s.api.calls(http.MethodPost, "/users/u1/playlists")); n != 0 {
		t.Errorf("create endpoint called %d times, want 0", n)
	}
}
