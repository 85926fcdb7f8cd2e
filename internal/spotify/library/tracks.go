package library

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/client"
)

// Tracks serves the saved-tracks library, search, top tracks,
// recommendations and audio features.
type Tracks struct {
	client *client.Client
}

// NewTracks creates the track service.
func NewTracks(c *client.Client) *Tracks {
	return &Tracks{client: c}
}

// Saved lists the user's saved tracks, newest first.
func (t *Tracks) Saved(ctx context.Context, opts ListOptions) core.Response[[]core.PlaylistItem] {
	if resp, ok := unconfigured[[]core.PlaylistItem](t.client); ok {
		return resp
	}

	params, maxItems := opts.normalize(maxSavedPage)
	first := t.client.GetSavedTracks(ctx, params)
	return collect(ctx, t.client, first, "", buildSavedTrack, opts.All, maxItems)
}

// Save adds tracks to the library in chunks of 50.
func (t *Tracks) Save(ctx context.Context, trackIDs []string) core.Response[struct{}] {
	return t.modify(ctx, trackIDs, t.client.SaveTracks)
}

// Remove deletes tracks from the library in chunks of 50.
func (t *Tracks) Remove(ctx context.Context, trackIDs []string) core.Response[struct{}] {
	return t.modify(ctx, trackIDs, t.client.RemoveSavedTracks)
}

func (t *Tracks) modify(ctx context.Context, trackIDs []string, call func(context.Context, []string) client.Response) core.Response[struct{}] {
	ids := cleanIDs(trackIDs, TrackID)
	if len(ids) == 0 {
		return invalid[struct{}](cerrors.ErrMissingTrackIDs)
	}
	if resp, ok := unconfigured[struct{}](t.client); ok {
		return resp
	}

	var last client.Response
	for _, batch := range chunk(ids, savedChunk) {
		last = call(ctx, batch)
		if !last.OK() {
			break
		}
	}
	return carry[struct{}](last)
}

// Contains reports, per id, whether the track is in the library.
func (t *Tracks) Contains(ctx context.Context, trackIDs []string) core.Response[map[string]bool] {
	ids := cleanIDs(trackIDs, TrackID)
	if len(ids) == 0 {
		return invalid[map[string]bool](cerrors.ErrMissingTrackIDs)
	}
	if resp, ok := unconfigured[map[string]bool](t.client); ok {
		return resp
	}

	result := make(map[string]bool, len(ids))
	status := http.StatusOK
	for _, batch := range chunk(ids, savedChunk) {
		decoded := client.Decode[[]bool](t.client.ContainsSavedTracks(ctx, batch))
		if !decoded.OK() {
			return core.Convert[[]bool, map[string]bool](decoded)
		}
		status = decoded.Status
		for i, id := range batch {
			result[id] = i < len(decoded.Data) && decoded.Data[i]
		}
	}
	return core.Success(status, result)
}

// Search finds tracks matching query.
func (t *Tracks) Search(ctx context.Context, query string, opts ListOptions) core.Response[[]core.Track] {
	if strings.TrimSpace(query) == "" {
		return invalid[[]core.Track](cerrors.ErrEmptyQuery)
	}
	if resp, ok := unconfigured[[]core.Track](t.client); ok {
		return resp
	}

	params, maxItems := opts.normalize(maxSearchPage)
	first := t.client.Search(ctx, client.SearchOptions{
		Query:      query,
		Types:      []client.SearchType{client.SearchTypeTrack},
		PageParams: params,
	})
	return collect(ctx, t.client, first, "tracks", buildTrack, opts.All, maxItems)
}

// TimeRange is the affinity window of the top-tracks endpoint.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// ParseTimeRange accepts "short", "medium", "long" or the API names.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium", "medium_term":
		return MediumTerm, nil
	case "short", "short_term":
		return ShortTerm, nil
	case "long", "long_term":
		return LongTerm, nil
	}
	return "", fmt.Errorf("unknown time range %q (want short, medium or long)", s)
}

// TopOptions controls the top-tracks listing.
type TopOptions struct {
	ListOptions
	TimeRange TimeRange
}

// Top lists the user's most played tracks.
func (t *Tracks) Top(ctx context.Context, opts TopOptions) core.Response[[]core.Track] {
	if resp, ok := unconfigured[[]core.Track](t.client); ok {
		return resp
	}

	params, maxItems := opts.normalize(maxTopPage)
	first := t.client.GetTopTracks(ctx, string(opts.TimeRange), params)
	return collect(ctx, t.client, first, "", buildTrack, opts.All, maxItems)
}

// RecommendationOptions seeds a recommendation request. Between one and
// five seeds are required across all three lists.
type RecommendationOptions struct {
	SeedTracks  []string
	SeedArtists []string
	SeedGenres  []string
	Limit       int
	// Target holds tunable attributes such as "target_energy" or "min_tempo".
	Target map[string]float64
}

// Recommendations returns tracks similar to the given seeds.
func (t *Tracks) Recommendations(ctx context.Context, opts RecommendationOptions) core.Response[[]core.Track] {
	tracks := cleanIDs(opts.SeedTracks, TrackID)
	artists := cleanIDs(opts.SeedArtists, func(s string) string { return extractID(s, "artist") })
	genres := cleanIDs(opts.SeedGenres, strings.TrimSpace)

	seeds := len(tracks) + len(artists) + len(genres)
	if seeds < 1 || seeds > 5 {
		return invalid[[]core.Track](fmt.Errorf("%w (got %d)", cerrors.ErrInvalidSeeds, seeds))
	}
	if resp, ok := unconfigured[[]core.Track](t.client); ok {
		return resp
	}

	params, _ := ListOptions{Limit: opts.Limit}.normalize(maxItemsPage)
	query := map[string]string{"limit": strconv.Itoa(params.Limit)}
	if len(tracks) > 0 {
		query["seed_tracks"] = strings.Join(tracks, ",")
	}
	if len(artists) > 0 {
		query["seed_artists"] = strings.Join(artists, ",")
	}
	if len(genres) > 0 {
		query["seed_genres"] = strings.Join(genres, ",")
	}
	for k, v := range opts.Target {
		query[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}

	decoded := client.Decode[client.RecommendationsResponse](t.client.GetRecommendations(ctx, query))
	if !decoded.OK() {
		return core.Convert[client.RecommendationsResponse, []core.Track](decoded)
	}

	out := make([]core.Track, 0, len(decoded.Data.Tracks))
	for i := range decoded.Data.Tracks {
		out = append(out, *ConvertTrack(&decoded.Data.Tracks[i]))
	}
	return core.Success(decoded.Status, out)
}

// AudioFeatures fetches audio features for 1 to 100 tracks. Tracks Spotify
// has no analysis for are left out.
func (t *Tracks) AudioFeatures(ctx context.Context, trackIDs []string) core.Response[[]core.AudioFeatures] {
	ids := cleanIDs(trackIDs, TrackID)
	if len(ids) == 0 {
		return invalid[[]core.AudioFeatures](cerrors.ErrMissingTrackIDs)
	}
	if len(ids) > featuresMax {
		return invalid[[]core.AudioFeatures](fmt.Errorf("%w: at most %d tracks per request", cerrors.ErrTooManyIDs, featuresMax))
	}
	if resp, ok := unconfigured[[]core.AudioFeatures](t.client); ok {
		return resp
	}

	decoded := client.Decode[client.AudioFeaturesResponse](t.client.GetAudioFeatures(ctx, ids))
	if !decoded.OK() {
		return core.Convert[client.AudioFeaturesResponse, []core.AudioFeatures](decoded)
	}

	out := make([]core.AudioFeatures, 0, len(decoded.Data.AudioFeatures))
	for _, f := range decoded.Data.AudioFeatures {
		if f == nil {
			continue
		}
		out = append(out, *ConvertAudioFeatures(f))
	}
	return core.Success(decoded.Status, out)
}
