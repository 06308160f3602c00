package services

import (
	"context"
	"fmt"
	"iter"
	"net/url"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/shared"
)

// pageSize is the largest page the playlist items endpoint serves.
const pageSize = 100

// trackFields limits page payloads to what the pipeline reads.
const trackFields = "items(track(id,name,artists(name))),next"

type playlistItem struct {
	Track *spotifyTrack `json:"track"`
}

type playlistTracksPage struct {
	Items []playlistItem `json:"items"`
	Next  *string        `json:"next"`
}

// tracks drops removed or unavailable entries (null track, or local files without an id).
func (p playlistTracksPage) tracks() []models.Track {
	tracks := make([]models.Track, 0, len(p.Items))
	for _, item := range p.Items {
		if item.Track == nil || item.Track.ID == "" {
			continue
		}
		tracks = append(tracks, models.Track{
			ID:      item.Track.ID,
			Name:    item.Track.Name,
			Artists: item.Track.artistNames(),
		})
	}
	return tracks
}

func (s *SpotifyClient) firstTracksURL(playlistID string) string {
	query := url.Values{}
	query.Set("fields", trackFields)
	query.Set("limit", fmt.Sprint(pageSize))
	return s.endpoint(query, "playlists", playlistID, "tracks")
}

// TrackPages produces the playlist's track pages on demand until the provider reports no continuation cursor.
//
// The sequence is finite and not restartable: each page's cursor is only known once the previous page arrived.
// On failure it yields a single error and stops.
func (s *SpotifyClient) TrackPages(ctx context.Context, playlistID, token string) iter.Seq2[[]models.Track, error] {
	return func(yield func([]models.Track, error) bool) {
		if playlistID == "" {
			yield(nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument))
			return
		}

		next := s.firstTracksURL(playlistID)
		for page := 1; next != ""; page++ {
			var body playlistTracksPage
			if err := s.get(ctx, "playlist tracks", next, token, &body); err != nil {
				yield(nil, err)
				return
			}

			next = ""
			if body.Next != nil && *body.Next != "" {
				if err := s.sameOrigin(*body.Next); err != nil {
					yield(nil, &shared.UpstreamError{Op: "playlist tracks", Err: err})
					return
				}
				next = *body.Next
			}

			tracks := body.tracks()
			s.logger.Debug("fetched track page", "page", page, "tracks", len(tracks), "more", next != "")
			if !yield(tracks, nil) {
				return
			}
		}
	}
}

// FetchAllTracks collects every page of [SpotifyClient.TrackPages] in arrival order.
//
// Repeated tracks are kept. An empty playlist yields an empty slice; any page failure discards everything fetched so far.
func (s *SpotifyClient) FetchAllTracks(ctx context.Context, playlistID, token string) ([]models.Track, error) {
	tracks := []models.Track{}
	for page, err := range s.TrackPages(ctx, playlistID, token) {
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, page...)
	}
	return tracks, nil
}
