package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/desertthunder/vibecast/internal/shared"
)

// SearchTrack asks the catalog for the single best match of name by artist.
//
// Returns [shared.ErrTrackNotFound] when the search has no results.
func (s *SpotifyClient) SearchTrack(ctx context.Context, name, artist, token string) (*SearchHit, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: track name", shared.ErrMissingArgument)
	}

	q := "track:" + name
	if artist != "" {
		q += " artist:" + artist
	}

	query := url.Values{}
	query.Set("q", q)
	query.Set("type", "track")
	query.Set("limit", "1")

	var body struct {
		Tracks struct {
			Items []spotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.get(ctx, "search", s.endpoint(query, "search"), token, &body); err != nil {
		return nil, err
	}

	if len(body.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w: %q by %q", shared.ErrTrackNotFound, name, artist)
	}

	top := body.Tracks.Items[0]
	hit := &SearchHit{
		ID:      top.ID,
		Name:    top.Name,
		Artists: top.artistNames(),
	}
	if len(top.Album.Images) > 0 {
		hit.CoverArt = top.Album.Images[0].URL
	}
	if top.PreviewURL != nil {
		hit.PreviewURL = *top.PreviewURL
	}
	return hit, nil
}
