// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/shared"
	"golang.org/x/time/rate"
)

const (
	spotifyBaseURL     = "https://api.spotify.com/v1"
	spotifyAccountsURL = "https://accounts.spotify.com"
)

type spotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []spotifyImage `json:"images"`
}

// spotifyTrack is a (possibly field-filtered) track object.
type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	PreviewURL *string         `json:"preview_url"`
}

func (t spotifyTrack) artistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// SpotifyOpts contains configuration options for creating a [SpotifyClient].
type SpotifyOpts struct {
	BaseURL    string        // API root, defaults to https://api.spotify.com/v1
	HTTPClient *http.Client  // defaults to [http.DefaultClient]
	Limiter    *rate.Limiter // optional pacing shared with other clients
	Logger     *log.Logger
}

// SpotifyClient implements [Catalog] against the Spotify Web API.
//
// It holds no credentials: each call is made with the bearer token supplied by the caller.
type SpotifyClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient creates a Spotify catalog client.
func NewSpotifyClient(opts SpotifyOpts) (*SpotifyClient, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid spotify base url %q", shared.ErrInvalidConfig, opts.BaseURL)
	}

	return &SpotifyClient{
		baseURL:    base,
		httpClient: opts.HTTPClient,
		limiter:    opts.Limiter,
		logger:     shared.WithLogger(opts.Logger, "service", "spotify"),
	}, nil
}

func (s *SpotifyClient) Name() string {
	return "Spotify"
}

// endpoint builds an absolute API URL from path segments and query values.
func (s *SpotifyClient) endpoint(query url.Values, segments ...string) string {
	u := *s.baseURL
	u.Path = strings.TrimRight(u.Path, "/")
	for _, seg := range segments {
		u.Path += "/" + seg
	}
	u.RawPath = ""
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// sameOrigin rejects continuation URLs pointing anywhere but the configured API host,
// so the caller's token is never sent elsewhere.
func (s *SpotifyClient) sameOrigin(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid continuation url: %w", err)
	}
	if u.Scheme != s.baseURL.Scheme || u.Host != s.baseURL.Host {
		return fmt.Errorf("continuation url host %q does not match %q", u.Host, s.baseURL.Host)
	}
	return nil
}

// get performs an authenticated GET and decodes the JSON body into out.
//
// Failures are reported as [*shared.UpstreamError] carrying the upstream status when one was received.
func (s *SpotifyClient) get(ctx context.Context, op, rawURL, token string, out any) error {
	if token == "" {
		return fmt.Errorf("%w: missing bearer token", shared.ErrNotAuthenticated)
	}

	if err := pace(ctx, s.limiter); err != nil {
		return &shared.UpstreamError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &shared.UpstreamError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &shared.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		s.logger.Debug("upstream request failed", "op", op, "status", resp.StatusCode)
		return &shared.UpstreamError{Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &shared.UpstreamError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// UserPlaylists retrieves the first page of the token owner's playlists, unmodified.
func (s *SpotifyClient) UserPlaylists(ctx context.Context, token string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("limit", "50")

	var raw json.RawMessage
	if err := s.get(ctx, "user playlists", s.endpoint(query, "me", "playlists"), token, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

type spotifyPlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
	Owner  struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// DecodePlaylists summarizes a raw [SpotifyClient.UserPlaylists] page.
//
// Null entries are skipped. total is the size of the whole collection, which may exceed the page.
func DecodePlaylists(raw json.RawMessage) (playlists []models.Playlist, total int, err error) {
	var page struct {
		Items []*spotifyPlaylist `json:"items"`
		Total int                `json:"total"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, 0, fmt.Errorf("failed to parse playlists: %w", err)
	}

	playlists = make([]models.Playlist, 0, len(page.Items))
	for _, p := range page.Items {
		if p == nil {
			continue
		}
		playlists = append(playlists, models.Playlist{
			ID:         p.ID,
			Name:       p.Name,
			Owner:      p.Owner.DisplayName,
			TrackCount: p.Tracks.Total,
			Public:     p.Public,
		})
	}
	return playlists, page.Total, nil
}
