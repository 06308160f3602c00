// package services defines the HTTP API clients used by the analysis pipeline
//
// Spotify (catalog + accounts), Gemini and Ollama (text generation)
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/desertthunder/vibecast/internal/models"
)

// Catalog defines the music provider operations the analysis pipeline depends on.
//
// Every call takes the caller's bearer token; implementations never store it.
type Catalog interface {
	// FetchAllTracks follows the playlist's continuation cursor until exhausted and returns every track in arrival order.
	FetchAllTracks(ctx context.Context, playlistID, token string) ([]models.Track, error)

	// FetchAudioFeatures requests descriptors in windows of at most [MaxFeatureBatch] ids, dropping null entries.
	FetchAudioFeatures(ctx context.Context, trackIDs []string, token string) ([]models.AudioFeatureSet, error)

	// SearchTrack returns the top catalog match for name and artist.
	SearchTrack(ctx context.Context, name, artist, token string) (*SearchHit, error)

	// UserPlaylists returns the raw playlist collection of the token's owner.
	UserPlaylists(ctx context.Context, token string) (json.RawMessage, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TextGenerator sends a prompt to a generative text service and returns the raw structured output.
//
// The response is constrained to schema; callers still validate it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, schema *Schema) ([]byte, error)
	Name() string
}

// SearchHit is the subset of a catalog track used to enrich a recommendation.
type SearchHit struct {
	ID         string
	Name       string
	Artists    []string
	CoverArt   string
	PreviewURL string
}

// NewHTTPClient returns a client whose calls are bounded by timeout. Zero means no deadline.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
