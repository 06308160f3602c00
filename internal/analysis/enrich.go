package analysis

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// Searcher is the catalog lookup the [Enricher] needs.
type Searcher interface {
	SearchTrack(ctx context.Context, name, artist, token string) (*services.SearchHit, error)
}

// Enricher fills in artwork and a preview for a recommended song.
type Enricher struct {
	catalog Searcher
	logger  *log.Logger
}

func NewEnricher(catalog Searcher, logger *log.Logger) *Enricher {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Enricher{catalog: catalog, logger: shared.WithLogger(logger, "component", "enricher")}
}

// Enrich returns song with CoverArt and PreviewURL from the top catalog match.
// On any lookup failure song is returned unchanged and a warning is logged.
func (e *Enricher) Enrich(ctx context.Context, song models.RecommendedSong, token string) models.RecommendedSong {
	hit, err := e.catalog.SearchTrack(ctx, song.Name, song.Artist, token)
	if err != nil {
		e.logger.Warn("recommendation lookup failed", "name", song.Name, "artist", song.Artist, "error", err)
		return song
	}

	enriched := song
	if hit.CoverArt != "" {
		enriched.CoverArt = hit.CoverArt
	}
	if hit.PreviewURL != "" {
		enriched.PreviewURL = hit.PreviewURL
	}
	return enriched
}
