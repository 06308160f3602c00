package analysis

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// Input is what a strategy may draw on. Numeric reads Features; Generative reads Tracks.
type Input struct {
	Tracks   []models.Track
	Features []models.AudioFeatureSet
}

// Aggregator reduces a playlist to a mood profile.
type Aggregator interface {
	Aggregate(ctx context.Context, in Input) (*models.MoodProfile, error)

	// Name returns the strategy name recorded on the profile.
	Name() string

	// NeedsFeatures reports whether audio features must be fetched before aggregating.
	NeedsFeatures() bool
}

// New selects the strategy named by cfg. gen may be nil; the generative strategy then fails at aggregation time.
func New(cfg shared.AnalysisConfig, gen services.TextGenerator, logger *log.Logger) (Aggregator, error) {
	switch cfg.Strategy {
	case "", shared.StrategyNumeric:
		return NewNumeric(), nil
	case shared.StrategyGenerative:
		return NewGenerative(gen, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", shared.ErrInvalidConfig, cfg.Strategy)
	}
}
