// package tasks runs the playlist analysis pipeline.
//
// [AnalysisEngine] fetches a playlist's tracks, optionally their audio features,
// aggregates a mood profile and enriches any recommendation. Progress is reported
// over a channel without blocking.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/analysis"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// RunRecorder stores operational metadata about finished analyses.
type RunRecorder interface {
	Record(ctx context.Context, run *models.AnalysisRun) error
}

// Analyzer produces a mood profile for one playlist on behalf of the token's owner.
type Analyzer interface {
	Analyze(ctx context.Context, playlistID, token string, progress chan<- ProgressUpdate) (*models.MoodProfile, error)
}

// AnalysisEngine implements [Analyzer].
//
// It keeps no per-request state; one engine serves concurrent requests.
type AnalysisEngine struct {
	catalog    services.Catalog
	aggregator analysis.Aggregator
	enricher   *analysis.Enricher
	recorder   RunRecorder
	logger     *log.Logger
	now        func() time.Time
}

// EngineOption customizes an [AnalysisEngine].
type EngineOption func(*AnalysisEngine)

// WithRecorder records every finished analysis.
func WithRecorder(r RunRecorder) EngineOption {
	return func(e *AnalysisEngine) { e.recorder = r }
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *AnalysisEngine) { e.logger = l }
}

// NewAnalysisEngine creates an engine. Recommendations are enriched through catalog.
func NewAnalysisEngine(catalog services.Catalog, aggregator analysis.Aggregator, opts ...EngineOption) *AnalysisEngine {
	e := &AnalysisEngine{
		catalog:    catalog,
		aggregator: aggregator,
		logger:     shared.DiscardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = shared.WithLogger(e.logger, "component", "engine")
	if catalog != nil {
		e.enricher = analysis.NewEnricher(catalog, e.logger)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *AnalysisEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Analyze runs the pipeline sequentially. Any failure before enrichment aborts the analysis;
// nothing partial is returned.
func (e *AnalysisEngine) Analyze(ctx context.Context, playlistID, token string, progress chan<- ProgressUpdate) (*models.MoodProfile, error) {
	started := e.now()
	profile, err := e.analyze(ctx, playlistID, token, progress)
	e.record(ctx, playlistID, started, profile, err)
	return profile, err
}

func (e *AnalysisEngine) analyze(ctx context.Context, playlistID, token string, progress chan<- ProgressUpdate) (*models.MoodProfile, error) {
	if e.catalog == nil || e.aggregator == nil {
		return nil, fmt.Errorf("%w: analysis engine not configured", shared.ErrAggregationFailed)
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	total := 3
	if e.aggregator.NeedsFeatures() {
		total++
	}
	step := 1

	e.sendProgress(progress, fetchTracksUpdate(step, total))
	tracks, err := e.catalog.FetchAllTracks(ctx, playlistID, token)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("fetched tracks", "playlist", playlistID, "count", len(tracks))

	in := analysis.Input{Tracks: tracks}
	if e.aggregator.NeedsFeatures() {
		step++
		e.sendProgress(progress, fetchFeaturesUpdate(step, total, len(tracks)))

		ids := make([]string, len(tracks))
		for i, t := range tracks {
			ids[i] = t.ID
		}
		in.Features, err = e.catalog.FetchAudioFeatures(ctx, ids, token)
		if err != nil {
			return nil, err
		}
	}

	step++
	e.sendProgress(progress, aggregateUpdate(step, total, e.aggregator.Name()))
	profile, err := e.aggregator.Aggregate(ctx, in)
	if err != nil {
		return nil, err
	}

	step++
	if song := profile.RecommendedSong; song != nil && e.enricher != nil {
		e.sendProgress(progress, enrichUpdate(step, total, song))
		enriched := e.enricher.Enrich(ctx, *song, token)
		profile.RecommendedSong = &enriched
	}

	e.sendProgress(progress, doneUpdate(step, total, profile))
	return profile, nil
}

// record writes the run log entry. Failures are logged and never affect the analysis result.
func (e *AnalysisEngine) record(ctx context.Context, playlistID string, started time.Time, profile *models.MoodProfile, err error) {
	if e.recorder == nil || playlistID == "" {
		return
	}

	run := &models.AnalysisRun{
		RunID:      shared.GenerateID(),
		PlaylistID: playlistID,
		Strategy:   e.strategyName(),
		Status:     models.RunStatusOK,
		Duration:   e.now().Sub(started),
		Created:    started,
	}
	if profile != nil {
		run.TrackCount = profile.TrackCount
	}
	if err != nil {
		run.Status = models.RunStatusFailed
		run.ErrorKind = shared.Kind(err)
	}

	// The request context may already be cancelled; the log entry should still be written.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if rerr := e.recorder.Record(recordCtx, run); rerr != nil {
		e.logger.Warn("failed to record analysis run", "run", run.RunID, "error", rerr)
	}
}

func (e *AnalysisEngine) strategyName() string {
	if e.aggregator == nil {
		return "unknown"
	}
	return e.aggregator.Name()
}

// IsClientError reports whether err was caused by the caller rather than an upstream or server fault.
func IsClientError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrMissingArgument) ||
		errors.Is(err, shared.ErrInvalidInput)
}
