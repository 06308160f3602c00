package tasks

import (
	"fmt"

	"github.com/desertthunder/vibecast/internal/models"
)

// ProgressUpdate represents a progress event during an analysis.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within the analysis
	Total   int    // Total steps in the analysis
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchTracks Phase = iota
	FetchFeatures
	Aggregate
	Enrich
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchTracks:
		return "fetch_tracks"
	case FetchFeatures:
		return "fetch_features"
	case Aggregate:
		return "aggregate"
	case Enrich:
		return "enrich"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: "Fetching playlist tracks from Spotify...",
	}
}

func fetchFeaturesUpdate(step, total, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching audio features for %d tracks...", tracks),
	}
}

func aggregateUpdate(step, total int, strategy string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Aggregating mood (%s)...", strategy),
	}
}

func enrichUpdate(step, total int, song *models.RecommendedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Enrich,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Looking up %s - %s...", song.Artist, song.Name),
	}
}

func doneUpdate(step, total int, profile *models.MoodProfile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s (%d tracks)", profile.PrimaryMood, profile.TrackCount),
		Data:    profile,
	}
}
