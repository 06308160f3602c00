package analysis

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/shared"
)

// Moods
const (
	MoodEuphoric    = "Euphoric & Energetic"
	MoodHappyChill  = "Happy & Chill"
	MoodMelancholic = "Melancholic & Reflective"
	MoodAnxious     = "Anxious & Intense"
	MoodNeutral     = "Neutral"
)

// Tags
const (
	TagDanceable = "Highly Danceable"
	TagFastPaced = "Fast-Paced"
	TagAcoustic  = "Acoustic"
)

type moodRule struct {
	mood  string
	match func(valence, energy float64) bool
}

// moodRules are evaluated in order; the first match wins.
var moodRules = []moodRule{
	{MoodEuphoric, func(v, e float64) bool { return v > 0.65 && e > 0.65 }},
	{MoodHappyChill, func(v, e float64) bool { return v > 0.5 && e < 0.5 }},
	{MoodMelancholic, func(v, e float64) bool { return v < 0.35 && e < 0.4 }},
	{MoodAnxious, func(v, e float64) bool { return v < 0.5 && e > 0.7 }},
}

var activities = map[string][]string{
	MoodEuphoric:    {"Workout", "House party", "Road trip"},
	MoodHappyChill:  {"Sunday brunch", "Beach day", "Light reading"},
	MoodMelancholic: {"Rainy day journaling", "Late night walk", "Reflection"},
	MoodAnxious:     {"High intensity training", "Deadline crunch", "Night drive"},
	MoodNeutral:     {"Background listening", "Commute", "Focused work"},
}

// Numeric is the deterministic strategy over measured audio features.
type Numeric struct{}

func NewNumeric() *Numeric { return &Numeric{} }

func (Numeric) Name() string        { return shared.StrategyNumeric }
func (Numeric) NeedsFeatures() bool { return true }

// Aggregate averages in.Features and classifies the result.
//
// TrackCount is the number of tracks when known, otherwise the number of feature sets.
func (n Numeric) Aggregate(_ context.Context, in Input) (*models.MoodProfile, error) {
	if len(in.Features) == 0 {
		return nil, fmt.Errorf("%w: no audio features available", shared.ErrAggregationFailed)
	}

	avg := Average(in.Features)
	mood := Classify(avg.Valence, avg.Energy)

	count := len(in.Tracks)
	if count == 0 {
		count = len(in.Features)
	}

	return &models.MoodProfile{
		PrimaryMood:         mood,
		Tags:                Tags(avg),
		ActivitySuggestions: append([]string{}, activities[mood]...),
		Strategy:            n.Name(),
		TrackCount:          count,
		Averages:            &avg,
	}, nil
}

// Average returns the arithmetic mean of each descriptor. It must not be called with no features.
func Average(features []models.AudioFeatureSet) models.Averages {
	var sum models.Averages
	for _, f := range features {
		sum.Danceability += f.Danceability
		sum.Energy += f.Energy
		sum.Valence += f.Valence
		sum.Tempo += f.Tempo
		sum.Acousticness += f.Acousticness
	}

	n := float64(len(features))
	return models.Averages{
		Danceability: sum.Danceability / n,
		Energy:       sum.Energy / n,
		Valence:      sum.Valence / n,
		Tempo:        sum.Tempo / n,
		Acousticness: sum.Acousticness / n,
	}
}

// Classify maps mean valence and energy to a mood label.
func Classify(valence, energy float64) string {
	for _, rule := range moodRules {
		if rule.match(valence, energy) {
			return rule.mood
		}
	}
	return MoodNeutral
}

// Tags returns the independent descriptor tags for avg. Never nil.
func Tags(avg models.Averages) []string {
	tags := []string{}
	if avg.Danceability > 0.7 {
		tags = append(tags, TagDanceable)
	}
	if avg.Tempo > 140 {
		tags = append(tags, TagFastPaced)
	}
	if avg.Acousticness > 0.7 {
		tags = append(tags, TagAcoustic)
	}
	return tags
}
