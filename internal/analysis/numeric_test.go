package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/shared"
	tu "github.com/desertthunder/vibecast/internal/testing"
)

func TestNumeric(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Features", func(t *testing.T) {
		profile, err := NewNumeric().Aggregate(ctx, Input{Tracks: []models.Track{{ID: "a"}}})
		if !errors.Is(err, shared.ErrAggregationFailed) {
			t.Errorf("expected ErrAggregationFailed, got %v", err)
		}
		if profile != nil {
			t.Errorf("expected no profile, got %+v", profile)
		}
	})

	t.Run("Single Euphoric Feature Set", func(t *testing.T) {
		in := Input{Features: []models.AudioFeatureSet{
			{ID: "a", Danceability: 0.8, Energy: 0.9, Valence: 0.9, Tempo: 150, Acousticness: 0.1},
		}}

		profile, err := NewNumeric().Aggregate(ctx, in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.PrimaryMood != MoodEuphoric {
			t.Errorf("expected %q, got %q", MoodEuphoric, profile.PrimaryMood)
		}
		if !slices.Contains(profile.Tags, TagDanceable) || !slices.Contains(profile.Tags, TagFastPaced) {
			t.Errorf("expected danceable and fast-paced tags, got %v", profile.Tags)
		}
		if slices.Contains(profile.Tags, TagAcoustic) {
			t.Errorf("did not expect acoustic tag, got %v", profile.Tags)
		}
		if profile.Averages == nil || profile.Averages.Tempo != 150 {
			t.Errorf("expected averages block, got %+v", profile.Averages)
		}
		if profile.RecommendedSong != nil || profile.SimulatedAverages != nil {
			t.Errorf("expected no generative fields")
		}
		if profile.Strategy != shared.StrategyNumeric || profile.TrackCount != 1 {
			t.Errorf("unexpected strategy/count %s/%d", profile.Strategy, profile.TrackCount)
		}
		if len(profile.ActivitySuggestions) == 0 {
			t.Errorf("expected activity suggestions")
		}
	})

	t.Run("Track Count Prefers Tracks", func(t *testing.T) {
		in := Input{
			Tracks:   []models.Track{{ID: "a"}, {ID: "b"}, {ID: "c"}},
			Features: tu.Features(2, models.AudioFeatureSet{Energy: 0.5, Valence: 0.5}),
		}
		profile, err := NewNumeric().Aggregate(ctx, in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.TrackCount != 3 {
			t.Errorf("expected 3, got %d", profile.TrackCount)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		in := Input{Features: []models.AudioFeatureSet{
			{Danceability: 0.1, Energy: 0.2, Valence: 0.3, Tempo: 101.3, Acousticness: 0.7},
			{Danceability: 0.7, Energy: 0.3, Valence: 0.9, Tempo: 88.1, Acousticness: 0.2},
			{Danceability: 0.4, Energy: 0.8, Valence: 0.1, Tempo: 130.7, Acousticness: 0.05},
		}}

		first, _ := NewNumeric().Aggregate(ctx, in)
		a, _ := json.Marshal(first.Averages)
		for range 5 {
			again, _ := NewNumeric().Aggregate(ctx, in)
			b, _ := json.Marshal(again.Averages)
			if string(a) != string(b) {
				t.Fatalf("expected identical averages, got %s and %s", a, b)
			}
		}
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		valence float64
		energy  float64
		want    string
	}{
		{"First Rule Wins", 0.7, 0.7, MoodEuphoric},
		{"Happy And Chill", 0.6, 0.3, MoodHappyChill},
		{"Melancholic", 0.2, 0.3, MoodMelancholic},
		{"Anxious", 0.3, 0.8, MoodAnxious},
		{"Neutral Middle", 0.5, 0.5, MoodNeutral},
		{"Boundary Is Exclusive", 0.65, 0.65, MoodNeutral},
		{"Low Energy Bright", 0.55, 0.1, MoodHappyChill},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.valence, tt.energy); got != tt.want {
				t.Errorf("Classify(%v, %v) = %q, want %q", tt.valence, tt.energy, got, tt.want)
			}
		})
	}
}

func TestTags(t *testing.T) {
	t.Run("None", func(t *testing.T) {
		tags := Tags(models.Averages{Danceability: 0.7, Tempo: 140, Acousticness: 0.7})
		if tags == nil || len(tags) != 0 {
			t.Errorf("expected empty non-nil tags at boundaries, got %#v", tags)
		}
	})

	t.Run("All", func(t *testing.T) {
		tags := Tags(models.Averages{Danceability: 0.71, Tempo: 141, Acousticness: 0.71})
		want := []string{TagDanceable, TagFastPaced, TagAcoustic}
		if !slices.Equal(tags, want) {
			t.Errorf("expected %v, got %v", want, tags)
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("Numeric Default", func(t *testing.T) {
		agg, err := New(shared.AnalysisConfig{}, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if agg.Name() != shared.StrategyNumeric || !agg.NeedsFeatures() {
			t.Errorf("expected numeric strategy, got %s", agg.Name())
		}
	})

	t.Run("Generative", func(t *testing.T) {
		agg, err := New(shared.AnalysisConfig{Strategy: shared.StrategyGenerative}, nil, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if agg.Name() != shared.StrategyGenerative || agg.NeedsFeatures() {
			t.Errorf("expected generative strategy, got %s", agg.Name())
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := New(shared.AnalysisConfig{Strategy: "astrology"}, nil, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
