package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
)

// MaxPromptTracks bounds the prompt. Tracks past the cap are left out of the prompt only.
const MaxPromptTracks = 50

// Item counts a reply must honor.
const (
	minTags       = 3
	maxTags       = 5
	minActivities = 2
	maxActivities = 3
)

const promptHeader = `You are a music curator. Describe the overall mood of a playlist containing the tracks below.
Respond with:
- primaryMood: a short label for the dominant mood
- tags: 3 to 5 short descriptive tags
- activitySuggestions: 2 or 3 activities the playlist suits
- simulatedAverages: your estimate of energy, happiness and danceability, each between 0 and 1
- recommendedSong: one real song, not in the list, that fits the mood, with a one sentence reason

Tracks:
`

// ProfileSchema is the structured output requested from the generator.
var ProfileSchema = &services.Schema{
	Type: services.TypeObject,
	Properties: map[string]*services.Schema{
		"primaryMood": {Type: services.TypeString, Description: "Dominant mood of the playlist"},
		"tags": {
			Type:     services.TypeArray,
			Items:    &services.Schema{Type: services.TypeString},
			MinItems: services.Ptr(minTags),
			MaxItems: services.Ptr(maxTags),
		},
		"activitySuggestions": {
			Type:     services.TypeArray,
			Items:    &services.Schema{Type: services.TypeString},
			MinItems: services.Ptr(minActivities),
			MaxItems: services.Ptr(maxActivities),
		},
		"simulatedAverages": {
			Type: services.TypeObject,
			Properties: map[string]*services.Schema{
				"energy":       unitInterval(),
				"happiness":    unitInterval(),
				"danceability": unitInterval(),
			},
			Required: []string{"energy", "happiness", "danceability"},
		},
		"recommendedSong": {
			Type: services.TypeObject,
			Properties: map[string]*services.Schema{
				"name":   {Type: services.TypeString},
				"artist": {Type: services.TypeString},
				"reason": {Type: services.TypeString},
			},
			Required: []string{"name", "artist", "reason"},
		},
	},
	Required: []string{"primaryMood", "tags", "activitySuggestions"},
}

func unitInterval() *services.Schema {
	return &services.Schema{Type: services.TypeNumber, Minimum: services.Ptr(0.0), Maximum: services.Ptr(1.0)}
}

// generatedProfile mirrors [ProfileSchema].
type generatedProfile struct {
	PrimaryMood         string   `json:"primaryMood"`
	Tags                []string `json:"tags"`
	ActivitySuggestions []string `json:"activitySuggestions"`
	SimulatedAverages   *struct {
		Energy       float64 `json:"energy"`
		Happiness    float64 `json:"happiness"`
		Danceability float64 `json:"danceability"`
	} `json:"simulatedAverages"`
	RecommendedSong *models.RecommendedSong `json:"recommendedSong"`
}

// Generative delegates classification to a text generation service.
type Generative struct {
	generator services.TextGenerator
	logger    *log.Logger
}

// NewGenerative returns the generative strategy. A nil generator is accepted and reported when used.
func NewGenerative(gen services.TextGenerator, logger *log.Logger) *Generative {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Generative{generator: gen, logger: shared.WithLogger(logger, "strategy", shared.StrategyGenerative)}
}

func (Generative) Name() string        { return shared.StrategyGenerative }
func (Generative) NeedsFeatures() bool { return false }

// Aggregate prompts the generator with in.Tracks and validates the reply.
//
// The reply is rejected with [shared.ErrMalformedAIResponse] rather than repaired.
func (g *Generative) Aggregate(ctx context.Context, in Input) (*models.MoodProfile, error) {
	if g.generator == nil {
		return nil, fmt.Errorf("%w: generative strategy has no text generator configured", shared.ErrAggregationFailed)
	}
	if len(in.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks to describe", shared.ErrAggregationFailed)
	}

	prompt := BuildPrompt(in.Tracks)
	g.logger.Debug("requesting profile", "generator", g.generator.Name(), "tracks", min(len(in.Tracks), MaxPromptTracks))

	raw, err := g.generator.Generate(ctx, prompt, ProfileSchema)
	if err != nil {
		return nil, err
	}

	profile, err := ParseProfile(raw)
	if err != nil {
		return nil, err
	}
	profile.TrackCount = len(in.Tracks)
	return profile, nil
}

// BuildPrompt lists up to [MaxPromptTracks] tracks as "name by artist" lines.
func BuildPrompt(tracks []models.Track) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	for _, t := range tracks[:min(len(tracks), MaxPromptTracks)] {
		fmt.Fprintf(&b, "%s by %s\n", t.Name, t.ArtistLine())
	}
	return b.String()
}

// ParseProfile decodes and validates a generator reply.
func ParseProfile(raw []byte) (*models.MoodProfile, error) {
	var out generatedProfile
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedAIResponse, err)
	}

	if strings.TrimSpace(out.PrimaryMood) == "" {
		return nil, fmt.Errorf("%w: missing primaryMood", shared.ErrMalformedAIResponse)
	}
	tags, err := stringList("tags", out.Tags, minTags, maxTags)
	if err != nil {
		return nil, err
	}
	activities, err := stringList("activitySuggestions", out.ActivitySuggestions, minActivities, maxActivities)
	if err != nil {
		return nil, err
	}

	profile := &models.MoodProfile{
		PrimaryMood:         strings.TrimSpace(out.PrimaryMood),
		Tags:                tags,
		ActivitySuggestions: activities,
		Strategy:            shared.StrategyGenerative,
	}

	if sa := out.SimulatedAverages; sa != nil {
		for name, v := range map[string]float64{"energy": sa.Energy, "happiness": sa.Happiness, "danceability": sa.Danceability} {
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("%w: simulated %s %v outside [0,1]", shared.ErrMalformedAIResponse, name, v)
			}
		}
		profile.SimulatedAverages = &models.SimulatedAverages{
			Energy:       sa.Energy,
			Happiness:    sa.Happiness,
			Danceability: sa.Danceability,
			Estimated:    true,
		}
	}

	if song := out.RecommendedSong; song != nil {
		if strings.TrimSpace(song.Name) == "" || strings.TrimSpace(song.Artist) == "" {
			return nil, fmt.Errorf("%w: recommendedSong needs name and artist", shared.ErrMalformedAIResponse)
		}
		profile.RecommendedSong = &models.RecommendedSong{Name: song.Name, Artist: song.Artist, Reason: song.Reason}
	}

	return profile, nil
}

// stringList trims items and checks that there are between lo and hi of them, none blank.
func stringList(field string, items []string, lo, hi int) ([]string, error) {
	if len(items) < lo || len(items) > hi {
		return nil, fmt.Errorf("%w: %s has %d items, want %d to %d", shared.ErrMalformedAIResponse, field, len(items), lo, hi)
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.TrimSpace(item)
		if out[i] == "" {
			return nil, fmt.Errorf("%w: %s[%d] is blank", shared.ErrMalformedAIResponse, field, i)
		}
	}
	return out, nil
}
