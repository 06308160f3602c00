// package models defines the data model for the playlist analysis service
package models

import (
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Track is a playlist entry. IDs are unique within the provider catalog, but a playlist may repeat a track.
type Track struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Artists []string `json:"artists"`
}

// ArtistLine joins the artist names for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Playlist summarizes one entry of the caller's playlist collection.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	TrackCount int    `json:"trackCount"`
	Public     bool   `json:"public"`
}

// AudioFeatureSet holds the audio descriptors of one track.
//
// Tempo is in beats per minute; the remaining descriptors are in [0,1].
type AudioFeatureSet struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
}

// Averages are measured means over a playlist's audio features.
type Averages struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
	Acousticness float64 `json:"acousticness"`
}

// SimulatedAverages are a generative service's guesses, not measurements. Estimated is always true.
type SimulatedAverages struct {
	Energy       float64 `json:"energy"`
	Happiness    float64 `json:"happiness"`
	Danceability float64 `json:"danceability"`
	Estimated    bool    `json:"estimated"`
}

// RecommendedSong is a generative suggestion. It may not exist in the catalog;
// CoverArt and PreviewURL are only set when a catalog lookup found it.
type RecommendedSong struct {
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	Reason     string `json:"reason,omitempty"`
	CoverArt   string `json:"coverArt,omitempty"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// MoodProfile is the aggregation result.
//
// Averages is set only by the numeric strategy; SimulatedAverages and RecommendedSong only by the generative one.
type MoodProfile struct {
	PrimaryMood         string             `json:"primaryMood"`
	Tags                []string           `json:"tags"`
	ActivitySuggestions []string           `json:"activitySuggestions"`
	Strategy            string             `json:"strategy"`
	TrackCount          int                `json:"trackCount"`
	Averages            *Averages          `json:"averages,omitempty"`
	SimulatedAverages   *SimulatedAverages `json:"simulatedAverages,omitempty"`
	RecommendedSong     *RecommendedSong   `json:"recommendedSong,omitempty"`
}
