package services

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/desertthunder/vibecast/internal/models"
)

// MaxFeatureBatch is the provider's ceiling on ids per audio-features request.
const MaxFeatureBatch = 100

// FetchAudioFeatures retrieves descriptors for trackIDs in consecutive windows of at most [MaxFeatureBatch].
//
// Windows are requested one at a time and concatenated in order, so results follow the input order.
// Null descriptors are dropped. No ids means no requests and an empty result.
func (s *SpotifyClient) FetchAudioFeatures(ctx context.Context, trackIDs []string, token string) ([]models.AudioFeatureSet, error) {
	features := []models.AudioFeatureSet{}

	for batch := range slices.Chunk(trackIDs, MaxFeatureBatch) {
		query := url.Values{}
		query.Set("ids", strings.Join(batch, ","))

		var body struct {
			AudioFeatures []*models.AudioFeatureSet `json:"audio_features"`
		}
		if err := s.get(ctx, "audio features", s.endpoint(query, "audio-features"), token, &body); err != nil {
			return nil, err
		}

		for _, f := range body.AudioFeatures {
			if f == nil {
				continue
			}
			features = append(features, *f)
		}
	}

	s.logger.Debug("fetched audio features", "requested", len(trackIDs), "usable", len(features))
	return features, nil
}
