// Package models defines the entities that flow through a playlist analysis.
//
// Request-scoped values, built fresh for every analysis and discarded with the response:
//   - [Track] : playlist entry with its ordered artist names
//   - [AudioFeatureSet] : per-track numeric audio descriptors
//   - [MoodProfile] : aggregation result returned to callers
//   - [RecommendedSong] : generative suggestion, optionally enriched from the catalog
//
// The single persistent entity is [AnalysisRun], operational metadata for the optional run log.
// It never carries tokens or profile content.
package models
