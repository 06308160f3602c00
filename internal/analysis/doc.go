// Package analysis turns a playlist's tracks or audio features into a [models.MoodProfile].
//
// Two [Aggregator] strategies share one output contract:
//   - [Numeric] averages measured audio features and classifies them with a fixed decision table.
//   - [Generative] asks a [services.TextGenerator] for a schema-constrained profile.
//
// The strategy is chosen by configuration with [New]. Both fail with [shared.ErrAggregationFailed]
// given no usable input.
//
// [Enricher] attaches artwork and a preview to a generative recommendation. It never fails.
package analysis
