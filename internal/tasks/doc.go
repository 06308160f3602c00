// Package tasks orchestrates the playlist analysis pipeline with progress reporting.
//
// # Pipeline
//
// [AnalysisEngine.Analyze] runs, strictly in order:
//
//  1. [services.Catalog.FetchAllTracks] : every page of the playlist
//  2. [services.Catalog.FetchAudioFeatures] : only when the strategy needs features
//  3. [analysis.Aggregator.Aggregate] : numeric or generative
//  4. [analysis.Enricher.Enrich] : only when the profile carries a recommendation
//
// A failure in steps 1 through 3 aborts the analysis. Step 4 never fails.
//
// # Progress Reporting
//
// Progress is sent on an optional channel of [ProgressUpdate]. Sends use select with
// default, so a slow or absent reader never stalls the pipeline.
//
// # Run Log
//
// With [WithRecorder], each finished analysis is written as a [models.AnalysisRun].
// Recording failures are logged and otherwise ignored.
package tasks
