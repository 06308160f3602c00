// Package repositories implements SQLite persistence for the analysis run log.
//
// [RunRepository] stores one [models.AnalysisRun] per analysis request: which playlist,
// which strategy, how many tracks, how long it took and how it ended. Tokens and
// mood profiles are never written.
//
// The run log is optional; callers skip it entirely when no database path is configured.
package repositories
