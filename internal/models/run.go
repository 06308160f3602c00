package models

import (
	"errors"
	"time"
)

// Run statuses
const (
	RunStatusOK     = "ok"
	RunStatusFailed = "failed"
)

var _ Model = (*AnalysisRun)(nil)

// AnalysisRun records how one analysis request went.
type AnalysisRun struct {
	RunID      string
	PlaylistID string
	Strategy   string
	TrackCount int
	Status     string
	ErrorKind  string
	Duration   time.Duration
	Created    time.Time
}

func (r *AnalysisRun) ID() string           { return r.RunID }
func (r *AnalysisRun) CreatedAt() time.Time { return r.Created }

// Validate checks required fields.
func (r *AnalysisRun) Validate() error {
	if r.RunID == "" {
		return errors.New("run id is required")
	}
	if r.PlaylistID == "" {
		return errors.New("playlist id is required")
	}
	if r.Status != RunStatusOK && r.Status != RunStatusFailed {
		return errors.New("status must be ok or failed")
	}
	return nil
}
