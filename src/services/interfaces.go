package services

import (
	"context"
	"errors"
)

// Fatal run conditions. Everything else degrades into report rows.
var (
	ErrTheoreticalExportMissing = errors.New("point-of-sale export not found in input directory")
	ErrNoTheoreticalData        = errors.New("point-of-sale export has no usable data")
	ErrRunInProgress            = errors.New("a reconciliation run is already in progress")
)

// RunConfig identifies one batch of uploaded files.
type RunConfig struct {
	InputDir string
	// RunID tags log lines; one is generated when empty.
	RunID string
}

// RunResult summarizes a completed run.
type RunResult struct {
	RunID                  string  `json:"run_id"`
	InstallationsProcessed int     `json:"installations_processed"`
	SkippedPOSCodes        []int64 `json:"skipped_pos_codes,omitempty"`
	Feeds                  FeedSet `json:"feeds"`
}

// ReconciliationService runs the full reconciliation of one input directory.
type ReconciliationService interface {
	Run(ctx context.Context, cfg RunConfig) (*RunResult, error)
}
