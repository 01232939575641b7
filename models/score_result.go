package models

import (
	"fmt"
	"strings"
	"time"
)

// ScoreResult represents the outcome of scoring one encoded chunk.
//
// Successful results carry the path of the score log and no error; failed
// results carry an error and the combined diagnostic output of the pipeline.
// Resource figures are peaks sampled across both pipeline processes and stay
// zero when sampling was unavailable.
//
// Use NewScoreResultSuccess or NewScoreResultFailure to create validated instances.
type ScoreResult struct {
	ChunkName string        `json:"chunk"`
	LogPath   string        `json:"log_path,omitempty"`
	Success   bool          `json:"success"`
	Error     error         `json:"-"`
	Output    string        `json:"output,omitempty"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	PeakRSS   uint64        `json:"peak_rss_bytes"`
	PeakCPU   float64       `json:"peak_cpu_percent"`
}

// NewScoreResultSuccess creates a successful ScoreResult with validation.
//
// Returns an error if logPath is empty or whitespace-only.
func NewScoreResultSuccess(chunkName, logPath string) (*ScoreResult, error) {
	sr := &ScoreResult{
		ChunkName: chunkName,
		LogPath:   logPath,
		Success:   true,
	}
	if err := sr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid score result: %w", err)
	}
	return sr, nil
}

// NewScoreResultFailure creates a failed ScoreResult. scoreErr must not be nil.
func NewScoreResultFailure(chunkName string, scoreErr error, output string) (*ScoreResult, error) {
	if scoreErr == nil {
		return nil, fmt.Errorf("invalid score result: error cannot be nil for failed result")
	}
	return &ScoreResult{
		ChunkName: chunkName,
		Success:   false,
		Error:     scoreErr,
		Output:    output,
	}, nil
}

// ErrorMessage returns the error text, or "" for successful results.
func (sr *ScoreResult) ErrorMessage() string {
	if sr.Error == nil {
		return ""
	}
	return sr.Error.Error()
}

// Validate checks if the ScoreResult has consistent state.
//
// Returns an error if:
//   - Success is true but Error is not nil
//   - Success is false but Error is nil
//   - Success is true but LogPath is empty
//   - Success is false but LogPath is set
func (sr *ScoreResult) Validate() error {
	if sr.Success && sr.Error != nil {
		return fmt.Errorf("inconsistent state: Success is true but Error is not nil")
	}

	if !sr.Success && sr.Error == nil {
		return fmt.Errorf("failed result must have an error")
	}

	if sr.Success && strings.TrimSpace(sr.LogPath) == "" {
		return fmt.Errorf("log_path cannot be empty for successful result")
	}

	if !sr.Success && strings.TrimSpace(sr.LogPath) != "" {
		return fmt.Errorf("failed result should not have log_path")
	}

	return nil
}
