package score

import (
	"fmt"
	"strings"

	"chunkqueue/models"
)

// Stage names one process of the score pipeline.
type Stage string

const (
	// StageSource is the chunk's frame-source process.
	StageSource Stage = "source"
	// StageScorer is the ffmpeg libvmaf process reading the frame stream.
	StageScorer Stage = "scorer"
)

// ProcessError reports a pipeline stage that failed to start or exited
// unsuccessfully. It matches models.ErrPipelineProcessFailure with errors.Is.
type ProcessError struct {
	Chunk  string
	Stage  Stage
	Err    error
	Output string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("score %s: %s process failed: %v", e.Chunk, e.Stage, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += fmt.Sprintf(" (output: %s)", out)
	}
	return msg
}

func (e *ProcessError) Unwrap() []error {
	return []error{models.ErrPipelineProcessFailure, e.Err}
}

// combinedOutput joins the diagnostics of both stages, labelled by stage.
func combinedOutput(source, scorer string) string {
	var parts []string
	if s := strings.TrimSpace(source); s != "" {
		parts = append(parts, fmt.Sprintf("[%s] %s", StageSource, s))
	}
	if s := strings.TrimSpace(scorer); s != "" {
		parts = append(parts, fmt.Sprintf("[%s] %s", StageScorer, s))
	}
	return strings.Join(parts, "\n")
}
