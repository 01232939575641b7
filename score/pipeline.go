package score

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"chunkqueue/models"
)

// waitDelay bounds how long Wait keeps copying output after a process was
// killed, in case a grandchild still holds the output pipe open.
const waitDelay = 5 * time.Second

// Score runs the pipeline for one chunk and returns the score log path.
//
// Failures of either process are returned as *ProcessError with the
// diagnostic output of both stages. A failing scorer terminates the frame
// source; cancelling ctx terminates both.
func (s *Scorer) Score(ctx context.Context, c *models.Chunk, encoded string, rate int, outputPath string) (string, error) {
	logPath, _, _, err := s.run(ctx, c, encoded, rate, outputPath)
	return logPath, err
}

// Run scores a chunk and reports the outcome, timing and peak resource use
// as a ScoreResult. It never returns nil.
func (s *Scorer) Run(ctx context.Context, c *models.Chunk, encoded string, rate int, outputPath string) *models.ScoreResult {
	start := time.Now()
	logPath, output, use, err := s.run(ctx, c, encoded, rate, outputPath)

	name := ""
	if c != nil {
		name = c.Name()
	}

	var result *models.ScoreResult
	if err != nil {
		result, _ = models.NewScoreResultFailure(name, err, output)
	} else if result, err = models.NewScoreResultSuccess(name, logPath); err != nil {
		result, _ = models.NewScoreResultFailure(name, err, output)
	}

	result.Elapsed = time.Since(start)
	result.PeakRSS = use.PeakRSS
	result.PeakCPU = use.PeakCPU
	return result
}

func (s *Scorer) run(ctx context.Context, c *models.Chunk, encoded string, rate int, outputPath string) (string, string, usage, error) {
	if c == nil || len(c.SourceCmd) == 0 {
		return "", "", usage{}, fmt.Errorf("chunk has no frame-source command")
	}

	logPath := s.LogPath(c, outputPath)
	args, err := s.BuildArgs(encoded, rate, logPath)
	if err != nil {
		return "", "", usage{}, err
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr, pw, err := os.Pipe()
	if err != nil {
		return "", "", usage{}, fmt.Errorf("failed to create pipe: %w", err)
	}

	// Source stderr is not merged into stdout: the scorer reads stdout as a
	// y4m stream and any diagnostic text there would break it. The source's
	// diagnostics are reported with the scorer's on failure instead.
	var sourceOut, scorerOut bytes.Buffer

	source := exec.CommandContext(ctx, c.SourceCmd[0], c.SourceCmd[1:]...)
	source.Stdout = pw
	source.Stderr = &sourceOut
	source.WaitDelay = waitDelay

	scorer := exec.CommandContext(ctx, s.ffmpeg, args...)
	scorer.Stdin = pr
	scorer.Stdout = &scorerOut
	scorer.Stderr = &scorerOut
	scorer.WaitDelay = waitDelay

	if err := source.Start(); err != nil {
		pr.Close()
		pw.Close()
		return "", "", usage{}, &ProcessError{Chunk: c.Name(), Stage: StageSource, Err: err}
	}

	if err := scorer.Start(); err != nil {
		pr.Close()
		pw.Close()
		cancel()
		_ = source.Wait()
		return "", "", usage{}, &ProcessError{
			Chunk: c.Name(), Stage: StageScorer, Err: err,
			Output: combinedOutput(sourceOut.String(), ""),
		}
	}

	// Only the children may hold the pipe ends now: the scorer sees EOF when
	// the source exits and the source gets EPIPE when the scorer exits.
	pr.Close()
	pw.Close()

	s.logger.Debug("score pipeline started",
		"chunk", c.Name(),
		"source_pid", source.Process.Pid,
		"scorer_pid", scorer.Process.Pid)

	mon := startSampler(sampleInterval, source.Process.Pid, scorer.Process.Pid)

	scorerErr := scorer.Wait()
	if scorerErr != nil {
		cancel()
	}
	sourceErr := source.Wait()
	use := mon.Stop()

	output := combinedOutput(sourceOut.String(), scorerOut.String())

	if err := parent.Err(); err != nil && (scorerErr != nil || sourceErr != nil) {
		cause := scorerErr
		if cause == nil {
			cause = sourceErr
		}
		return "", output, use, &ProcessError{Chunk: c.Name(), Stage: StageScorer, Err: fmt.Errorf("%w: %v", err, cause), Output: output}
	}

	switch {
	case scorerErr != nil:
		return "", output, use, &ProcessError{Chunk: c.Name(), Stage: StageScorer, Err: scorerErr, Output: output}
	case sourceErr != nil:
		return "", output, use, &ProcessError{Chunk: c.Name(), Stage: StageSource, Err: sourceErr, Output: output}
	}

	s.logger.Debug("score pipeline finished", "chunk", c.Name(), "log", logPath)
	return logPath, output, use, nil
}
