package chunker

import (
	"fmt"

	"chunkqueue/models"
)

// selectBuilder decodes the whole source for every chunk and keeps only the
// chunk's frames with the select filter. Size is the frame count.
type selectBuilder struct{}

func (selectBuilder) Build(env *Env, splits []int) ([]*models.Chunk, error) {
	bounds, err := probeBoundaries(env, splits)
	if err != nil {
		return nil, err
	}

	chunks := make([]*models.Chunk, 0, len(bounds))
	for index, b := range bounds {
		cmd := []string{
			env.FFmpeg, "-y", "-hide_banner", "-loglevel", "error",
			"-i", env.SourcePath,
			"-vf", selectFilter(b),
		}
		cmd = append(cmd, rawFrameOutput(env.PixFormat)...)

		c, err := buildChunk(env, index, cmd, int64(b.Frames()), b.Frames())
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// selectFilter keeps frames [Start, End-1] and restarts timestamps at zero.
func selectFilter(b models.Boundary) string {
	return fmt.Sprintf(`select=between(n\,%d\,%d),setpts=PTS-STARTPTS`, b.Start, b.LastFrame())
}

// probeBoundaries probes the source and derives the boundary list.
func probeBoundaries(env *Env, splits []int) ([]models.Boundary, error) {
	total, err := env.Prober.FrameCount(env.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to probe source %s: %w", env.SourcePath, err)
	}

	bounds, err := DeriveBoundaries(total, splits)
	if err != nil {
		return nil, err
	}

	env.Logger.Debug("boundaries derived", "frames", total, "chunks", len(bounds))
	return bounds, nil
}
