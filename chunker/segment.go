package chunker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chunkqueue/models"
)

// segmentBuilder makes one chunk per segment file. Size is the file size in bytes.
type segmentBuilder struct{}

func (segmentBuilder) Build(env *Env, splits []int) ([]*models.Chunk, error) {
	if env.Segmenter != nil {
		if err := env.Segmenter.Segment(env.SourcePath, env.WorkDir, splits); err != nil {
			return nil, fmt.Errorf("segmentation failed: %w", err)
		}
	}

	files, err := listSegments(env.SplitDir())
	if err != nil {
		return nil, err
	}

	chunks := make([]*models.Chunk, 0, len(files))
	for index, file := range files {
		c, err := segmentChunk(env, index, file)
		if err != nil {
			return nil, err
		}
		env.Logger.Debug("segment chunk", "chunk", c.Name(), "file", filepath.Base(file), "frames", c.Frames, "bytes", c.Size)
		chunks = append(chunks, c)
	}

	return chunks, nil
}

// listSegments returns the .mkv files of dir sorted by stem.
func listSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read segment directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".mkv" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s: segmentation probably did not run", models.ErrNoSegmentsFound, dir)
	}

	sort.Slice(files, func(i, j int) bool {
		return stem(files[i]) < stem(files[j])
	})

	return files, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func segmentChunk(env *Env, index int, file string) (*models.Chunk, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, fmt.Errorf("failed to stat segment %s: %w", file, err)
	}

	frames, err := env.Prober.FrameCount(file)
	if err != nil {
		return nil, fmt.Errorf("failed to probe segment %s: %w", file, err)
	}

	cmd := []string{env.FFmpeg, "-y", "-hide_banner", "-loglevel", "error", "-i", file}
	cmd = append(cmd, rawFrameOutput(env.PixFormat)...)

	return buildChunk(env, index, cmd, info.Size(), frames)
}
