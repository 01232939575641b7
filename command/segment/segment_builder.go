// Package segment splits a source video into frame-exact segment files.
package segment

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SegmentBuilder builds FFmpeg commands to split input files into segments.
type SegmentBuilder struct {
	ffmpeg     string
	sourcePath string
	outputDir  string
	splits     []int
}

// NewSegmentBuilder creates a new SegmentBuilder writing into outputDir.
func NewSegmentBuilder(sourcePath string, outputDir string, splits []int) *SegmentBuilder {
	return &SegmentBuilder{
		ffmpeg:     "ffmpeg",
		sourcePath: sourcePath,
		outputDir:  outputDir,
		splits:     splits,
	}
}

// SetBinary sets the ffmpeg executable
func (s *SegmentBuilder) SetBinary(ffmpeg string) *SegmentBuilder {
	if ffmpeg != "" {
		s.ffmpeg = ffmpeg
	}
	return s
}

// BuildArgs constructs the FFmpeg command arguments for segment splitting.
// Only the first video stream is kept and copied without re-encoding.
// Without split frames the whole source is copied into a single segment.
func (s *SegmentBuilder) BuildArgs() []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", s.sourcePath,
		"-map", "0:v:0",
		"-an",
		"-c", "copy",
		"-avoid_negative_ts", "1",
	}

	if frames := s.buildSegmentFrames(); frames != "" {
		args = append(args,
			"-f", "segment",
			"-segment_frames", frames,
			"-reset_timestamps", "1",
			filepath.Join(s.outputDir, "%05d.mkv"),
		)
		return args
	}

	return append(args, s.GetSegmentPath(0))
}

// buildSegmentFrames creates the comma-separated split list: "30,70".
// The segment muxer needs strictly increasing frames, so splits are sorted
// and deduplicated. Frame 0 is never a split point.
func (s *SegmentBuilder) buildSegmentFrames() string {
	splits := append([]int(nil), s.splits...)
	sort.Ints(splits)

	frames := make([]string, 0, len(splits))
	last := 0
	for _, f := range splits {
		if f <= last {
			continue
		}
		frames = append(frames, strconv.Itoa(f))
		last = f
	}
	return strings.Join(frames, ",")
}

// Run executes the segment splitting command.
func (s *SegmentBuilder) Run() error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create segment directory: %w", err)
	}

	cmd := exec.Command(s.ffmpeg, s.BuildArgs()...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("segment split failed: %w (output: %s)", err, string(output))
	}

	return nil
}

// DryRun returns the command string without executing.
func (s *SegmentBuilder) DryRun() string {
	return fmt.Sprintf("%s %s", s.ffmpeg, strings.Join(s.BuildArgs(), " "))
}

// GetSegmentPath returns the path for a segment at the given index.
func (s *SegmentBuilder) GetSegmentPath(index int) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%05d.mkv", index))
}

// Splitter adapts SegmentBuilder to the chunker's segmentation hook.
type Splitter struct {
	FFmpeg string
}

// Segment splits sourcePath into workDir/split at the given frames.
func (sp Splitter) Segment(sourcePath, workDir string, splits []int) error {
	return NewSegmentBuilder(sourcePath, filepath.Join(workDir, "split"), splits).
		SetBinary(sp.FFmpeg).
		Run()
}
