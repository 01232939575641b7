// Package models provides core data structures for the chunk queue.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Chunk represents an independently encodable frame range of the source.
//
// A Chunk carries everything a worker needs to encode it: the command that
// streams its raw frames (SourceCmd), the encoder pass commands (PassCmds),
// the output extension and the priority key (Size). Chunks are created by the
// chunker or deserialized by the queue store and are never mutated afterwards,
// so they may be shared read-only between concurrent workers.
//
// Size is either the segment file size in bytes or the frame count, depending
// on the chunk method. It is only comparable between chunks of the same run.
type Chunk struct {
	Index     int        `json:"index"`
	SourceCmd []string   `json:"source_cmd"`
	PassCmds  [][]string `json:"pass_cmds"`
	Extension string     `json:"output_ext"`
	Size      int64      `json:"size"`
	Frames    int        `json:"frames"`
}

// Name returns the chunk name derived from its index (e.g. "00007").
//
// The name keys the DoneRecord, so it is always recomputed from Index and
// never read back from storage.
func (c *Chunk) Name() string {
	return fmt.Sprintf("%05d", c.Index)
}

// OutputPath returns the path of the encoded chunk inside workDir.
func (c *Chunk) OutputPath(workDir string) string {
	return filepath.Join(workDir, "encode", c.Name()+"."+c.Extension)
}

// StatsPath returns the first-pass statistics file of the chunk inside workDir.
func (c *Chunk) StatsPath(workDir string) string {
	return filepath.Join(workDir, "split", c.Name()+"_fpf")
}

// ScoreLogPath returns the default quality-score log path inside workDir.
func (c *Chunk) ScoreLogPath(workDir string) string {
	return filepath.Join(workDir, "split", c.Name()+".json")
}

// Validate checks if the Chunk has valid data.
//
// Returns an error if:
//   - Index is negative
//   - Frames is not positive
//   - SourceCmd is empty or starts with a blank token
//   - Extension is empty
func (c *Chunk) Validate() error {
	if c.Index < 0 {
		return fmt.Errorf("index cannot be negative")
	}

	if c.Frames <= 0 {
		return fmt.Errorf("frames must be greater than 0")
	}

	if len(c.SourceCmd) == 0 || strings.TrimSpace(c.SourceCmd[0]) == "" {
		return fmt.Errorf("source_cmd cannot be empty")
	}

	if strings.TrimSpace(c.Extension) == "" {
		return fmt.Errorf("output_ext cannot be empty")
	}

	return nil
}

// Equal reports whether two chunks carry identical fields, token for token.
func (c *Chunk) Equal(o *Chunk) bool {
	if c == nil || o == nil {
		return c == o
	}
	if c.Index != o.Index || c.Extension != o.Extension || c.Size != o.Size || c.Frames != o.Frames {
		return false
	}
	if !equalTokens(c.SourceCmd, o.SourceCmd) || len(c.PassCmds) != len(o.PassCmds) {
		return false
	}
	for i := range c.PassCmds {
		if !equalTokens(c.PassCmds[i], o.PassCmds[i]) {
			return false
		}
	}
	return true
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TotalFrames sums the frame counts of a queue.
func TotalFrames(chunks []*Chunk) int {
	total := 0
	for _, c := range chunks {
		total += c.Frames
	}
	return total
}
