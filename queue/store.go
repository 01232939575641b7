// Package queue persists the chunk queue and assembles it for a run.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"chunkqueue/models"
)

// FileName is the queue document's file name inside the work directory.
const FileName = "chunks.json"

// Path returns the queue document location for workDir.
func Path(workDir string) string {
	return filepath.Join(workDir, FileName)
}

// Save writes the queue to workDir/chunks.json in the given order.
//
// The document is written to a temporary file and renamed into place so an
// interrupted save never leaves a truncated queue behind.
func Save(workDir string, chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("cannot save an empty chunk queue")
	}

	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %s: %w", c.Name(), err)
		}
	}

	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode chunk queue: %w", err)
	}

	tmp, err := os.CreateTemp(workDir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create queue file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write queue file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write queue file: %w", err)
	}

	if err := os.Rename(tmp.Name(), Path(workDir)); err != nil {
		return fmt.Errorf("failed to replace queue file: %w", err)
	}

	return nil
}

// Load reads workDir/chunks.json back in saved order.
//
// Every failure wraps ErrCorruptQueueState: a queue that cannot be trusted
// must not be rebuilt silently, since new boundaries would no longer match
// the names in the done record.
func Load(workDir string) ([]*models.Chunk, error) {
	path := Path(workDir)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", models.ErrCorruptQueueState, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptQueueState, err)
	}

	var chunks []*models.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrCorruptQueueState, path, err)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s holds no chunks", models.ErrCorruptQueueState, path)
	}

	seen := make(map[int]bool, len(chunks))
	for i, c := range chunks {
		if c == nil {
			return nil, fmt.Errorf("%w: entry %d is null", models.ErrCorruptQueueState, i)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", models.ErrCorruptQueueState, i, err)
		}
		if seen[c.Index] {
			return nil, fmt.Errorf("%w: duplicate chunk %s", models.ErrCorruptQueueState, c.Name())
		}
		seen[c.Index] = true
	}

	return chunks, nil
}
