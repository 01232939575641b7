// Package resume reads the record of chunks a previous run already finished.
package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the done record's file name inside the work directory.
const FileName = "done.json"

// DoneReader returns the done record of a work directory.
type DoneReader interface {
	Read(workDir string) (*Record, error)
}

// Record is the on-disk done record. Done maps chunk name to the number of
// frames that were encoded for it.
type Record struct {
	Done      map[string]int `json:"done"`
	AudioDone bool           `json:"audio_done"`
}

// Names returns the completed chunk names in sorted order.
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.Done))
	for name := range r.Done {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FramesDone sums the frames of every completed chunk.
func (r *Record) FramesDone() int {
	total := 0
	for _, f := range r.Done {
		total += f
	}
	return total
}

// FileReader reads workDir/done.json. It never writes the record; the worker
// pool that finishes chunks owns it.
type FileReader struct{}

// Path returns the done record location for workDir.
func Path(workDir string) string {
	return filepath.Join(workDir, FileName)
}

// Read implements DoneReader. A missing file yields an empty record.
func (FileReader) Read(workDir string) (*Record, error) {
	data, err := os.ReadFile(Path(workDir))
	if errors.Is(err, os.ErrNotExist) {
		return &Record{Done: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read done record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse done record %s: %w", Path(workDir), err)
	}
	if rec.Done == nil {
		rec.Done = map[string]int{}
	}

	return &rec, nil
}
