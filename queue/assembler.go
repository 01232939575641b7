package queue

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"chunkqueue/chunker"
	"chunkqueue/models"
	"chunkqueue/resume"
)

// Assembler produces the working queue for a run: either a freshly built,
// priority-sorted queue or the persisted one minus completed chunks.
type Assembler struct {
	chunker *chunker.Chunker
	workDir string
	done    resume.DoneReader
	logger  *slog.Logger
}

// NewAssembler creates an Assembler that reads done.json from workDir.
func NewAssembler(c *chunker.Chunker, workDir string) *Assembler {
	return &Assembler{
		chunker: c,
		workDir: workDir,
		done:    resume.FileReader{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetDoneReader sets the source of the done record
func (a *Assembler) SetDoneReader(r resume.DoneReader) *Assembler {
	a.done = r
	return a
}

// SetLogger sets the logger
func (a *Assembler) SetLogger(l *slog.Logger) *Assembler {
	if l != nil {
		a.logger = l
	}
	return a
}

// WorkDir returns the run's working directory.
func (a *Assembler) WorkDir() string {
	return a.workDir
}

// Assemble builds the queue with the configured method and orders it
// largest first.
func (a *Assembler) Assemble(splits []int) ([]*models.Chunk, error) {
	if a.chunker == nil {
		return nil, fmt.Errorf("chunker cannot be nil")
	}

	chunks, err := a.chunker.CreateChunks(splits)
	if err != nil {
		return nil, err
	}

	if err := chunker.ValidateChunks(chunks); err != nil {
		return nil, err
	}

	SortBySize(chunks)
	return chunks, nil
}

// Queue is the chunk queue of a run.
type Queue struct {
	// All is the persisted queue in dispatch order.
	All []*models.Chunk
	// Remaining is All minus the chunks recorded as done.
	Remaining []*models.Chunk
	// FramesDone is the frame total of the done record.
	FramesDone int
}

// Resume loads the persisted queue and drops chunks already done. The
// persisted order is kept as is.
func (a *Assembler) Resume() (*Queue, error) {
	chunks, err := Load(a.workDir)
	if err != nil {
		return nil, err
	}

	rec, err := a.done.Read(a.workDir)
	if err != nil {
		return nil, err
	}

	remaining := FilterDone(chunks, rec.Names())
	a.logger.Info("queue resumed",
		"total", len(chunks),
		"done", len(chunks)-len(remaining),
		"frames_done", rec.FramesDone(),
		"remaining", len(remaining))

	return &Queue{All: chunks, Remaining: remaining, FramesDone: rec.FramesDone()}, nil
}

// LoadOrBuild returns the queue for a run. A fresh run discards the state of
// any earlier run in the work directory, then assembles the queue and
// persists it before returning.
func (a *Assembler) LoadOrBuild(resuming bool, splits []int) (*Queue, error) {
	if !resuming {
		if err := a.reset(); err != nil {
			return nil, err
		}
	}

	for _, dir := range []string{"split", "encode"} {
		if err := os.MkdirAll(filepath.Join(a.workDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create work directory: %w", err)
		}
	}

	if resuming {
		return a.Resume()
	}

	chunks, err := a.Assemble(splits)
	if err != nil {
		return nil, err
	}

	if err := Save(a.workDir, chunks); err != nil {
		return nil, err
	}

	a.logger.Info("queue built",
		"method", a.chunker.Method(),
		"chunks", len(chunks),
		"frames", models.TotalFrames(chunks))

	return &Queue{All: chunks, Remaining: chunks}, nil
}

// reset removes segments, encodes, the persisted queue and the done record
// left by an earlier run. Other files in the work directory are kept.
func (a *Assembler) reset() error {
	stale := []string{
		filepath.Join(a.workDir, "split"),
		filepath.Join(a.workDir, "encode"),
		Path(a.workDir),
		resume.Path(a.workDir),
	}

	for _, path := range stale {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to clear previous run state: %w", err)
		}
	}

	a.logger.Debug("previous run state cleared", "work_dir", a.workDir)
	return nil
}

// SortBySize orders chunks by Size, largest first. Equal sizes keep their
// construction order.
func SortBySize(chunks []*models.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Size > chunks[j].Size
	})
}

// FilterDone returns the chunks whose names are not in done, in their
// original relative order.
func FilterDone(chunks []*models.Chunk, done []string) []*models.Chunk {
	skip := make(map[string]struct{}, len(done))
	for _, name := range done {
		skip[name] = struct{}{}
	}

	remaining := make([]*models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := skip[c.Name()]; ok {
			continue
		}
		remaining = append(remaining, c)
	}
	return remaining
}

// Find returns the chunk with the given name, or nil.
func Find(chunks []*models.Chunk, name string) *models.Chunk {
	for _, c := range chunks {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
