package chunker

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"chunkqueue/models"
)

// Method selects how chunk boundaries become frame-source commands.
type Method string

const (
	// MethodSegment splits the source into files and decodes each file.
	MethodSegment Method = "segment"
	// MethodSelect decodes the whole source and keeps a frame range with the select filter.
	MethodSelect Method = "select"
	// MethodScript seeks frame-accurately through a vspipe load script.
	MethodScript Method = "script"
)

// MethodValues returns the valid chunk methods.
func MethodValues() []string {
	return []string{string(MethodSegment), string(MethodSelect), string(MethodScript)}
}

// IsValidMethod checks if a method name is known.
func IsValidMethod(m string) bool {
	for _, valid := range MethodValues() {
		if m == valid {
			return true
		}
	}
	return false
}

// FrameProber returns the number of video frames in a media file.
//
// This interface decouples the chunker from specific probing implementations
// (ffprobe, ffms2, etc.), making it more testable.
type FrameProber interface {
	FrameCount(path string) (int, error)
}

// PassGenerator produces the encoder pass commands for a chunk.
//
// Passes is called exactly once per chunk, before the chunk is returned to
// the caller. Extension is the container suffix of the encoder output.
type PassGenerator interface {
	Passes(chunk *models.Chunk) ([][]string, error)
	Extension() string
}

// Segmenter splits the source into segment files under workDir/split.
type Segmenter interface {
	Segment(sourcePath, workDir string, splits []int) error
}

// Env is the read-only input shared by every Builder.
type Env struct {
	SourcePath string
	WorkDir    string
	FFmpeg     string
	VSPipe     string
	PixFormat  string
	Prober     FrameProber
	Passes     PassGenerator
	Segmenter  Segmenter // nil when segment files already exist
	Indexer    Indexer   // nil means VSPipeIndexer with VSPipe
	Logger     *slog.Logger
}

// SplitDir returns the directory holding segments, scripts and pass stats.
func (e *Env) SplitDir() string {
	return filepath.Join(e.WorkDir, "split")
}

// Builder turns split locations into an ordered list of chunks. Builders are
// stateless; every input comes from Env.
type Builder interface {
	Build(env *Env, splits []int) ([]*models.Chunk, error)
}

// BuilderFor returns the Builder implementing a chunk method.
func BuilderFor(m Method) (Builder, error) {
	switch m {
	case MethodSegment:
		return segmentBuilder{}, nil
	case MethodSelect:
		return selectBuilder{}, nil
	case MethodScript:
		return scriptBuilder{}, nil
	default:
		return nil, fmt.Errorf("unknown chunk method '%s', must be one of: %s",
			m, strings.Join(MethodValues(), ", "))
	}
}

// Chunker builds the chunk list for one source with the configured method.
type Chunker struct {
	env    Env
	method Method
}

// NewChunker creates a new Chunker using the select method and ffmpeg/vspipe
// from PATH.
func NewChunker(sourcePath, workDir string) *Chunker {
	return &Chunker{
		env: Env{
			SourcePath: sourcePath,
			WorkDir:    workDir,
			FFmpeg:     "ffmpeg",
			VSPipe:     "vspipe",
			PixFormat:  "yuv420p10le",
		},
		method: MethodSelect,
	}
}

// SetMethod sets the chunk method
func (c *Chunker) SetMethod(m Method) *Chunker {
	c.method = m
	return c
}

// SetProber sets the frame-count probe
func (c *Chunker) SetProber(p FrameProber) *Chunker {
	c.env.Prober = p
	return c
}

// SetPassGenerator sets the pass-command collaborator
func (c *Chunker) SetPassGenerator(g PassGenerator) *Chunker {
	c.env.Passes = g
	return c
}

// SetSegmenter sets the segmentation collaborator used by the segment method
func (c *Chunker) SetSegmenter(s Segmenter) *Chunker {
	c.env.Segmenter = s
	return c
}

// SetIndexer sets the frame-index builder used by the script method
func (c *Chunker) SetIndexer(i Indexer) *Chunker {
	c.env.Indexer = i
	return c
}

// SetBinaries overrides the ffmpeg and vspipe executables used in frame-source commands
func (c *Chunker) SetBinaries(ffmpeg, vspipe string) *Chunker {
	if ffmpeg != "" {
		c.env.FFmpeg = ffmpeg
	}
	if vspipe != "" {
		c.env.VSPipe = vspipe
	}
	return c
}

// SetPixelFormat sets the pixel format of the raw frame stream
func (c *Chunker) SetPixelFormat(pixFmt string) *Chunker {
	c.env.PixFormat = pixFmt
	return c
}

// SetLogger sets the logger
func (c *Chunker) SetLogger(l *slog.Logger) *Chunker {
	c.env.Logger = l
	return c
}

// Method returns the configured chunk method.
func (c *Chunker) Method() Method {
	return c.method
}

// CreateChunks builds the chunk list in construction order (index order).
//
// Construction errors (ErrInvalidBoundary, ErrNoSegmentsFound, ErrPathEncoding)
// are returned as is; no partial list is ever returned alongside an error.
func (c *Chunker) CreateChunks(splits []int) ([]*models.Chunk, error) {
	if c.env.SourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}

	if c.env.WorkDir == "" {
		return nil, fmt.Errorf("work directory cannot be empty")
	}

	if c.env.Prober == nil {
		return nil, fmt.Errorf("frame prober cannot be nil")
	}

	if c.env.Passes == nil {
		return nil, fmt.Errorf("pass generator cannot be nil")
	}

	if c.env.Logger == nil {
		c.env.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	builder, err := BuilderFor(c.method)
	if err != nil {
		return nil, err
	}

	chunks, err := builder.Build(&c.env, splits)
	if err != nil {
		return nil, err
	}

	c.env.Logger.Debug("chunks built",
		"method", c.method,
		"chunks", len(chunks),
		"frames", models.TotalFrames(chunks))

	return chunks, nil
}

// buildChunk creates a complete chunk: the pass commands are attached before
// the chunk is returned, so no caller ever sees a chunk without them.
func buildChunk(env *Env, index int, sourceCmd []string, size int64, frames int) (*models.Chunk, error) {
	c := &models.Chunk{
		Index:     index,
		SourceCmd: sourceCmd,
		Extension: env.Passes.Extension(),
		Size:      size,
		Frames:    frames,
	}

	if frames <= 0 {
		return nil, fmt.Errorf("%w: chunk %s has %d frames", models.ErrInvalidBoundary, c.Name(), frames)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk %s: %w", c.Name(), err)
	}

	passes, err := env.Passes.Passes(c)
	if err != nil {
		return nil, fmt.Errorf("failed to generate passes for chunk %s: %w", c.Name(), err)
	}
	c.PassCmds = passes

	return c, nil
}

// rawFrameOutput is the tail shared by ffmpeg frame-source commands.
func rawFrameOutput(pixFmt string) []string {
	return []string{
		"-strict", "-1",
		"-pix_fmt", pixFmt,
		"-bufsize", "50000K",
		"-f", "yuv4mpegpipe", "-",
	}
}

// ValidateChunks checks a queue in construction order for completeness.
func ValidateChunks(chunks []*models.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("chunk list is empty")
	}

	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("chunk %d is invalid: %w", i, err)
		}
		if chunk.Index != i {
			return fmt.Errorf("chunk %d has incorrect index: expected %d, got %d", i, i, chunk.Index)
		}
		if len(chunk.PassCmds) == 0 {
			return fmt.Errorf("chunk %d has no pass commands", i)
		}
	}

	firstExt := chunks[0].Extension
	for i, chunk := range chunks {
		if chunk.Extension != firstExt {
			return fmt.Errorf("chunk %d has different extension: expected %s, got %s",
				i, firstExt, chunk.Extension)
		}
	}

	return nil
}
