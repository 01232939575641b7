// Package score compares an encoded chunk against the chunk's source frames
// with ffmpeg's libvmaf filter.
//
// The chunk's frame-source command and the scoring ffmpeg run as two
// processes joined by an OS pipe:
//
//	source_cmd ──stdout──▶ ffmpeg -r 60 -i encoded -r 60 -i - ... libvmaf
package score

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"

	"chunkqueue/models"
)

const (
	// DefaultResolution is the size both streams are scaled to before scoring.
	DefaultResolution = "1920x1080"

	// referenceRate is the frame rate forced on both inputs.
	referenceRate = "60"
)

// Scorer builds and runs score pipelines for chunks of one work directory.
type Scorer struct {
	ffmpeg     string
	workDir    string
	resolution string
	threads    int
	modelPath  string
	filter     string
	logger     *slog.Logger
}

// NewScorer creates a new Scorer using ffmpeg from PATH.
func NewScorer(workDir string) *Scorer {
	return &Scorer{
		ffmpeg:     "ffmpeg",
		workDir:    workDir,
		resolution: DefaultResolution,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetBinary sets the ffmpeg executable
func (s *Scorer) SetBinary(ffmpeg string) *Scorer {
	if ffmpeg != "" {
		s.ffmpeg = ffmpeg
	}
	return s
}

// SetResolution sets the comparison resolution (WIDTHxHEIGHT)
func (s *Scorer) SetResolution(res string) *Scorer {
	if res != "" {
		s.resolution = res
	}
	return s
}

// SetThreads sets libvmaf's n_threads; 0 leaves it to libvmaf
func (s *Scorer) SetThreads(n int) *Scorer {
	s.threads = n
	return s
}

// SetModelPath sets libvmaf's model_path
func (s *Scorer) SetModelPath(path string) *Scorer {
	s.modelPath = path
	return s
}

// SetFilter sets a filter applied to the source frames before scaling
func (s *Scorer) SetFilter(filter string) *Scorer {
	s.filter = filter
	return s
}

// SetLogger sets the logger
func (s *Scorer) SetLogger(l *slog.Logger) *Scorer {
	if l != nil {
		s.logger = l
	}
	return s
}

// LogPath returns where the score log of c is written when no explicit
// output path is given.
func (s *Scorer) LogPath(c *models.Chunk, outputPath string) string {
	if outputPath != "" {
		return outputPath
	}
	return c.ScoreLogPath(s.workDir)
}

// BuildArgs constructs the scoring ffmpeg arguments.
//
// Input 0 is the encoded file, input 1 is the frame stream on stdin. With a
// positive rate only every rate-th source frame is compared. logPath and the
// model path are shell-quoted inside the libvmaf option string.
func (s *Scorer) BuildArgs(encoded string, rate int, logPath string) ([]string, error) {
	if err := models.CheckEmbeddablePath(encoded); err != nil {
		return nil, err
	}
	if err := models.CheckEmbeddablePath(logPath); err != nil {
		return nil, err
	}
	if rate < 0 {
		return nil, fmt.Errorf("sampling rate cannot be negative: %d", rate)
	}

	scale := fmt.Sprintf("scale=%s:flags=bicubic:force_original_aspect_ratio=decrease,setpts=PTS-STARTPTS", s.resolution)

	var selectExpr string
	if rate > 0 {
		selectExpr = fmt.Sprintf(`select=not(mod(n\,%d)),setpts=%s*PTS,`,
			rate, strconv.FormatFloat(1/float64(rate), 'g', -1, 64))
	}

	var prefilter string
	if s.filter != "" {
		prefilter = s.filter + ","
	}

	vmaf := "[distorted][ref]libvmaf=log_fmt='json':eof_action=endall:log_path=" + shellescape.Quote(logPath)
	if s.modelPath != "" {
		if err := models.CheckEmbeddablePath(s.modelPath); err != nil {
			return nil, err
		}
		vmaf += ":model_path=" + shellescape.Quote(s.modelPath)
	}
	if s.threads > 0 {
		vmaf += ":n_threads=" + strconv.Itoa(s.threads)
	}

	graph := "[0:v]" + scale + "[distorted];" +
		"[1:v]" + selectExpr + prefilter + scale + "[ref];" +
		vmaf

	return []string{
		"-loglevel", "error",
		"-y",
		"-thread_queue_size", "1024",
		"-hide_banner",
		"-r", referenceRate, "-i", encoded,
		"-r", referenceRate, "-i", "-",
		"-filter_complex", graph,
		"-f", "null", "-",
	}, nil
}

// DryRun renders the pipeline for a chunk as a shell-like line.
func (s *Scorer) DryRun(c *models.Chunk, encoded string, rate int, outputPath string) (string, error) {
	args, err := s.BuildArgs(encoded, rate, s.LogPath(c, outputPath))
	if err != nil {
		return "", err
	}

	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}

	return fmt.Sprintf("%s | %s %s",
		shellescape.QuoteCommand(c.SourceCmd), s.ffmpeg, strings.Join(quoted, " ")), nil
}
