// Package command generates the encoder pass commands attached to every chunk.
//
// Pass commands are opaque token lists: the queue only stores them, and the
// worker pool runs each pass with the chunk's frame-source command piped into
// its standard input ("-" in the templates below).
package command

import (
	"fmt"
	"os"
	"strings"

	"chunkqueue/models"
)

// Encoder identifies a supported encoder.
type Encoder string

const (
	EncoderAOM    Encoder = "aom"     // aomenc (AV1)
	EncoderRav1e  Encoder = "rav1e"   // rav1e (AV1)
	EncoderSVTAV1 Encoder = "svt_av1" // SvtAv1EncApp (AV1)
	EncoderVPX    Encoder = "vpx"     // vpxenc (VP9)
	EncoderX264   Encoder = "x264"    // x264 (H.264)
	EncoderX265   Encoder = "x265"    // x265 (HEVC)
)

// EncoderValues returns the supported encoder names.
func EncoderValues() []string {
	return []string{
		string(EncoderAOM), string(EncoderRav1e), string(EncoderSVTAV1),
		string(EncoderVPX), string(EncoderX264), string(EncoderX265),
	}
}

// IsValidEncoder checks if an encoder name is supported.
func IsValidEncoder(name string) bool {
	for _, valid := range EncoderValues() {
		if name == valid {
			return true
		}
	}
	return false
}

// Extension returns the container suffix the encoder writes.
func (e Encoder) Extension() string {
	switch e {
	case EncoderX264, EncoderX265:
		return "mkv"
	default:
		return "ivf"
	}
}

// DefaultParams returns the encoder parameters used when none are configured.
func (e Encoder) DefaultParams() []string {
	switch e {
	case EncoderAOM:
		return []string{"--threads=8", "--cpu-used=6", "--end-usage=q", "--cq-level=30"}
	case EncoderRav1e:
		return []string{"--speed", "6", "--quantizer", "100"}
	case EncoderSVTAV1:
		return []string{"--preset", "8", "--crf", "30"}
	case EncoderVPX:
		return []string{"--codec=vp9", "-b", "10", "--profile=2", "--threads=4", "--cpu-used=2", "--end-usage=q", "--cq-level=30"}
	case EncoderX264:
		return []string{"--preset", "slow", "--crf", "25"}
	case EncoderX265:
		return []string{"-p", "slow", "--crf", "25", "-D", "10"}
	default:
		return nil
	}
}

// PassBuilder builds pass commands for one encoder configuration.
type PassBuilder struct {
	encoder Encoder
	workDir string
	passes  int
	params  []string
}

// NewPassBuilder creates a new single-pass PassBuilder with default parameters
func NewPassBuilder(encoder Encoder, workDir string) *PassBuilder {
	return &PassBuilder{
		encoder: encoder,
		workDir: workDir,
		passes:  1,
	}
}

// SetPasses sets the number of passes (1 or 2)
func (p *PassBuilder) SetPasses(passes int) *PassBuilder {
	p.passes = passes
	return p
}

// SetParams replaces the encoder's default parameters
func (p *PassBuilder) SetParams(params []string) *PassBuilder {
	p.params = params
	return p
}

// Extension returns the output suffix of the configured encoder.
func (p *PassBuilder) Extension() string {
	return p.encoder.Extension()
}

// Validate checks the builder configuration.
func (p *PassBuilder) Validate() error {
	if !IsValidEncoder(string(p.encoder)) {
		return fmt.Errorf("unknown encoder '%s', must be one of: %s",
			p.encoder, strings.Join(EncoderValues(), ", "))
	}
	if p.passes != 1 && p.passes != 2 {
		return fmt.Errorf("passes must be 1 or 2, got %d", p.passes)
	}
	if p.workDir == "" {
		return fmt.Errorf("work directory cannot be empty")
	}
	return nil
}

// Passes returns the ordered pass commands for a chunk.
//
// Two-pass encodes write the first pass to the null device and share a
// statistics file under split/.
func (p *PassBuilder) Passes(c *models.Chunk) ([][]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	params := p.params
	if len(params) == 0 {
		params = p.encoder.DefaultParams()
	}

	out := c.OutputPath(p.workDir)
	fpf := c.StatsPath(p.workDir)

	if p.passes == 1 {
		return [][]string{p.onePass(params, out)}, nil
	}

	first, second := p.twoPass(params, fpf, out)
	return [][]string{first, second}, nil
}

func (p *PassBuilder) onePass(params []string, out string) []string {
	switch p.encoder {
	case EncoderAOM:
		return join([]string{"aomenc", "--passes=1"}, params, []string{"-o", out, "-"})
	case EncoderRav1e:
		return join([]string{"rav1e", "-", "-y"}, params, []string{"--output", out})
	case EncoderSVTAV1:
		return join([]string{"SvtAv1EncApp", "-i", "stdin", "--progress", "2"}, params, []string{"-b", out})
	case EncoderVPX:
		return join([]string{"vpxenc", "--passes=1"}, params, []string{"-o", out, "-"})
	case EncoderX264:
		return join([]string{"x264", "--stitchable", "--log-level", "error", "--demuxer", "y4m"}, params, []string{"-", "-o", out})
	default:
		return join([]string{"x265", "--y4m"}, params, []string{"-", "-o", out})
	}
}

func (p *PassBuilder) twoPass(params []string, fpf, out string) ([]string, []string) {
	null := os.DevNull
	switch p.encoder {
	case EncoderAOM:
		return join([]string{"aomenc", "--passes=2", "--pass=1"}, params, []string{"--fpf=" + fpf + ".log", "-o", null, "-"}),
			join([]string{"aomenc", "--passes=2", "--pass=2"}, params, []string{"--fpf=" + fpf + ".log", "-o", out, "-"})
	case EncoderRav1e:
		return join([]string{"rav1e", "-", "-y", "--quiet"}, params, []string{"--first-pass", fpf + ".stat", "--output", null}),
			join([]string{"rav1e", "-", "-y", "--quiet"}, params, []string{"--second-pass", fpf + ".stat", "--output", out})
	case EncoderSVTAV1:
		return join([]string{"SvtAv1EncApp", "-i", "stdin", "--progress", "2"}, params, []string{"--pass", "1", "--stats", fpf + ".stat", "-b", null}),
			join([]string{"SvtAv1EncApp", "-i", "stdin", "--progress", "2"}, params, []string{"--pass", "2", "--stats", fpf + ".stat", "-b", out})
	case EncoderVPX:
		return join([]string{"vpxenc", "--passes=2", "--pass=1"}, params, []string{"--fpf=" + fpf + ".log", "-o", null, "-"}),
			join([]string{"vpxenc", "--passes=2", "--pass=2"}, params, []string{"--fpf=" + fpf + ".log", "-o", out, "-"})
	case EncoderX264:
		return join([]string{"x264", "--stitchable", "--log-level", "error", "--pass", "1", "--demuxer", "y4m"}, params, []string{"-", "--stats", fpf + ".log", "-o", null}),
			join([]string{"x264", "--stitchable", "--log-level", "error", "--pass", "2", "--demuxer", "y4m"}, params, []string{"-", "--stats", fpf + ".log", "-o", out})
	default:
		return join([]string{"x265", "--y4m", "--pass", "1"}, params, []string{"--stats", fpf + ".log", "-", "-o", null}),
			join([]string{"x265", "--y4m", "--pass", "2"}, params, []string{"--stats", fpf + ".log", "-", "-o", out})
	}
}

// DryRun renders every pass of a chunk as shell-like lines.
func (p *PassBuilder) DryRun(c *models.Chunk) (string, error) {
	passes, err := p.Passes(c)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(passes))
	for i, pass := range passes {
		lines[i] = strings.Join(c.SourceCmd, " ") + " | " + strings.Join(pass, " ")
	}
	return strings.Join(lines, "\n"), nil
}

func join(parts ...[]string) []string {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]string, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
