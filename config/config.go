package config

import (
	"path/filepath"
	"strings"

	"chunkqueue/chunker"
	"chunkqueue/command"
	"chunkqueue/score"
)

// Config holds all chunk queue configuration options
type Config struct {
	// Required fields
	Input string `yaml:"input"`

	// Queue settings
	WorkDir    string `yaml:"work_dir"`    // empty = .chunkqueue-<stem> next to the input
	Method     string `yaml:"method"`      // "segment", "select", "script"
	Splits     []int  `yaml:"splits"`      // split frame indices
	SplitsFile string `yaml:"splits_file"` // JSON array of split frame indices
	Resume     bool   `yaml:"resume"`      // reload chunks.json instead of rebuilding

	// External tools
	Tools ToolsConfig `yaml:"tools"`

	// Encoder pass settings
	Encode EncodeConfig `yaml:"encode"`

	// Quality score settings
	Score ScoreConfig `yaml:"score"`

	// HTTP API settings
	Serve ServeConfig `yaml:"serve"`

	// Behavioral flags
	Verbose bool `yaml:"verbose"` // Show debug logs
	DryRun  bool `yaml:"dry_run"` // Show config and commands without running
}

// ToolsConfig holds executable names or paths
type ToolsConfig struct {
	FFmpeg    string `yaml:"ffmpeg"`
	FFprobe   string `yaml:"ffprobe"`
	VSPipe    string `yaml:"vspipe"`
	PixFormat string `yaml:"pix_format"` // pixel format of the raw frame stream
}

// EncodeConfig holds the settings used to generate pass commands
type EncodeConfig struct {
	Encoder string   `yaml:"encoder"` // e.g., "aom", "svt_av1", "x265"
	Passes  int      `yaml:"passes"`  // 1 or 2
	Params  []string `yaml:"params"`  // replaces the encoder defaults when set
}

// ScoreConfig holds the libvmaf pipeline settings
type ScoreConfig struct {
	Resolution string `yaml:"resolution"` // comparison size, e.g., "1920x1080"
	Threads    int    `yaml:"threads"`    // libvmaf n_threads (0 = libvmaf default)
	ModelPath  string `yaml:"model_path"` // libvmaf model (empty = built-in)
	Filter     string `yaml:"filter"`     // filter applied to source frames before scaling
	Rate       int    `yaml:"rate"`       // compare every Nth frame (0 = all)

	// Single-chunk invocation, flags only
	Chunk   string `yaml:"-"`
	Encoded string `yaml:"-"`
	Output  string `yaml:"-"`
}

// ServeConfig holds the HTTP API settings
type ServeConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// AllowOrigins lists the browser origins allowed to call the API. Empty
	// means no cross-origin access.
	AllowOrigins []string `yaml:"allow_origins"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		// Required - must be provided by user
		Input: "",

		// Queue defaults (select needs no segmentation step)
		WorkDir: "",
		Method:  string(chunker.MethodSelect),

		// Tools from PATH
		Tools: ToolsConfig{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			VSPipe:    "vspipe",
			PixFormat: "yuv420p10le",
		},

		// Encode defaults (AV1, single pass)
		Encode: EncodeConfig{
			Encoder: string(command.EncoderAOM),
			Passes:  1,
		},

		// Score defaults
		Score: ScoreConfig{
			Resolution: score.DefaultResolution,
		},

		// API defaults
		Serve: ServeConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8080",
		},

		// Behavioral defaults
		Verbose: false,
		DryRun:  false,
	}
}

// ResolveWorkDir returns the configured work directory, or the default one
// next to the input: /videos/movie.mkv -> /videos/.chunkqueue-movie
func (c *Config) ResolveWorkDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	if c.Input == "" {
		return ""
	}
	base := filepath.Base(c.Input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(c.Input), ".chunkqueue-"+stem)
}
