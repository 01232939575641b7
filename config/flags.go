package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// MergeFromFlags parses command-line arguments (without the program name)
// and overrides config values
func (c *Config) MergeFromFlags(args []string) error {
	// Define flags
	fs := flag.NewFlagSet("chunkqueue", flag.ContinueOnError)
	fs.Usage = printUsage

	// Required fields
	input := fs.String("input", "", "Source video file path (required)")

	// Config and env file overrides (handled by LoadConfig before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")
	_ = fs.String("env-file", "", "Path to .env file (default: ./.env)")

	// Queue settings
	workDir := fs.String("work-dir", "", "Work directory (default: .chunkqueue-<name> next to input)")
	method := fs.String("method", "", "Chunk method: segment, select, script (default: from config)")
	splits := fs.String("splits", "", "Comma-separated split frames, e.g., 30,70")
	splitsFile := fs.String("splits-file", "", "JSON array of split frames")
	resume := fs.Bool("resume", false, "Resume from the saved chunk queue")

	// Tools
	ffmpeg := fs.String("ffmpeg", "", "ffmpeg executable (default: from config)")
	ffprobe := fs.String("ffprobe", "", "ffprobe executable (default: from config)")
	vspipe := fs.String("vspipe", "", "vspipe executable (default: from config)")
	pixFormat := fs.String("pix-format", "", "Pixel format of the raw frame stream (default: from config)")

	// Encode settings
	encoder := fs.String("encoder", "", "Encoder: aom, rav1e, svt_av1, vpx, x264, x265 (default: from config)")
	passes := fs.Int("passes", -1, "Encoder passes: 1 or 2 (default: from config)")
	params := fs.String("params", "", "Encoder parameters, replacing the defaults")

	// Score settings
	scoreChunk := fs.String("score", "", "Score one chunk by name, e.g., 00003")
	encoded := fs.String("encoded", "", "Encoded chunk file to score")
	scoreRate := fs.Int("score-rate", -1, "Compare every Nth frame (default: from config)")
	scoreOutput := fs.String("score-output", "", "Score log path (default: split/<name>.json)")
	vmafRes := fs.String("vmaf-res", "", "Comparison resolution, e.g., 1920x1080 (default: from config)")
	vmafThreads := fs.Int("vmaf-threads", -1, "libvmaf threads (default: from config)")
	vmafModel := fs.String("vmaf-model", "", "libvmaf model path (default: from config)")
	vmafFilter := fs.String("vmaf-filter", "", "Filter applied to source frames before scoring")

	// API settings
	serve := fs.Bool("serve", false, "Serve the queue over HTTP")
	addr := fs.String("addr", "", "HTTP listen address (default: from config)")
	allowOrigins := fs.String("allow-origins", "", "Comma-separated browser origins allowed to call the API")

	// Behavioral flags
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	dryRun := fs.Bool("dry-run", false, "Show configuration and commands without running")

	// Parse flags
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Override with flag values (only if explicitly set)
	if *input != "" {
		c.Input = *input
	}

	// Queue settings
	if *workDir != "" {
		c.WorkDir = *workDir
	}
	if *method != "" {
		c.Method = *method
	}
	if *splits != "" {
		parsed, err := ParseSplits(*splits)
		if err != nil {
			return err
		}
		c.Splits = parsed
	}
	if *splitsFile != "" {
		c.SplitsFile = *splitsFile
	}
	if *resume {
		c.Resume = true
	}

	// Tools
	if *ffmpeg != "" {
		c.Tools.FFmpeg = *ffmpeg
	}
	if *ffprobe != "" {
		c.Tools.FFprobe = *ffprobe
	}
	if *vspipe != "" {
		c.Tools.VSPipe = *vspipe
	}
	if *pixFormat != "" {
		c.Tools.PixFormat = *pixFormat
	}

	// Encode settings (-1 means not set)
	if *encoder != "" {
		c.Encode.Encoder = *encoder
	}
	if *passes >= 0 {
		c.Encode.Passes = *passes
	}
	if *params != "" {
		c.Encode.Params = strings.Fields(*params)
	}

	// Score settings
	if *scoreChunk != "" {
		c.Score.Chunk = *scoreChunk
	}
	if *encoded != "" {
		c.Score.Encoded = *encoded
	}
	if *scoreRate >= 0 {
		c.Score.Rate = *scoreRate
	}
	if *scoreOutput != "" {
		c.Score.Output = *scoreOutput
	}
	if *vmafRes != "" {
		c.Score.Resolution = *vmafRes
	}
	if *vmafThreads >= 0 {
		c.Score.Threads = *vmafThreads
	}
	if *vmafModel != "" {
		c.Score.ModelPath = *vmafModel
	}
	if *vmafFilter != "" {
		c.Score.Filter = *vmafFilter
	}

	// API settings
	if *serve {
		c.Serve.Enabled = true
	}
	if *addr != "" {
		c.Serve.Addr = *addr
	}
	if *allowOrigins != "" {
		c.Serve.AllowOrigins = splitList(*allowOrigins)
	}

	// Behavioral flags
	if *verbose {
		c.Verbose = true
	}
	if *dryRun {
		c.DryRun = true
	}

	return nil
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `chunkqueue - Resumable chunk queue and quality scoring for chunked encodes

USAGE:
  chunkqueue -input FILE [OPTIONS]

REQUIRED FLAGS:
  -input string
        Source video file path (required)

CONFIGURATION:
  -config string
        Path to config file (default: search ./chunkqueue.yaml, ~/.chunkqueue/config.yaml, /etc/chunkqueue/config.yaml)
  -env-file string
        Path to .env file with CHUNKQUEUE_* overrides (default: ./.env)

QUEUE SETTINGS:
  -work-dir string
        Work directory (default: .chunkqueue-<name> next to the input)
  -method string
        Chunk method: segment, select, script (default: select)
  -splits string
        Comma-separated split frames, e.g., 30,70
  -splits-file string
        JSON array of split frames, e.g., scene detection output
  --resume
        Reload chunks.json and skip chunks listed in done.json

TOOLS:
  -ffmpeg, -ffprobe, -vspipe string
        Executables (default: from PATH)
  -pix-format string
        Pixel format of the raw frame stream (default: yuv420p10le)

ENCODE SETTINGS:
  -encoder string
        Encoder: aom, rav1e, svt_av1, vpx, x264, x265 (default: aom)
  -passes int
        Encoder passes: 1 or 2 (default: 1)
  -params string
        Encoder parameters, replacing the encoder defaults

SCORE SETTINGS:
  -score string
        Score one chunk by name, e.g., 00003 (requires -encoded)
  -encoded string
        Encoded chunk file to score
  -score-rate int
        Compare every Nth frame (default: 0 = all frames)
  -score-output string
        Score log path (default: <work-dir>/split/<name>.json)
  -vmaf-res string
        Comparison resolution (default: 1920x1080)
  -vmaf-threads int
        libvmaf threads (default: libvmaf default)
  -vmaf-model string
        libvmaf model path (default: built-in model)
  -vmaf-filter string
        Filter applied to source frames before scoring

API:
  --serve
        Serve the queue and score endpoint over HTTP
  -addr string
        Listen address (default: 127.0.0.1:8080)
  -allow-origins string
        Comma-separated browser origins allowed to call the API (default: none)

BEHAVIORAL FLAGS:
  --verbose
        Enable debug logging
  --dry-run
        Show effective configuration and commands without running

EXAMPLES:
  # Build the queue with scene splits
  chunkqueue -input movie.mkv -splits-file scenes.json

  # Frame-accurate chunks with two-pass x265
  chunkqueue -input movie.mkv -method script -splits 240,480 -encoder x265 -passes 2

  # Resume an interrupted run and serve the remaining queue
  chunkqueue -input movie.mkv --resume --serve

  # Score one encoded chunk
  chunkqueue -input movie.mkv -score 00003 -encoded .chunkqueue-movie/encode/00003.ivf

CONFIGURATION FILES:
  Config files are searched in order:
    1. ./chunkqueue.yaml
    2. ~/.chunkqueue/config.yaml
    3. /etc/chunkqueue/config.yaml

  Priority: CLI flags > Environment > .env file > Config file > Defaults

`)
}

// PrintConfig prints the effective configuration
func (c *Config) PrintConfig() {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                 Effective Configuration                  ")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("Input:          %s\n", c.Input)
	fmt.Printf("Work Dir:       %s\n", c.ResolveWorkDir())
	fmt.Printf("Method:         %s\n", c.Method)
	if len(c.Splits) > 0 {
		fmt.Printf("Splits:         %d frames\n", len(c.Splits))
	}
	if c.SplitsFile != "" {
		fmt.Printf("Splits File:    %s\n", c.SplitsFile)
	}
	fmt.Printf("Resume:         %v\n", c.Resume)

	fmt.Println("\nTools:")
	fmt.Printf("  ffmpeg:       %s\n", c.Tools.FFmpeg)
	fmt.Printf("  ffprobe:      %s\n", c.Tools.FFprobe)
	if c.Method == "script" {
		fmt.Printf("  vspipe:       %s\n", c.Tools.VSPipe)
	}
	fmt.Printf("  Pixel Format: %s\n", c.Tools.PixFormat)

	fmt.Println("\nEncode Settings:")
	fmt.Printf("  Encoder:      %s\n", c.Encode.Encoder)
	fmt.Printf("  Passes:       %d\n", c.Encode.Passes)
	if len(c.Encode.Params) > 0 {
		fmt.Printf("  Params:       %s\n", strings.Join(c.Encode.Params, " "))
	}

	fmt.Println("\nScore Settings:")
	fmt.Printf("  Resolution:   %s\n", c.Score.Resolution)
	if c.Score.Threads > 0 {
		fmt.Printf("  Threads:      %d\n", c.Score.Threads)
	}
	if c.Score.ModelPath != "" {
		fmt.Printf("  Model:        %s\n", c.Score.ModelPath)
	}
	if c.Score.Rate > 0 {
		fmt.Printf("  Rate:         every %d frames\n", c.Score.Rate)
	}

	fmt.Println("\nBehavioral Flags:")
	fmt.Printf("  Serve:        %v", c.Serve.Enabled)
	if c.Serve.Enabled {
		fmt.Printf(" (%s)", c.Serve.Addr)
	}
	fmt.Println()
	fmt.Printf("  Verbose:      %v\n", c.Verbose)
	fmt.Println("═══════════════════════════════════════════════════════════")
}
