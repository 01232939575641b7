package config

import (
	"fmt"
	"os"
	"strings"

	"chunkqueue/chunker"
	"chunkqueue/command"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	// Required fields
	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else {
		// Check if input file exists
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
		}
	}

	// Validate method
	if !chunker.IsValidMethod(c.Method) {
		errors = append(errors, fmt.Sprintf("invalid method '%s', must be one of: %s",
			c.Method, strings.Join(chunker.MethodValues(), ", ")))
	}

	// Validate splits (range against the frame count is checked when chunking)
	for _, s := range c.Splits {
		if s < 0 {
			errors = append(errors, fmt.Sprintf("split frame cannot be negative: %d", s))
			break
		}
	}

	// Validate tools
	if err := c.Tools.Validate(c.Method); err != nil {
		errors = append(errors, fmt.Sprintf("tools config: %v", err))
	}

	// Validate encode config
	if err := c.Encode.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("encode config: %v", err))
	}

	// Validate score config
	if err := c.Score.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("score config: %v", err))
	}

	// Scoring one chunk and serving are separate invocations
	if c.Score.Chunk != "" && c.Serve.Enabled {
		errors = append(errors, "-score and -serve cannot be combined")
	}

	if c.Serve.Enabled && c.Serve.Addr == "" {
		errors = append(errors, "serve address is required")
	}

	for _, origin := range c.Serve.AllowOrigins {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errors = append(errors, fmt.Sprintf("allowed origin must be an http(s) URL: %q", origin))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if tools configuration is valid for a chunk method
func (tc *ToolsConfig) Validate(method string) error {
	var errors []string

	if tc.FFmpeg == "" {
		errors = append(errors, "ffmpeg is required")
	}

	if tc.FFprobe == "" {
		errors = append(errors, "ffprobe is required")
	}

	if method == string(chunker.MethodScript) && tc.VSPipe == "" {
		errors = append(errors, "vspipe is required for the script method")
	}

	if tc.PixFormat == "" {
		errors = append(errors, "pixel format is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if encode configuration is valid
func (ec *EncodeConfig) Validate() error {
	var errors []string

	if !command.IsValidEncoder(ec.Encoder) {
		errors = append(errors, fmt.Sprintf("invalid encoder '%s', must be one of: %s",
			ec.Encoder, strings.Join(command.EncoderValues(), ", ")))
	}

	if ec.Passes != 1 && ec.Passes != 2 {
		errors = append(errors, "passes must be 1 or 2")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if score configuration is valid
func (sc *ScoreConfig) Validate() error {
	var errors []string

	if !isValidResolution(sc.Resolution) || sc.Resolution == "" {
		errors = append(errors, "resolution must be in format WIDTHxHEIGHT (e.g., 1920x1080)")
	}

	if sc.Threads < 0 {
		errors = append(errors, "threads cannot be negative (use 0 for libvmaf default)")
	}

	if sc.Rate < 0 {
		errors = append(errors, "rate cannot be negative (use 0 for every frame)")
	}

	if sc.Chunk != "" && sc.Encoded == "" {
		errors = append(errors, "-encoded is required with -score")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// isValidResolution checks if resolution string is valid (e.g., "1920x1080")
func isValidResolution(res string) bool {
	if res == "" {
		return true
	}

	parts := strings.Split(res, "x")
	if len(parts) != 2 {
		return false
	}

	// Check if both parts are numeric
	var width, height int
	_, err1 := fmt.Sscanf(parts[0], "%d", &width)
	_, err2 := fmt.Sscanf(parts[1], "%d", &height)

	return err1 == nil && err2 == nil && width > 0 && height > 0
}
