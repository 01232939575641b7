package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHUNKQUEUE_"

// DefaultEnvFile is read when present in the current directory.
const DefaultEnvFile = ".env"

// MergeFromEnv applies CHUNKQUEUE_* overrides from envFile and the process
// environment. The process environment wins over the file. A missing
// envFile is not an error.
func (c *Config) MergeFromEnv(envFile string) error {
	vars := map[string]string{}

	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			vars[k] = v
		}
	}

	return c.applyEnv(vars)
}

func (c *Config) applyEnv(vars map[string]string) error {
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := vars[EnvPrefix+key]; ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := vars[EnvPrefix+key]
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %q is not a number", EnvPrefix, key, v))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := vars[EnvPrefix+key]
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s%s: %q is not a boolean", EnvPrefix, key, v))
			return
		}
		*dst = b
	}

	str("INPUT", &c.Input)
	str("WORK_DIR", &c.WorkDir)
	str("METHOD", &c.Method)
	str("SPLITS_FILE", &c.SplitsFile)
	flag("RESUME", &c.Resume)

	str("FFMPEG", &c.Tools.FFmpeg)
	str("FFPROBE", &c.Tools.FFprobe)
	str("VSPIPE", &c.Tools.VSPipe)
	str("PIX_FORMAT", &c.Tools.PixFormat)

	str("ENCODER", &c.Encode.Encoder)
	num("PASSES", &c.Encode.Passes)
	if v := vars[EnvPrefix+"ENCODER_PARAMS"]; v != "" {
		c.Encode.Params = strings.Fields(v)
	}

	str("VMAF_RESOLUTION", &c.Score.Resolution)
	num("VMAF_THREADS", &c.Score.Threads)
	str("VMAF_MODEL", &c.Score.ModelPath)
	str("VMAF_FILTER", &c.Score.Filter)
	num("VMAF_RATE", &c.Score.Rate)

	str("SERVE_ADDR", &c.Serve.Addr)
	if v := vars[EnvPrefix+"ALLOW_ORIGINS"]; v != "" {
		c.Serve.AllowOrigins = splitList(v)
	}
	flag("VERBOSE", &c.Verbose)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// splitList splits a comma-separated value and drops empty items.
func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
