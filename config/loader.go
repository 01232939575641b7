package config

import (
	"fmt"
)

// LoadConfig loads configuration with priority:
// CLI flags > Environment > .env file > Config file > Defaults
func LoadConfig(args []string) (*Config, error) {
	// 1. Start with defaults
	cfg := DefaultConfig()

	// 2. Check if -config / -env-file were provided (quick scan to extract them)
	configPath := flagValue(args, "config")
	envFile := flagValue(args, "env-file")

	// If no config flag, try to find config file in standard locations
	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Load config file if found
	if configPath != "" {
		fileCfg, err := LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		// Merge file config (overwrites defaults)
		cfg = fileCfg
	}

	// 3. Merge .env file and CHUNKQUEUE_* environment
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := cfg.MergeFromEnv(envFile); err != nil {
		return nil, err
	}

	// 4. Merge CLI flags (highest priority, overwrites everything)
	if err := cfg.MergeFromFlags(args); err != nil {
		return nil, err
	}

	// Split frames from a file are appended to any given inline
	if cfg.SplitsFile != "" {
		fileSplits, err := LoadSplitsFile(cfg.SplitsFile)
		if err != nil {
			return nil, err
		}
		cfg.Splits = append(cfg.Splits, fileSplits...)
	}

	cfg.WorkDir = cfg.ResolveWorkDir()

	// Validate final configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// flagValue returns the value of -name or --name in args, in either
// "-name value" or "-name=value" form.
func flagValue(args []string, name string) string {
	for i, arg := range args {
		for _, prefix := range []string{"-" + name, "--" + name} {
			if arg == prefix && i+1 < len(args) {
				return args[i+1]
			}
			if len(arg) > len(prefix) && arg[:len(prefix)+1] == prefix+"=" {
				return arg[len(prefix)+1:]
			}
		}
	}
	return ""
}
