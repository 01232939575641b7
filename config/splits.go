package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseSplits parses a comma-separated list of frame indices: "30,70".
func ParseSplits(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	splits := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid split frame %q: %w", p, err)
		}
		splits = append(splits, n)
	}

	return splits, nil
}

// LoadSplitsFile reads split frame indices from a JSON array such as the
// output of a scene detection pass: [30, 70, 112].
func LoadSplitsFile(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read splits file: %w", err)
	}

	var splits []int
	if err := json.Unmarshal(data, &splits); err != nil {
		return nil, fmt.Errorf("failed to parse splits file %s: %w", path, err)
	}

	return splits, nil
}
