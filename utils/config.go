package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds solver-harness configuration
type Config struct {
	Architecture []int
	TrySolvers   []string
	TimeLimit    time.Duration
	LBNoise      float64
}

// ParseArchitecture parses architecture string into slice of integers
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, err
		}
		arch[i] = n
	}
	return arch, nil
}

// ParseSolvers parses a comma-separated backend preference list
func ParseSolvers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig validates solver-harness configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("architecture must have at least 2 layers (input and output)")
	}
	for i, n := range config.Architecture {
		if n <= 0 {
			return fmt.Errorf("layer %d must have a positive number of neurons", i)
		}
	}

	if config.TimeLimit < 0 {
		return fmt.Errorf("time limit must be non-negative")
	}

	if config.LBNoise <= 0 || config.LBNoise >= 1 {
		return fmt.Errorf("lower-bound noise must be in (0,1)")
	}

	return nil
}
