package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// ParseFloatCSV parses a comma-separated list of floats, e.g. "0.05, 0.1"
func ParseFloatCSV(s string) ([]float64, error) {
	fields := ParseCSV(s)
	if fields == nil {
		return nil, nil
	}

	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", f, err)
		}
		values = append(values, v)
	}
	return values, nil
}
