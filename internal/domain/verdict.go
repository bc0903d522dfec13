// Package domain provides core domain types shared by the decision engine.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Verdict is a policy's answer for a coin at a given state
type Verdict int

const (
	// VerdictTest means keep flipping
	VerdictTest Verdict = iota
	// VerdictFair declares the coin fair
	VerdictFair
	// VerdictCheat declares the coin biased
	VerdictCheat
)

func (v Verdict) String() string {
	switch v {
	case VerdictFair:
		return "FAIR"
	case VerdictCheat:
		return "CHEAT"
	case VerdictTest:
		return "TEST"
	default:
		return "?"
	}
}

// IsFinal reports whether the verdict ends the trial
func (v Verdict) IsFinal() bool {
	return v == VerdictFair || v == VerdictCheat
}

// Matches reports whether a final verdict is correct for a coin of the given fairness
func (v Verdict) Matches(isFair bool) bool {
	return (v == VerdictFair && isFair) || (v == VerdictCheat && !isFair)
}

// ParseVerdict is the inverse of String
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FAIR":
		return VerdictFair, nil
	case "CHEAT":
		return VerdictCheat, nil
	case "TEST":
		return VerdictTest, nil
	}
	return VerdictTest, fmt.Errorf("unknown verdict %q", s)
}

// MarshalText lets verdicts travel as strings in JSON, YAML and msgpack payloads
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (v *Verdict) UnmarshalText(b []byte) error {
	parsed, err := ParseVerdict(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

var (
	// ErrInvalidConfig is wrapped by every configuration validation failure
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrOutOfDomain is wrapped when a (flips, heads) query falls outside 0 <= heads <= flips <= maxFlips
	ErrOutOfDomain = errors.New("state outside table domain")
)
