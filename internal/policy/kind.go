package policy

import (
	"fmt"
	"strings"

	"github.com/aristath/fairorcheat/internal/domain"
)

// Kind selects how a policy estimates the value of one more flip
type Kind int

const (
	// KindNoBelief stops at the flip count with the best unconditional expected reward
	KindNoBelief Kind = iota
	// KindWeakBelief projects the next flip with the prior head probability
	KindWeakBelief
	// KindFanatic projects the next flip with the head probability of the currently favoured coin type
	KindFanatic
	// KindBelief projects the next flip with the posterior-weighted head probability
	KindBelief
	// KindSincereFanatic is Fanatic that never stops during the warm-up window
	KindSincereFanatic
)

// SincereWarmup is the number of flips a sincere fanatic always observes.
// The value was picked empirically.
const SincereWarmup = 5

var kindNames = map[Kind]string{
	KindNoBelief:       "no_belief",
	KindWeakBelief:     "weak_belief",
	KindFanatic:        "fanatic",
	KindBelief:         "belief",
	KindSincereFanatic: "sincere_fanatic",
}

var kindTitles = map[Kind]string{
	KindNoBelief:       "No Belief",
	KindWeakBelief:     "Weak Belief",
	KindFanatic:        "Fanatic",
	KindBelief:         "Belief",
	KindSincereFanatic: "Sincere Fanatic",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Title is the human-readable name used in reports
func (k Kind) Title() string {
	if title, ok := kindTitles[k]; ok {
		return title
	}
	return k.String()
}

// ParseKind accepts the snake_case names used in roster files
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown policy kind %q", domain.ErrInvalidConfig, s)
}

// Decorator wraps a kind's end condition
type Decorator int

const (
	// DecoratorNone uses the kind's end condition as is
	DecoratorNone Decorator = iota
	// DecoratorCalm ignores the first time the end condition fires in a trial
	DecoratorCalm
	// DecoratorIndecisive ends only on a significant posterior and looks ahead until one is reached
	DecoratorIndecisive
)

func (d Decorator) String() string {
	switch d {
	case DecoratorNone:
		return ""
	case DecoratorCalm:
		return "calm"
	case DecoratorIndecisive:
		return "indecisive"
	}
	return fmt.Sprintf("decorator(%d)", int(d))
}

// ParseDecorator accepts "", "none", "calm" and "indecisive"
func ParseDecorator(s string) (Decorator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DecoratorNone, nil
	case "calm":
		return DecoratorCalm, nil
	case "indecisive":
		return DecoratorIndecisive, nil
	}
	return 0, fmt.Errorf("%w: unknown decorator %q", domain.ErrInvalidConfig, s)
}

// LookaheadMode selects which state the posterior-weighted head probability
// is taken from while an indecisive belief policy expands future flips.
type LookaheadMode int

const (
	// LookaheadFrontier recomputes the posterior at every expanded node
	LookaheadFrontier LookaheadMode = iota
	// LookaheadQuery reuses the posterior of the queried state for every node
	LookaheadQuery
)

func (m LookaheadMode) String() string {
	if m == LookaheadQuery {
		return "query"
	}
	return "frontier"
}

// ParseLookaheadMode accepts "frontier" (default when empty) and "query"
func ParseLookaheadMode(s string) (LookaheadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frontier":
		return LookaheadFrontier, nil
	case "query":
		return LookaheadQuery, nil
	}
	return 0, fmt.Errorf("%w: unknown lookahead mode %q", domain.ErrInvalidConfig, s)
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText encodes the decorator by name
func (d Decorator) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Decorator) UnmarshalText(b []byte) error {
	parsed, err := ParseDecorator(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText encodes the mode by name
func (m LookaheadMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *LookaheadMode) UnmarshalText(b []byte) error {
	parsed, err := ParseLookaheadMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
