package testing

import (
	"math/rand/v2"

	"github.com/aristath/fairorcheat/internal/probability"
)

// uniformScale maps a float in [0,1) onto the 53-bit mantissa math/rand/v2 uses for Float64
const uniformScale = 1 << 53

// ConstantSource returns the same uniform draw u forever
type ConstantSource struct {
	value uint64
}

// NewConstantSource creates a source whose Float64 is always u (u in [0,1))
func NewConstantSource(u float64) *ConstantSource {
	return &ConstantSource{value: uint64(u * uniformScale)}
}

// Uint64 implements rand.Source
func (s *ConstantSource) Uint64() uint64 {
	return s.value
}

// AlwaysHeads yields draws below every head probability: every flip is heads
// and every coin drawn from the prior is fair.
func AlwaysHeads() rand.Source {
	return NewConstantSource(0)
}

// AlwaysTails yields draws above every head probability: every flip is tails
// and every coin drawn from the prior is a cheat.
func AlwaysTails() rand.Source {
	return NewConstantSource(0.999999)
}

// SequenceSource replays a fixed list of uniform draws, cycling when exhausted
type SequenceSource struct {
	values []uint64
	next   int
}

// NewSequenceSource creates a source replaying draws in order
func NewSequenceSource(draws ...float64) *SequenceSource {
	values := make([]uint64, len(draws))
	for i, u := range draws {
		values[i] = uint64(u * uniformScale)
	}
	return &SequenceSource{values: values}
}

// Uint64 implements rand.Source
func (s *SequenceSource) Uint64() uint64 {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// SeededSource returns a deterministic PCG source
func SeededSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// DefaultTables returns tables for the reference game (0.5 / 0.75 / 0.5, 15 flips, +15 / -30)
func DefaultTables() *probability.Tables {
	return probability.MustNewTables(probability.DefaultParams())
}
