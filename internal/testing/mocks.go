package testing

import (
	"math/rand/v2"
	"sync/atomic"
)

// CountingSource wraps a source and counts how many draws were taken from it
type CountingSource struct {
	inner rand.Source
	draws atomic.Int64
}

// NewCountingSource wraps inner
func NewCountingSource(inner rand.Source) *CountingSource {
	return &CountingSource{inner: inner}
}

// Uint64 implements rand.Source
func (s *CountingSource) Uint64() uint64 {
	s.draws.Add(1)
	return s.inner.Uint64()
}

// Draws returns the number of values handed out so far
func (s *CountingSource) Draws() int64 {
	return s.draws.Load()
}
