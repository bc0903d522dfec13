// Package coin implements the two-stage random coin: a fair-or-cheat draw at
// construction, then Bernoulli flips with the matching head probability.
package coin

import (
	"math/rand/v2"

	"github.com/aristath/fairorcheat/internal/probability"
	"gonum.org/v1/gonum/stat/distuv"
)

// Coin is owned by a single trial. Flips and heads only ever grow by one per Flip.
type Coin struct {
	isFair bool
	flips  int
	heads  int
	toss   distuv.Bernoulli
}

// New draws the coin's fairness from the prior and prepares its flip distribution.
// Both draws come from src, so a seeded source replays the same coin.
func New(params probability.Params, src rand.Source) *Coin {
	isFair := distuv.Bernoulli{P: params.PPriorFair, Src: src}.Rand() == 1
	return WithFairness(isFair, params, src)
}

// WithFairness builds a coin whose type is already known
func WithFairness(isFair bool, params probability.Params, src rand.Source) *Coin {
	p := params.PHeadsCheat
	if isFair {
		p = params.PHeadsFair
	}
	return &Coin{
		isFair: isFair,
		toss:   distuv.Bernoulli{P: p, Src: src},
	}
}

// Flip tosses the coin once and reports whether it landed heads
func (c *Coin) Flip() bool {
	c.flips++
	if c.toss.Rand() == 1 {
		c.heads++
		return true
	}
	return false
}

// IsFair reports the hidden type of the coin
func (c *Coin) IsFair() bool {
	return c.isFair
}

// Flips is the number of tosses so far
func (c *Coin) Flips() int {
	return c.flips
}

// Heads is the number of tosses that landed heads
func (c *Coin) Heads() int {
	return c.heads
}
