package policy

import (
	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/probability"
)

// condition decides when a policy stops flipping and estimates what one more
// flip is worth. shouldEnd may advance one-shot state; reset re-arms it.
type condition interface {
	shouldEnd(flips, heads int) bool
	continuation(flips, heads int) float64
	reset()
	clone() condition
}

// Phase is the one-shot state of a calm policy within a trial
type Phase int

const (
	// PhaseArmed means the inner end condition has not fired yet this trial
	PhaseArmed Phase = iota
	// PhaseTriggered means it fired once and was ignored
	PhaseTriggered
)

func (p Phase) String() string {
	if p == PhaseTriggered {
		return "triggered"
	}
	return "armed"
}

type baseCondition struct {
	kind   Kind
	tables *probability.Tables
}

// headProbability is the kind's estimate of heads on the flip after (flips, heads)
func (c *baseCondition) headProbability(flips, heads int) float64 {
	params := c.tables.Params()
	switch c.kind {
	case KindFanatic, KindSincereFanatic:
		if c.tables.Reward(flips, heads).Label == domain.VerdictFair {
			return params.PHeadsFair
		}
		return params.PHeadsCheat
	case KindBelief:
		return params.HeadProbability(c.tables.Fairness(flips, heads))
	default:
		return params.PriorHeadProbability()
	}
}

func (c *baseCondition) continuation(flips, heads int) float64 {
	if flips >= c.tables.MaxFlips() {
		return c.tables.Reward(flips, heads).Value
	}
	if c.kind == KindNoBelief {
		return c.tables.FlipLevelExpectedReward(flips + 1)
	}

	p := c.headProbability(flips, heads)
	return p*c.tables.Reward(flips+1, heads+1).Value + (1-p)*c.tables.Reward(flips+1, heads).Value
}

func (c *baseCondition) shouldEnd(flips, heads int) bool {
	switch c.kind {
	case KindNoBelief:
		return flips >= c.tables.BestFlipLevel()
	case KindSincereFanatic:
		if flips <= SincereWarmup {
			return false
		}
	}
	return c.tables.Reward(flips, heads).Value > c.continuation(flips, heads)
}

func (c *baseCondition) reset() {}

func (c *baseCondition) clone() condition {
	cp := *c
	return &cp
}

type calmCondition struct {
	inner condition
	phase Phase
}

func (c *calmCondition) shouldEnd(flips, heads int) bool {
	if !c.inner.shouldEnd(flips, heads) {
		return false
	}
	if c.phase == PhaseArmed {
		c.phase = PhaseTriggered
		return false
	}
	return true
}

func (c *calmCondition) continuation(flips, heads int) float64 {
	return c.inner.continuation(flips, heads)
}

func (c *calmCondition) reset() {
	c.phase = PhaseArmed
	c.inner.reset()
}

func (c *calmCondition) clone() condition {
	return &calmCondition{inner: c.inner.clone(), phase: PhaseArmed}
}

type indecisiveCondition struct {
	base         *baseCondition
	significance float64
	mode         LookaheadMode
}

func (c *indecisiveCondition) isSignificant(flips, heads int) bool {
	fairness := c.base.tables.Fairness(flips, heads)
	return fairness < c.significance || fairness > 1-c.significance
}

func (c *indecisiveCondition) shouldEnd(flips, heads int) bool {
	return c.isSignificant(flips, heads)
}

// continuation is the expected declare value of flipping until the posterior
// is significant or the cap is reached, starting from (flips, heads). Paths
// through the same state are merged, so each level holds one probability mass
// per heads count.
func (c *indecisiveCondition) continuation(flips, heads int) float64 {
	tables := c.base.tables
	limit := tables.Cap()

	fixed := c.base.kind == KindBelief && c.mode == LookaheadQuery
	var queryP float64
	if fixed {
		queryP = c.base.headProbability(flips, heads)
	}

	var expected float64
	level := []float64{1} // level[i] is the mass at heads+i
	for f := flips; len(level) > 0; f++ {
		next := make([]float64, len(level)+1)
		live := false
		for i, mass := range level {
			if mass == 0 {
				continue
			}
			h := heads + i
			if f >= limit || c.isSignificant(f, h) {
				expected += mass * tables.Reward(f, h).Value
				continue
			}

			p := queryP
			if !fixed {
				p = c.base.headProbability(f, h)
			}
			next[i] += mass * (1 - p)
			next[i+1] += mass * p
			live = true
		}
		if !live {
			break
		}
		level = next
	}
	return expected
}

func (c *indecisiveCondition) reset() {}

func (c *indecisiveCondition) clone() condition {
	cp := *c
	cp.base = c.base.clone().(*baseCondition)
	return &cp
}
