// Package policy implements the stopping policies that decide, after each flip,
// whether to keep testing a coin or declare it fair or cheating.
package policy

import (
	"fmt"
	"math"

	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/probability"
	"github.com/rs/zerolog"
)

// DefaultSignificance is the significance level indecisive policies use when none is configured
const DefaultSignificance = 0.05

// Coin is what a policy needs from the coin under test
type Coin interface {
	Flip() bool
	Flips() int
	Heads() int
	IsFair() bool
}

// Spec describes a policy: its kind, an optional decorator and its starting fund
type Spec struct {
	Kind         Kind          `json:"kind"`
	Decorator    Decorator     `json:"decorator"`
	Significance float64       `json:"significance,omitempty"`
	Lookahead    LookaheadMode `json:"lookahead"`
	Fund         int           `json:"fund"`
}

// Name is the report name, e.g. "Calm Fanatic" or "Indecisive Belief (0.05)"
func (s Spec) Name() string {
	switch s.Decorator {
	case DecoratorCalm:
		return "Calm " + s.Kind.Title()
	case DecoratorIndecisive:
		name := fmt.Sprintf("Indecisive %s (%g)", s.Kind.Title(), s.Significance)
		if s.Kind == KindBelief && s.Lookahead == LookaheadQuery {
			name += " [query]"
		}
		return name
	}
	return s.Kind.Title()
}

// Validate checks the combination of kind and decorator
func (s Spec) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("%w: unknown policy kind %d", domain.ErrInvalidConfig, int(s.Kind))
	}
	if s.Fund < 1 {
		return fmt.Errorf("%w: fund must be at least 1, got %d", domain.ErrInvalidConfig, s.Fund)
	}

	switch s.Decorator {
	case DecoratorNone, DecoratorCalm:
	case DecoratorIndecisive:
		switch s.Kind {
		case KindWeakBelief, KindFanatic, KindBelief:
		default:
			return fmt.Errorf("%w: indecisive decorator needs a weak_belief, fanatic or belief kind, got %s",
				domain.ErrInvalidConfig, s.Kind)
		}
		if !(s.Significance > 0 && s.Significance < 1) {
			return fmt.Errorf("%w: significance must be in (0,1), got %g", domain.ErrInvalidConfig, s.Significance)
		}
	default:
		return fmt.Errorf("%w: unknown decorator %d", domain.ErrInvalidConfig, int(s.Decorator))
	}
	return nil
}

// Policy is one stopping policy with its fund. A Policy is not safe for
// concurrent use; give each goroutine its own Clone.
type Policy struct {
	spec   Spec
	tables *probability.Tables
	cond   condition
	fund   int

	rewardCorrect    int
	penaltyIncorrect int

	log zerolog.Logger
}

// New builds a policy over shared tables
func New(tables *probability.Tables, spec Spec, log zerolog.Logger) (*Policy, error) {
	if tables == nil {
		return nil, fmt.Errorf("%w: tables must not be nil", domain.ErrInvalidConfig)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	params := tables.Params()
	if params.RewardCorrect != math.Trunc(params.RewardCorrect) || params.PenaltyIncorrect != math.Trunc(params.PenaltyIncorrect) {
		return nil, fmt.Errorf("%w: rewards must be whole numbers to settle an integer fund, got %g / %g",
			domain.ErrInvalidConfig, params.RewardCorrect, params.PenaltyIncorrect)
	}

	p := &Policy{
		spec:             spec,
		tables:           tables,
		cond:             buildCondition(tables, spec),
		fund:             spec.Fund,
		rewardCorrect:    int(params.RewardCorrect),
		penaltyIncorrect: int(params.PenaltyIncorrect),
	}
	p.log = log.With().
		Str("component", "policy").
		Str("policy", spec.Name()).
		Logger()
	return p, nil
}

func buildCondition(tables *probability.Tables, spec Spec) condition {
	base := &baseCondition{kind: spec.Kind, tables: tables}
	switch spec.Decorator {
	case DecoratorCalm:
		return &calmCondition{inner: base, phase: PhaseArmed}
	case DecoratorIndecisive:
		return &indecisiveCondition{base: base, significance: spec.Significance, mode: spec.Lookahead}
	}
	return base
}

// Name is the report name of the policy
func (p *Policy) Name() string {
	return p.spec.Name()
}

// Spec returns the policy description
func (p *Policy) Spec() Spec {
	return p.spec
}

// Tables returns the tables the policy reads
func (p *Policy) Tables() *probability.Tables {
	return p.tables
}

// Fund is the current fund
func (p *Policy) Fund() int {
	return p.fund
}

// SetFund overrides the current fund
func (p *Policy) SetFund(fund int) {
	p.fund = fund
}

// Phase reports the one-shot state of a calm policy; other policies are always armed
func (p *Policy) Phase() Phase {
	if calm, ok := p.cond.(*calmCondition); ok {
		return calm.phase
	}
	return PhaseArmed
}

// Reset restores the starting fund and re-arms one-shot state
func (p *Policy) Reset() {
	p.fund = p.spec.Fund
	p.cond.reset()
}

// Clone returns an independent policy over the same tables with a fresh fund
func (p *Policy) Clone() *Policy {
	cp := *p
	cp.cond = p.cond.clone()
	cp.fund = p.spec.Fund
	return &cp
}

// IsSignificant reports whether the posterior at (flips, heads) is outside
// [significance, 1-significance]. Non-indecisive policies have no threshold
// and always report false.
func (p *Policy) IsSignificant(flips, heads int) bool {
	if ind, ok := p.cond.(*indecisiveCondition); ok {
		return ind.isSignificant(flips, heads)
	}
	return false
}

// EndCondition reports whether the policy would stop at (flips, heads),
// ignoring the fund and the cap. Calm policies advance their one-shot state.
func (p *Policy) EndCondition(flips, heads int) bool {
	return p.cond.shouldEnd(flips, heads)
}

// Continuation is the policy's estimate of the value of testing further from (flips, heads)
func (p *Policy) Continuation(flips, heads int) float64 {
	return p.cond.continuation(flips, heads)
}

// Decide returns the verdict at (flips, heads), or VerdictTest to keep flipping.
// At the cap the table label is always returned.
func (p *Policy) Decide(flips, heads int) domain.Verdict {
	entry := p.tables.Reward(flips, heads)
	if flips >= p.tables.Cap() || p.cond.shouldEnd(flips, heads) {
		p.cond.reset()
		return entry.Label
	}
	return domain.VerdictTest
}

// ShouldStop reports whether testing of c ends now: the fund is spent, the
// cap is reached or the end condition holds. One-shot state re-arms on stop.
func (p *Policy) ShouldStop(c Coin) bool {
	if p.fund <= 0 || c.Flips() >= p.tables.Cap() || p.cond.shouldEnd(c.Flips(), c.Heads()) {
		p.cond.reset()
		return true
	}
	return false
}

// RunTrial flips c, paying one unit per flip, until ShouldStop
func (p *Policy) RunTrial(c Coin) {
	p.cond.reset()
	for !p.ShouldStop(c) {
		p.fund--
		c.Flip()
	}
}

// Verdict is the table label at the coin's current state
func (p *Policy) Verdict(c Coin) domain.Verdict {
	return p.tables.Reward(c.Flips(), c.Heads()).Label
}

// Settle declares the verdict for c and applies the reward or penalty to the fund
func (p *Policy) Settle(c Coin) bool {
	verdict := p.Verdict(c)
	correct := verdict.Matches(c.IsFair())
	if correct {
		p.fund += p.rewardCorrect
	} else {
		p.fund += p.penaltyIncorrect
	}

	p.log.Debug().
		Int("flips", c.Flips()).
		Int("heads", c.Heads()).
		Stringer("verdict", verdict).
		Bool("fair", c.IsFair()).
		Bool("correct", correct).
		Int("fund", p.fund).
		Msg("Trial settled")

	return correct
}
