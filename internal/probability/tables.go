package probability

import (
	"fmt"
	"math"

	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/pkg/formulas"
)

// Entry is the declare-now outcome of a (flips, heads) state: the verdict the
// posterior favours and the expected payoff of declaring it, net of flips spent.
type Entry struct {
	Label domain.Verdict `json:"label" msgpack:"label"`
	Value float64        `json:"value" msgpack:"value"`
}

// Tables holds every precomputed quantity of a game. It is immutable after
// NewTables returns and safe for concurrent readers.
type Tables struct {
	params Params

	// binomial[n][k] = C(n, k), 0 <= k <= n <= MaxFlips
	binomial [][]float64

	// rewards[flips][heads], 0 <= heads <= flips <= MaxFlips
	rewards [][]Entry

	// flipLevel[flips] = E[rewards[flips][H].Value] under the prior marginal of H
	flipLevel []float64

	bestFlipLevel int
}

// NewTables validates params and builds all tables
func NewTables(params Params) (*Tables, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	t := &Tables{params: params}
	t.buildBinomial()
	t.buildRewards()
	t.buildFlipLevel()
	return t, nil
}

// MustNewTables is NewTables for parameters known to be valid
func MustNewTables(params Params) *Tables {
	t, err := NewTables(params)
	if err != nil {
		panic(err)
	}
	return t
}

// Params returns the constants the tables were built from
func (t *Tables) Params() Params {
	return t.params
}

// MaxFlips is the largest flip count the tables cover
func (t *Tables) MaxFlips() int {
	return t.params.MaxFlips
}

// Cap is the flip count at which every policy must declare
func (t *Tables) Cap() int {
	return t.params.MaxFlips - 1
}

// InDomain reports whether 0 <= heads <= flips <= MaxFlips
func (t *Tables) InDomain(flips, heads int) bool {
	return heads >= 0 && flips >= heads && flips <= t.params.MaxFlips
}

func (t *Tables) mustInDomain(flips, heads int) {
	if !t.InDomain(flips, heads) {
		panic(t.domainError(flips, heads))
	}
}

func (t *Tables) domainError(flips, heads int) error {
	return fmt.Errorf("%w: flips=%d heads=%d max_flips=%d", domain.ErrOutOfDomain, flips, heads, t.params.MaxFlips)
}

// Binomial returns C(n, k)
func (t *Tables) Binomial(n, k int) float64 {
	t.mustInDomain(n, k)
	return t.binomial[n][k]
}

// BinomialPMF returns P(X = x) for X ~ Binomial(n, p)
func (t *Tables) BinomialPMF(x, n int, p float64) float64 {
	t.mustInDomain(n, x)
	return t.binomial[n][x] * math.Pow(p, float64(x)) * math.Pow(1-p, float64(n-x))
}

// Fairness is the posterior probability that the coin is fair after observing
// heads out of flips. With no flips it is the prior.
func (t *Tables) Fairness(flips, heads int) float64 {
	t.mustInDomain(flips, heads)
	if flips == 0 {
		return t.params.PPriorFair
	}

	fair := t.BinomialPMF(heads, flips, t.params.PHeadsFair) * t.params.PPriorFair
	cheat := t.BinomialPMF(heads, flips, t.params.PHeadsCheat) * (1 - t.params.PPriorFair)
	return fair / (fair + cheat)
}

// HeadsProbability is the marginal probability of observing heads out of flips
// under the configured prior
func (t *Tables) HeadsProbability(flips, heads int) float64 {
	return t.HeadsProbabilityWithPrior(flips, heads, t.params.PPriorFair)
}

// HeadsProbabilityWithPrior is HeadsProbability with an explicit belief that the coin is fair
func (t *Tables) HeadsProbabilityWithPrior(flips, heads int, priorFair float64) float64 {
	return priorFair*t.BinomialPMF(heads, flips, t.params.PHeadsFair) +
		(1-priorFair)*t.BinomialPMF(heads, flips, t.params.PHeadsCheat)
}

// LabelAndValue evaluates the declare-now entry of a state from scratch.
// Ties at fairness 0.5 favour FAIR.
func (t *Tables) LabelAndValue(flips, heads int) Entry {
	fairness := t.Fairness(flips, heads)
	spent := float64(flips)
	if fairness >= 0.5 {
		return Entry{
			Label: domain.VerdictFair,
			Value: t.params.RewardCorrect*fairness + t.params.PenaltyIncorrect*(1-fairness) - spent,
		}
	}
	return Entry{
		Label: domain.VerdictCheat,
		Value: t.params.PenaltyIncorrect*fairness + t.params.RewardCorrect*(1-fairness) - spent,
	}
}

// Reward returns the precomputed entry of a state. Out-of-domain queries panic.
func (t *Tables) Reward(flips, heads int) Entry {
	t.mustInDomain(flips, heads)
	return t.rewards[flips][heads]
}

// Lookup is Reward for boundary code that wants an error instead of a panic
func (t *Tables) Lookup(flips, heads int) (Entry, error) {
	if !t.InDomain(flips, heads) {
		return Entry{}, t.domainError(flips, heads)
	}
	return t.rewards[flips][heads], nil
}

// FlipLevelExpectedReward is the expected declare-now value after flips flips,
// before the heads count is known
func (t *Tables) FlipLevelExpectedReward(flips int) float64 {
	t.mustInDomain(flips, 0)
	return t.flipLevel[flips]
}

// FlipLevelExpectedRewards returns a copy of the whole flip-level series
func (t *Tables) FlipLevelExpectedRewards() []float64 {
	out := make([]float64, len(t.flipLevel))
	copy(out, t.flipLevel)
	return out
}

// BestFlipLevel is the first flip count maximising FlipLevelExpectedReward
func (t *Tables) BestFlipLevel() int {
	return t.bestFlipLevel
}

func (t *Tables) buildBinomial() {
	n := t.params.MaxFlips
	t.binomial = make([][]float64, n+1)
	for row := 0; row <= n; row++ {
		t.binomial[row] = make([]float64, row+1)
		t.binomial[row][0] = 1
		t.binomial[row][row] = 1
		for k := 1; k < row; k++ {
			t.binomial[row][k] = t.binomial[row-1][k-1] + t.binomial[row-1][k]
		}
	}
}

// buildRewards fills the reward table in increasing flip order. The flips=0
// row uses the prior directly through Fairness.
func (t *Tables) buildRewards() {
	n := t.params.MaxFlips
	t.rewards = make([][]Entry, n+1)
	for flips := 0; flips <= n; flips++ {
		row := make([]Entry, flips+1)
		for heads := 0; heads <= flips; heads++ {
			row[heads] = t.LabelAndValue(flips, heads)
		}
		t.rewards[flips] = row
	}
}

func (t *Tables) buildFlipLevel() {
	n := t.params.MaxFlips
	t.flipLevel = make([]float64, n+1)
	for flips := 0; flips <= n; flips++ {
		var mean float64
		for heads := 0; heads <= flips; heads++ {
			mean += t.rewards[flips][heads].Value * t.HeadsProbability(flips, heads)
		}
		t.flipLevel[flips] = mean
	}
	// The origin level is the prior payoff whatever label (0,0) carries
	t.flipLevel[0] = t.params.PPriorFair*t.params.RewardCorrect + (1-t.params.PPriorFair)*t.params.PenaltyIncorrect
	t.bestFlipLevel = formulas.ArgMax(t.flipLevel)
}
