package policy

import (
	"errors"
	"testing"

	"github.com/aristath/fairorcheat/internal/coin"
	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/probability"
	testingpkg "github.com/aristath/fairorcheat/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T, spec Spec) *Policy {
	t.Helper()
	if spec.Fund == 0 {
		spec.Fund = 100
	}
	if spec.Decorator == DecoratorIndecisive && spec.Significance == 0 {
		spec.Significance = DefaultSignificance
	}
	p, err := New(testingpkg.DefaultTables(), spec, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func headsCoin(isFair bool) *coin.Coin {
	return coin.WithFairness(isFair, probability.DefaultParams(), testingpkg.AlwaysHeads())
}

func tailsCoin(isFair bool) *coin.Coin {
	return coin.WithFairness(isFair, probability.DefaultParams(), testingpkg.AlwaysTails())
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr bool
	}{
		{"plain weak belief", Spec{Kind: KindWeakBelief, Fund: 10}, false},
		{"calm no belief", Spec{Kind: KindNoBelief, Decorator: DecoratorCalm, Fund: 10}, false},
		{"indecisive belief", Spec{Kind: KindBelief, Decorator: DecoratorIndecisive, Significance: 0.05, Fund: 10}, false},
		{"indecisive no belief", Spec{Kind: KindNoBelief, Decorator: DecoratorIndecisive, Significance: 0.05, Fund: 10}, true},
		{"indecisive sincere fanatic", Spec{Kind: KindSincereFanatic, Decorator: DecoratorIndecisive, Significance: 0.05, Fund: 10}, true},
		{"significance zero", Spec{Kind: KindFanatic, Decorator: DecoratorIndecisive, Significance: 0, Fund: 10}, true},
		{"significance one", Spec{Kind: KindFanatic, Decorator: DecoratorIndecisive, Significance: 1, Fund: 10}, true},
		{"no fund", Spec{Kind: KindFanatic, Fund: 0}, true},
		{"unknown kind", Spec{Kind: Kind(99), Fund: 10}, true},
		{"unknown decorator", Spec{Kind: KindFanatic, Decorator: Decorator(7), Fund: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSpec_Name(t *testing.T) {
	assert.Equal(t, "Weak Belief", Spec{Kind: KindWeakBelief}.Name())
	assert.Equal(t, "Calm Fanatic", Spec{Kind: KindFanatic, Decorator: DecoratorCalm}.Name())
	assert.Equal(t, "Indecisive Belief (0.05)",
		Spec{Kind: KindBelief, Decorator: DecoratorIndecisive, Significance: 0.05}.Name())
	assert.Equal(t, "Indecisive Belief (0.1) [query]",
		Spec{Kind: KindBelief, Decorator: DecoratorIndecisive, Significance: 0.1, Lookahead: LookaheadQuery}.Name())
}

func TestNew_RejectsFractionalRewards(t *testing.T) {
	params := probability.DefaultParams()
	params.RewardCorrect = 15.5
	tables := probability.MustNewTables(params)

	_, err := New(tables, Spec{Kind: KindFanatic, Fund: 10}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestNew_RejectsNilTables(t *testing.T) {
	_, err := New(nil, Spec{Kind: KindFanatic, Fund: 10}, zerolog.Nop())
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestNoBelief_CheatLeaningPriorStillFlips(t *testing.T) {
	params := probability.DefaultParams()
	params.PPriorFair = 0.3
	tables := probability.MustNewTables(params)

	p, err := New(tables, Spec{Kind: KindNoBelief, Fund: 100}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, domain.VerdictTest, p.Decide(0, 0))
	assert.Equal(t, domain.VerdictTest, p.Decide(1, 1))
	assert.True(t, p.Decide(2, 0).IsFinal())

	c := coin.WithFairness(false, params, testingpkg.AlwaysHeads())
	p.RunTrial(c)
	assert.Equal(t, 2, c.Flips())
	assert.Equal(t, 98, p.Fund())
}

func TestRunTrial_ScriptedCoins(t *testing.T) {
	tests := []struct {
		name      string
		spec      Spec
		allHeads  bool
		wantFlips int
		wantLabel domain.Verdict
	}{
		{"no belief heads", Spec{Kind: KindNoBelief}, true, 4, domain.VerdictCheat},
		{"no belief tails", Spec{Kind: KindNoBelief}, false, 4, domain.VerdictFair},
		{"weak belief heads", Spec{Kind: KindWeakBelief}, true, 2, domain.VerdictCheat},
		{"weak belief tails", Spec{Kind: KindWeakBelief}, false, 1, domain.VerdictFair},
		{"fanatic heads", Spec{Kind: KindFanatic}, true, 2, domain.VerdictCheat},
		{"belief tails", Spec{Kind: KindBelief}, false, 1, domain.VerdictFair},
		{"sincere fanatic heads", Spec{Kind: KindSincereFanatic}, true, 6, domain.VerdictCheat},
		{"sincere fanatic tails", Spec{Kind: KindSincereFanatic}, false, 6, domain.VerdictFair},
		{"calm no belief heads", Spec{Kind: KindNoBelief, Decorator: DecoratorCalm}, true, 5, domain.VerdictCheat},
		{"calm weak belief heads", Spec{Kind: KindWeakBelief, Decorator: DecoratorCalm}, true, 3, domain.VerdictCheat},
		{"calm fanatic tails", Spec{Kind: KindFanatic, Decorator: DecoratorCalm}, false, 2, domain.VerdictFair},
		{"calm belief heads", Spec{Kind: KindBelief, Decorator: DecoratorCalm}, true, 3, domain.VerdictCheat},
		{"indecisive weak belief heads", Spec{Kind: KindWeakBelief, Decorator: DecoratorIndecisive}, true, 8, domain.VerdictCheat},
		{"indecisive fanatic tails", Spec{Kind: KindFanatic, Decorator: DecoratorIndecisive}, false, 5, domain.VerdictFair},
		{"indecisive belief heads", Spec{Kind: KindBelief, Decorator: DecoratorIndecisive}, true, 8, domain.VerdictCheat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPolicy(t, tt.spec)
			c := tailsCoin(true)
			if tt.allHeads {
				c = headsCoin(false)
			}

			p.RunTrial(c)

			assert.Equal(t, tt.wantFlips, c.Flips())
			assert.Equal(t, 100-tt.wantFlips, p.Fund(), "one unit per flip")
			assert.Equal(t, tt.wantLabel, p.Verdict(c))
			assert.Equal(t, PhaseArmed, p.Phase(), "stop re-arms one-shot state")
		})
	}
}

func TestWeakBelief_AllHeadsDeclaresCheatByFiveFlips(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindWeakBelief})

	var verdict domain.Verdict
	flips := 0
	for ; flips <= 5; flips++ {
		verdict = p.Decide(flips, flips)
		if verdict.IsFinal() {
			break
		}
	}

	assert.Equal(t, domain.VerdictCheat, verdict)
	assert.LessOrEqual(t, flips, 5)
}

func TestDecide_CapAlwaysDeclares(t *testing.T) {
	tables := testingpkg.DefaultTables()
	specs := DefaultRoster(100, DefaultSignificance, LookaheadFrontier)

	for _, spec := range specs {
		t.Run(spec.Name(), func(t *testing.T) {
			p := newPolicy(t, spec)
			for _, flips := range []int{tables.Cap(), tables.MaxFlips()} {
				for heads := 0; heads <= flips; heads++ {
					got := p.Decide(flips, heads)
					assert.Equal(t, tables.Reward(flips, heads).Label, got, "flips=%d heads=%d", flips, heads)
				}
			}
		})
	}
}

func TestDecide_VerdictEqualsTableLabel(t *testing.T) {
	tables := testingpkg.DefaultTables()

	for _, spec := range DefaultRoster(100, DefaultSignificance, LookaheadFrontier) {
		t.Run(spec.Name(), func(t *testing.T) {
			for flips := 0; flips <= tables.MaxFlips(); flips++ {
				for heads := 0; heads <= flips; heads++ {
					got := newPolicy(t, spec).Decide(flips, heads)
					if got.IsFinal() {
						assert.Equal(t, tables.Reward(flips, heads).Label, got)
					}
				}
			}
		})
	}
}

func TestDecide_OutOfDomainPanics(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindFanatic})

	assert.Panics(t, func() { p.Decide(3, 4) })
	assert.Panics(t, func() { p.Decide(16, 0) })
}

func TestIndecisive_NeverDeclaresWhileInsignificant(t *testing.T) {
	tables := testingpkg.DefaultTables()

	for _, kind := range []Kind{KindWeakBelief, KindFanatic, KindBelief} {
		spec := Spec{Kind: kind, Decorator: DecoratorIndecisive}
		t.Run(spec.Name(), func(t *testing.T) {
			p := newPolicy(t, spec)
			for flips := 0; flips <= tables.MaxFlips(); flips++ {
				for heads := 0; heads <= flips; heads++ {
					significant := p.IsSignificant(flips, heads)
					got := p.Decide(flips, heads)

					if flips >= tables.Cap() {
						assert.True(t, got.IsFinal())
						continue
					}
					assert.Equal(t, significant, got.IsFinal(), "flips=%d heads=%d", flips, heads)
				}
			}
		})
	}
}

func TestIsSignificant(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindBelief, Decorator: DecoratorIndecisive})

	assert.False(t, p.IsSignificant(0, 0))
	assert.True(t, p.IsSignificant(5, 0), "fairness 0.97 > 0.95")
	assert.False(t, p.IsSignificant(7, 7), "fairness just above 0.05")
	assert.True(t, p.IsSignificant(8, 8))

	plain := newPolicy(t, Spec{Kind: KindBelief})
	assert.False(t, plain.IsSignificant(5, 0))
}

func TestContinuation_OneFlipBlend(t *testing.T) {
	tests := []struct {
		name         string
		kind         Kind
		flips, heads int
		expected     float64
	}{
		{"no belief origin", KindNoBelief, 0, 0, -2.875},
		{"no belief uses next flip level", KindNoBelief, 3, 1, -1.919921875},
		{"weak belief origin", KindWeakBelief, 0, 0, -2.875},
		{"fanatic origin", KindFanatic, 0, 0, -2.5},
		{"belief origin", KindBelief, 0, 0, -2.875},
		{"weak belief 3/1", KindWeakBelief, 3, 1, -1.7894736842},
		{"fanatic 3/1", KindFanatic, 3, 1, -0.6526315789},
		{"belief 3/1", KindBelief, 3, 1, -1.2727272727},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPolicy(t, Spec{Kind: tt.kind})
			assert.InDelta(t, tt.expected, p.Continuation(tt.flips, tt.heads), 1e-9)
		})
	}
}

func TestContinuation_AtMaxFlipsIsOwnValue(t *testing.T) {
	tables := testingpkg.DefaultTables()
	p := newPolicy(t, Spec{Kind: KindWeakBelief})

	assert.Equal(t, tables.Reward(15, 7).Value, p.Continuation(15, 7))
}

func TestContinuation_IndecisiveLookahead(t *testing.T) {
	tests := []struct {
		name         string
		kind         Kind
		mode         LookaheadMode
		flips, heads int
		expected     float64
	}{
		{"weak belief origin", KindWeakBelief, LookaheadFrontier, 0, 0, -7.9712185461},
		{"fanatic origin", KindFanatic, LookaheadFrontier, 0, 0, -1.8664800082},
		{"belief origin", KindBelief, LookaheadFrontier, 0, 0, -4.6857536584},
		{"belief query mode origin", KindBelief, LookaheadQuery, 0, 0, -7.9712185461},
		{"weak belief 3/1", KindWeakBelief, LookaheadFrontier, 3, 1, -7.7448554713},
		{"fanatic 3/1", KindFanatic, LookaheadFrontier, 3, 1, -2.0810933027},
		{"belief 3/1", KindBelief, LookaheadFrontier, 3, 1, -4.5248807344},
		{"belief query mode 3/1", KindBelief, LookaheadQuery, 3, 1, -5.5285762988},
		{"significant start is terminal", KindFanatic, LookaheadFrontier, 5, 0, 8.6363636364},
		{"one level before cap", KindWeakBelief, LookaheadFrontier, 13, 6, -3.0309810947},
		{"cap is terminal", KindBelief, LookaheadFrontier, 14, 7, -4.2993915244},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPolicy(t, Spec{Kind: tt.kind, Decorator: DecoratorIndecisive, Lookahead: tt.mode})
			assert.InDelta(t, tt.expected, p.Continuation(tt.flips, tt.heads), 1e-8)
		})
	}
}

func TestLookaheadQuery_OnlyAffectsBelief(t *testing.T) {
	for _, kind := range []Kind{KindWeakBelief, KindFanatic} {
		frontier := newPolicy(t, Spec{Kind: kind, Decorator: DecoratorIndecisive, Lookahead: LookaheadFrontier})
		query := newPolicy(t, Spec{Kind: kind, Decorator: DecoratorIndecisive, Lookahead: LookaheadQuery})

		assert.Equal(t, frontier.Continuation(3, 1), query.Continuation(3, 1), kind.String())
	}
}

func TestCalm_OneShotOverride(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindWeakBelief, Decorator: DecoratorCalm})

	// (1,1) does not fire for weak belief
	assert.False(t, p.EndCondition(1, 1))
	assert.Equal(t, PhaseArmed, p.Phase())

	// First firing is swallowed
	assert.False(t, p.EndCondition(2, 2))
	assert.Equal(t, PhaseTriggered, p.Phase())

	// Second firing stops
	assert.True(t, p.EndCondition(2, 2))
}

func TestCalm_DecideDelaysOnce(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindFanatic, Decorator: DecoratorCalm})

	assert.Equal(t, domain.VerdictTest, p.Decide(2, 2))
	assert.Equal(t, domain.VerdictCheat, p.Decide(2, 2))
	assert.Equal(t, PhaseArmed, p.Phase(), "a verdict re-arms")
	assert.Equal(t, domain.VerdictTest, p.Decide(2, 2))
}

func TestCalm_ShouldStopResetsOnFundExhaustion(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindWeakBelief, Decorator: DecoratorCalm})
	p.EndCondition(2, 2)
	require.Equal(t, PhaseTriggered, p.Phase())

	p.SetFund(0)
	assert.True(t, p.ShouldStop(headsCoin(true)))
	assert.Equal(t, PhaseArmed, p.Phase())
}

func TestCalm_RunTrialStartsArmed(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindWeakBelief, Decorator: DecoratorCalm})
	// Leak a triggered phase from outside a trial
	p.EndCondition(2, 2)
	require.Equal(t, PhaseTriggered, p.Phase())

	c := headsCoin(false)
	p.RunTrial(c)

	assert.Equal(t, 3, c.Flips(), "leaked phase must not shorten the trial")
}

func TestCalm_StopsNoEarlierThanPlain(t *testing.T) {
	tables := testingpkg.DefaultTables()
	params := tables.Params()

	for _, kind := range []Kind{KindWeakBelief, KindFanatic, KindBelief} {
		plain := newPolicy(t, Spec{Kind: kind})
		calm := newPolicy(t, Spec{Kind: kind, Decorator: DecoratorCalm})

		for seed := uint64(1); seed <= 300; seed++ {
			plainCoin := coin.New(params, testingpkg.SeededSource(seed))
			calmCoin := coin.New(params, testingpkg.SeededSource(seed))

			plain.Reset()
			calm.Reset()
			plain.RunTrial(plainCoin)
			calm.RunTrial(calmCoin)

			require.GreaterOrEqual(t, calmCoin.Flips(), plainCoin.Flips(), "%s seed %d", kind, seed)
			if calmCoin.Flips() == plainCoin.Flips() {
				assert.Equal(t, tables.Cap(), calmCoin.Flips(), "%s seed %d: equal stop only at the cap", kind, seed)
			}
		}
	}
}

func TestFundExhaustion_StopsAfterOneFlip(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindWeakBelief, Fund: 1})
	c := headsCoin(true)

	p.RunTrial(c)

	assert.Equal(t, 1, c.Flips())
	assert.Equal(t, 0, p.Fund())

	// (1,1) is labelled CHEAT but the coin is fair: exactly one penalty
	correct := p.Settle(c)
	assert.False(t, correct)
	assert.Equal(t, -30, p.Fund())
}

func TestSettle(t *testing.T) {
	t.Run("correct verdict adds reward", func(t *testing.T) {
		p := newPolicy(t, Spec{Kind: KindWeakBelief})
		c := headsCoin(false)
		p.RunTrial(c)

		assert.True(t, p.Settle(c))
		assert.Equal(t, 98+15, p.Fund())
	})

	t.Run("wrong verdict adds penalty", func(t *testing.T) {
		p := newPolicy(t, Spec{Kind: KindWeakBelief})
		c := tailsCoin(false)
		p.RunTrial(c)

		assert.False(t, p.Settle(c))
		assert.Equal(t, 99-30, p.Fund())
	})

	t.Run("untested coin uses the origin label", func(t *testing.T) {
		p := newPolicy(t, Spec{Kind: KindWeakBelief})
		assert.True(t, p.Settle(headsCoin(true)), "origin is labelled FAIR")
		assert.Equal(t, 115, p.Fund())
	})
}

func TestClone_IsIndependent(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindBelief, Decorator: DecoratorCalm, Fund: 50})
	p.SetFund(3)
	p.EndCondition(2, 2)

	cp := p.Clone()

	assert.Equal(t, 50, cp.Fund(), "clone starts from the spec fund")
	assert.Equal(t, PhaseArmed, cp.Phase())
	assert.Equal(t, PhaseTriggered, p.Phase())
	assert.Same(t, p.Tables(), cp.Tables())

	cp.EndCondition(2, 2)
	cp.SetFund(7)
	assert.Equal(t, 3, p.Fund())
}

func TestReset(t *testing.T) {
	p := newPolicy(t, Spec{Kind: KindFanatic, Decorator: DecoratorCalm, Fund: 20})
	p.SetFund(-12)
	p.EndCondition(2, 2)

	p.Reset()

	assert.Equal(t, 20, p.Fund())
	assert.Equal(t, PhaseArmed, p.Phase())
}

func TestDefaultRoster(t *testing.T) {
	specs := DefaultRoster(100, 0.05, LookaheadQuery)
	require.Len(t, specs, 11)

	names := make(map[string]bool)
	for _, spec := range specs {
		require.NoError(t, spec.Validate())
		assert.False(t, names[spec.Name()], "duplicate %s", spec.Name())
		names[spec.Name()] = true
		assert.Equal(t, 100, spec.Fund)
	}

	policies, err := BuildAll(testingpkg.DefaultTables(), specs, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, policies, 11)
}

func TestBuildAll_ReportsInvalidSpec(t *testing.T) {
	specs := []Spec{
		{Kind: KindFanatic, Fund: 10},
		{Kind: KindNoBelief, Decorator: DecoratorIndecisive, Significance: 0.05, Fund: 10},
	}

	_, err := BuildAll(testingpkg.DefaultTables(), specs, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy 1")
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestParseKind(t *testing.T) {
	for k, name := range kindNames {
		parsed, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("gambler")
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestParseDecoratorAndMode(t *testing.T) {
	d, err := ParseDecorator("Calm")
	require.NoError(t, err)
	assert.Equal(t, DecoratorCalm, d)

	d, err = ParseDecorator("")
	require.NoError(t, err)
	assert.Equal(t, DecoratorNone, d)

	_, err = ParseDecorator("nervous")
	assert.Error(t, err)

	m, err := ParseLookaheadMode("query")
	require.NoError(t, err)
	assert.Equal(t, LookaheadQuery, m)

	_, err = ParseLookaheadMode("sideways")
	assert.Error(t, err)
}
