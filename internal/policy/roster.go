package policy

import (
	"fmt"

	"github.com/aristath/fairorcheat/internal/probability"
	"github.com/rs/zerolog"
)

// DefaultRoster lists every policy family member: the five plain kinds, the
// calm variants and the indecisive variants.
func DefaultRoster(fund int, significance float64, mode LookaheadMode) []Spec {
	specs := []Spec{
		{Kind: KindNoBelief},
		{Kind: KindWeakBelief},
		{Kind: KindFanatic},
		{Kind: KindBelief},
		{Kind: KindSincereFanatic},
		{Kind: KindWeakBelief, Decorator: DecoratorCalm},
		{Kind: KindFanatic, Decorator: DecoratorCalm},
		{Kind: KindBelief, Decorator: DecoratorCalm},
		{Kind: KindWeakBelief, Decorator: DecoratorIndecisive},
		{Kind: KindFanatic, Decorator: DecoratorIndecisive},
		{Kind: KindBelief, Decorator: DecoratorIndecisive},
	}
	for i := range specs {
		specs[i].Fund = fund
		specs[i].Lookahead = mode
		if specs[i].Decorator == DecoratorIndecisive {
			specs[i].Significance = significance
		}
	}
	return specs
}

// BuildAll constructs one policy per spec, failing on the first invalid one
func BuildAll(tables *probability.Tables, specs []Spec, log zerolog.Logger) ([]*Policy, error) {
	policies := make([]*Policy, 0, len(specs))
	for i, spec := range specs {
		p, err := New(tables, spec, log)
		if err != nil {
			return nil, fmt.Errorf("policy %d (%s): %w", i, spec.Name(), err)
		}
		policies = append(policies, p)
	}
	return policies, nil
}
