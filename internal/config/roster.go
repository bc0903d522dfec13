package config

import (
	"fmt"
	"os"

	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/policy"
	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Policies []rosterEntry `yaml:"policies"`
}

// rosterEntry is one policy in a roster file. Zero values inherit the run
// defaults: fund, significance (indecisive only) and lookahead mode.
type rosterEntry struct {
	Kind         string  `yaml:"kind"`
	Decorator    string  `yaml:"decorator"`
	Significance float64 `yaml:"significance"`
	Lookahead    string  `yaml:"lookahead"`
	Fund         int     `yaml:"fund"`
}

// LoadRoster reads a YAML roster file
func LoadRoster(path string, fund int, significance float64, mode policy.LookaheadMode) ([]policy.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}
	specs, err := ParseRoster(data, fund, significance, mode)
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", path, err)
	}
	return specs, nil
}

// ParseRoster decodes a YAML roster and validates every entry
func ParseRoster(data []byte, fund int, significance float64, mode policy.LookaheadMode) ([]policy.Spec, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: malformed roster: %v", domain.ErrInvalidConfig, err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("%w: roster lists no policies", domain.ErrInvalidConfig)
	}

	specs := make([]policy.Spec, 0, len(file.Policies))
	for i, entry := range file.Policies {
		spec, err := entry.spec(fund, significance, mode)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (e rosterEntry) spec(fund int, significance float64, mode policy.LookaheadMode) (policy.Spec, error) {
	kind, err := policy.ParseKind(e.Kind)
	if err != nil {
		return policy.Spec{}, err
	}
	decorator, err := policy.ParseDecorator(e.Decorator)
	if err != nil {
		return policy.Spec{}, err
	}

	spec := policy.Spec{
		Kind:      kind,
		Decorator: decorator,
		Lookahead: mode,
		Fund:      fund,
	}
	if e.Lookahead != "" {
		if spec.Lookahead, err = policy.ParseLookaheadMode(e.Lookahead); err != nil {
			return policy.Spec{}, err
		}
	}
	if e.Fund != 0 {
		spec.Fund = e.Fund
	}
	if decorator == policy.DecoratorIndecisive {
		spec.Significance = significance
		if e.Significance != 0 {
			spec.Significance = e.Significance
		}
	}
	return spec, nil
}
