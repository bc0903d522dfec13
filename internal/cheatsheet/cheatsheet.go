// Package cheatsheet tabulates what a policy does at every (flips, heads) state.
package cheatsheet

import (
	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/policy"
	"github.com/aristath/fairorcheat/internal/probability"
)

// Sheet holds a policy's decision at every state. Verdicts[flips] has
// flips+1 entries, one per heads count; states with heads > flips do not exist.
type Sheet struct {
	PolicyName string             `json:"policy_name" msgpack:"policy_name"`
	MaxFlips   int                `json:"max_flips" msgpack:"max_flips"`
	Verdicts   [][]domain.Verdict `json:"verdicts" msgpack:"verdicts"`
}

// ValueSheet holds the table value and the continuation value at every state
type ValueSheet struct {
	PolicyName   string      `json:"policy_name" msgpack:"policy_name"`
	MaxFlips     int         `json:"max_flips" msgpack:"max_flips"`
	Declare      [][]float64 `json:"declare" msgpack:"declare"`
	Continuation [][]float64 `json:"continuation" msgpack:"continuation"`
}

// At returns the verdict at (flips, heads) and false for states outside the grid
func (s *Sheet) At(flips, heads int) (domain.Verdict, bool) {
	if flips < 0 || flips >= len(s.Verdicts) || heads < 0 || heads > flips {
		return domain.VerdictTest, false
	}
	return s.Verdicts[flips][heads], true
}

// Build evaluates Decide at every state, each on a fresh clone of p so that
// one-shot state never carries from one cell to the next. p is not mutated.
func Build(p *policy.Policy) *Sheet {
	maxFlips := p.Tables().MaxFlips()
	sheet := &Sheet{
		PolicyName: p.Name(),
		MaxFlips:   maxFlips,
		Verdicts:   make([][]domain.Verdict, maxFlips+1),
	}
	for flips := 0; flips <= maxFlips; flips++ {
		row := make([]domain.Verdict, flips+1)
		for heads := 0; heads <= flips; heads++ {
			row[heads] = p.Clone().Decide(flips, heads)
		}
		sheet.Verdicts[flips] = row
	}
	return sheet
}

// Values tabulates the value of declaring now against the policy's
// continuation estimate at every state
func Values(p *policy.Policy) *ValueSheet {
	tables := p.Tables()
	maxFlips := tables.MaxFlips()
	sheet := &ValueSheet{
		PolicyName:   p.Name(),
		MaxFlips:     maxFlips,
		Declare:      make([][]float64, maxFlips+1),
		Continuation: make([][]float64, maxFlips+1),
	}

	probe := p.Clone()
	for flips := 0; flips <= maxFlips; flips++ {
		declare := make([]float64, flips+1)
		cont := make([]float64, flips+1)
		for heads := 0; heads <= flips; heads++ {
			declare[heads] = tables.Reward(flips, heads).Value
			cont[heads] = probe.Continuation(flips, heads)
		}
		sheet.Declare[flips] = declare
		sheet.Continuation[flips] = cont
	}
	return sheet
}

// Labels is the sheet a policy that always declares would produce: the table
// label at every state
func Labels(tables *probability.Tables) (*Sheet, error) {
	maxFlips := tables.MaxFlips()
	sheet := &Sheet{
		PolicyName: "Labels",
		MaxFlips:   maxFlips,
		Verdicts:   make([][]domain.Verdict, maxFlips+1),
	}
	for flips := 0; flips <= maxFlips; flips++ {
		row := make([]domain.Verdict, flips+1)
		for heads := 0; heads <= flips; heads++ {
			entry, err := tables.Lookup(flips, heads)
			if err != nil {
				return nil, err
			}
			row[heads] = entry.Label
		}
		sheet.Verdicts[flips] = row
	}
	return sheet, nil
}
