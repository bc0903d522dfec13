// Package probability precomputes the binomial, posterior and reward tables
// every stopping policy reads from.
package probability

import (
	"fmt"

	"github.com/aristath/fairorcheat/internal/domain"
)

// Params are the fixed constants of the game.
//
// PHeadsFair and PHeadsCheat are the head probabilities of the two coin types,
// PPriorFair the prior belief that a fresh coin is fair. MaxFlips bounds the
// state space; RewardCorrect and PenaltyIncorrect are the fund changes applied
// when a verdict is settled.
type Params struct {
	PHeadsFair       float64 `json:"p_heads_fair"`
	PHeadsCheat      float64 `json:"p_heads_cheat"`
	PPriorFair       float64 `json:"p_prior_fair"`
	MaxFlips         int     `json:"max_flips"`
	RewardCorrect    float64 `json:"reward_correct"`
	PenaltyIncorrect float64 `json:"penalty_incorrect"`
}

// DefaultParams returns the reference game: fair 0.5, cheat 0.75, even prior,
// 15 flips, +15 / -30.
func DefaultParams() Params {
	return Params{
		PHeadsFair:       0.5,
		PHeadsCheat:      0.75,
		PPriorFair:       0.5,
		MaxFlips:         15,
		RewardCorrect:    15,
		PenaltyIncorrect: -30,
	}
}

// Validate rejects parameters no table can be built from
func (p Params) Validate() error {
	if err := openUnit("p_heads_fair", p.PHeadsFair); err != nil {
		return err
	}
	if err := openUnit("p_heads_cheat", p.PHeadsCheat); err != nil {
		return err
	}
	if err := openUnit("p_prior_fair", p.PPriorFair); err != nil {
		return err
	}
	if p.MaxFlips < 1 {
		return fmt.Errorf("%w: max_flips must be at least 1, got %d", domain.ErrInvalidConfig, p.MaxFlips)
	}
	if p.RewardCorrect <= 0 {
		return fmt.Errorf("%w: reward_correct must be positive, got %g", domain.ErrInvalidConfig, p.RewardCorrect)
	}
	if p.PenaltyIncorrect >= 0 {
		return fmt.Errorf("%w: penalty_incorrect must be negative, got %g", domain.ErrInvalidConfig, p.PenaltyIncorrect)
	}
	return nil
}

// PriorHeadProbability is the chance of heads on the next flip before any evidence
func (p Params) PriorHeadProbability() float64 {
	return p.PPriorFair*p.PHeadsFair + (1-p.PPriorFair)*p.PHeadsCheat
}

// HeadProbability mixes the two coin types with the given belief that the coin is fair
func (p Params) HeadProbability(fairness float64) float64 {
	return fairness*p.PHeadsFair + (1-fairness)*p.PHeadsCheat
}

func openUnit(name string, v float64) error {
	if !(v > 0 && v < 1) {
		return fmt.Errorf("%w: %s must be in (0,1), got %g", domain.ErrInvalidConfig, name, v)
	}
	return nil
}
