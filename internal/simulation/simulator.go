// Package simulation plays coins against stopping policies and scores them.
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aristath/fairorcheat/internal/coin"
	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/policy"
	"github.com/aristath/fairorcheat/internal/utils"
	"github.com/aristath/fairorcheat/pkg/formulas"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options controls how many sessions are played and how they are seeded
type Options struct {
	Sessions int    // independent sessions per evaluation
	MaxGames int    // guard on coins per session
	Seed     uint64 // base seed; session i draws from the (Seed, i) stream
	Workers  int
}

// DefaultOptions mirrors the defaults of the command line tools
func DefaultOptions() Options {
	return Options{
		Sessions: 10000,
		MaxGames: 100000,
		Seed:     1,
		Workers:  1,
	}
}

// Validate rejects non-positive counts
func (o Options) Validate() error {
	if o.Sessions < 1 {
		return fmt.Errorf("%w: sessions must be at least 1, got %d", domain.ErrInvalidConfig, o.Sessions)
	}
	if o.MaxGames < 1 {
		return fmt.Errorf("%w: max games must be at least 1, got %d", domain.ErrInvalidConfig, o.MaxGames)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", domain.ErrInvalidConfig, o.Workers)
	}
	return nil
}

// Outcome is the result of testing and settling one coin
type Outcome struct {
	Correct       bool           `json:"correct" msgpack:"correct"`
	IsFair        bool           `json:"is_fair" msgpack:"is_fair"`
	Verdict       domain.Verdict `json:"verdict" msgpack:"verdict"`
	Flips         int            `json:"flips" msgpack:"flips"`
	Heads         int            `json:"heads" msgpack:"heads"`
	NetFundChange int            `json:"net_fund_change" msgpack:"net_fund_change"`
}

// GameSummary aggregates a batch of games played from a reset fund
type GameSummary struct {
	PolicyName    string           `json:"policy_name" msgpack:"policy_name"`
	Games         int              `json:"games" msgpack:"games"`
	Correct       int              `json:"correct" msgpack:"correct"`
	Accuracy      float64          `json:"accuracy" msgpack:"accuracy"`
	MeanFlips     float64          `json:"mean_flips" msgpack:"mean_flips"`
	NetFundChange formulas.Summary `json:"net_fund_change" msgpack:"net_fund_change"`
}

// SessionResult is one session: coins played until the fund is spent
type SessionResult struct {
	Score     int  `json:"score" msgpack:"score"`
	Games     int  `json:"games" msgpack:"games"`
	Truncated bool `json:"truncated" msgpack:"truncated"`
}

// Report is the score distribution of one policy over many sessions
type Report struct {
	RunID       string  `json:"run_id" msgpack:"run_id"`
	PolicyName  string  `json:"policy_name" msgpack:"policy_name"`
	Sessions    int     `json:"sessions" msgpack:"sessions"`
	MinScore    float64 `json:"min_score" msgpack:"min_score"`
	MeanScore   float64 `json:"mean_score" msgpack:"mean_score"`
	MaxScore    float64 `json:"max_score" msgpack:"max_score"`
	StdDevScore float64 `json:"std_dev_score" msgpack:"std_dev_score"`
	MeanGames   float64 `json:"mean_games" msgpack:"mean_games"`
	Truncated   int     `json:"truncated" msgpack:"truncated"`
	Seed        uint64  `json:"seed" msgpack:"seed"`
}

// progressInterval throttles Evaluate's progress logging
const progressInterval = 500 * time.Millisecond

// Simulator plays games and sessions for any policy
type Simulator struct {
	opts Options
	pool *WorkerPool
	log  zerolog.Logger
}

// New validates opts and builds a simulator
func New(opts Options, log zerolog.Logger) (*Simulator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		opts: opts,
		pool: NewWorkerPool(opts.Workers),
		log:  log.With().Str("component", "simulator").Logger(),
	}, nil
}

// Options returns the simulator options
func (s *Simulator) Options() Options {
	return s.opts
}

// SessionSource is the random stream of session index under seed
func SessionSource(seed uint64, index int) rand.Source {
	return rand.NewPCG(seed, uint64(index))
}

// PlayGame draws a coin from src, lets p test it and settles the verdict.
// The fund carries over from whatever p held before.
func (s *Simulator) PlayGame(p *policy.Policy, src rand.Source) Outcome {
	c := coin.New(p.Tables().Params(), src)
	start := p.Fund()

	p.RunTrial(c)
	verdict := p.Verdict(c)
	correct := p.Settle(c)

	return Outcome{
		Correct:       correct,
		IsFair:        c.IsFair(),
		Verdict:       verdict,
		Flips:         c.Flips(),
		Heads:         c.Heads(),
		NetFundChange: p.Fund() - start,
	}
}

// RunGames plays n games, resetting the fund and one-shot state before each
func (s *Simulator) RunGames(p *policy.Policy, n int, src rand.Source) ([]Outcome, GameSummary) {
	outcomes := make([]Outcome, 0, n)
	for i := 0; i < n; i++ {
		p.Reset()
		outcomes = append(outcomes, s.PlayGame(p, src))
	}
	p.Reset()
	return outcomes, Summarize(p.Name(), outcomes)
}

// Summarize aggregates outcomes
func Summarize(policyName string, outcomes []Outcome) GameSummary {
	summary := GameSummary{PolicyName: policyName, Games: len(outcomes)}
	if len(outcomes) == 0 {
		return summary
	}

	changes := make([]int, len(outcomes))
	flips := make([]int, len(outcomes))
	for i, o := range outcomes {
		if o.Correct {
			summary.Correct++
		}
		changes[i] = o.NetFundChange
		flips[i] = o.Flips
	}

	summary.Accuracy = float64(summary.Correct) / float64(len(outcomes))
	summary.MeanFlips = formulas.Mean(formulas.Ints(flips))
	summary.NetFundChange = formulas.Summarize(formulas.Ints(changes))
	return summary
}

// RunSession resets p and plays coins until its fund is spent or MaxGames
// coins were played. The score is the number of correct verdicts.
func (s *Simulator) RunSession(p *policy.Policy, src rand.Source) SessionResult {
	p.Reset()

	var result SessionResult
	for p.Fund() > 0 {
		if result.Games >= s.opts.MaxGames {
			result.Truncated = true
			break
		}
		if s.PlayGame(p, src).Correct {
			result.Score++
		}
		result.Games++
	}

	s.log.Debug().
		Str("policy", p.Name()).
		Int("score", result.Score).
		Int("games", result.Games).
		Bool("truncated", result.Truncated).
		Msg("Session finished")

	return result
}

// Evaluate plays Sessions independent sessions of p on the worker pool. p is
// never mutated; every worker plays on its own clone. Results depend only on
// the seed, not on the number of workers.
func (s *Simulator) Evaluate(ctx context.Context, p *policy.Policy) (*Report, error) {
	timer := utils.NewTimer("evaluate", s.log)

	progress := NewProgressReporter(s.log, p.Name(), progressInterval)
	sessions, err := s.pool.Run(ctx, s.opts.Sessions, func() SessionRunner {
		clone := p.Clone()
		return func(index int) SessionResult {
			return s.RunSession(clone, SessionSource(s.opts.Seed, index))
		}
	}, progress.Report)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", p.Name(), err)
	}

	report := buildReport(p.Name(), s.opts.Seed, sessions)
	timer.StopWithFields(map[string]interface{}{
		"policy":   report.PolicyName,
		"sessions": report.Sessions,
		"workers":  s.pool.Workers(),
	})

	s.log.Info().
		Str("run_id", report.RunID).
		Str("policy", report.PolicyName).
		Float64("min", report.MinScore).
		Float64("mean", report.MeanScore).
		Float64("max", report.MaxScore).
		Int("truncated", report.Truncated).
		Msg("Policy evaluated")

	return report, nil
}

func buildReport(policyName string, seed uint64, sessions []SessionResult) *Report {
	scores := make([]int, len(sessions))
	games := make([]int, len(sessions))
	truncated := 0
	for i, r := range sessions {
		scores[i] = r.Score
		games[i] = r.Games
		if r.Truncated {
			truncated++
		}
	}

	summary := formulas.Summarize(formulas.Ints(scores))
	return &Report{
		RunID:       uuid.NewString(),
		PolicyName:  policyName,
		Sessions:    len(sessions),
		MinScore:    summary.Min,
		MeanScore:   summary.Mean,
		MaxScore:    summary.Max,
		StdDevScore: summary.StdDev,
		MeanGames:   formulas.Mean(formulas.Ints(games)),
		Truncated:   truncated,
		Seed:        seed,
	}
}
