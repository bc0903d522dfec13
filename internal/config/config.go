// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/aristath/fairorcheat/internal/domain"
	"github.com/aristath/fairorcheat/internal/policy"
	"github.com/aristath/fairorcheat/internal/probability"
	"github.com/aristath/fairorcheat/internal/report"
	"github.com/aristath/fairorcheat/internal/simulation"
	"github.com/aristath/fairorcheat/internal/utils"
	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"
)

// Config holds application configuration
type Config struct {
	Params probability.Params

	Fund     int
	Sessions int
	MaxGames int
	Seed     uint64
	Workers  int

	// SignificanceLevels lists the levels the built-in roster runs indecisive
	// policies at; the first one is also the default for roster file entries.
	SignificanceLevels []float64
	Lookahead          policy.LookaheadMode
	RosterFile         string

	OutputFormat report.Format
	LogLevel     string
	LogPretty    bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var p parser
	cfg := &Config{
		Params: probability.Params{
			PHeadsFair:       p.getFloat("COIN_P_HEADS_FAIR", 0.5),
			PHeadsCheat:      p.getFloat("COIN_P_HEADS_CHEAT", 0.75),
			PPriorFair:       p.getFloat("COIN_P_PRIOR_FAIR", 0.5),
			MaxFlips:         p.getInt("COIN_MAX_FLIPS", 15),
			RewardCorrect:    p.getFloat("COIN_REWARD_CORRECT", 15),
			PenaltyIncorrect: p.getFloat("COIN_PENALTY_INCORRECT", -30),
		},
		Fund:       p.getInt("SIM_FUND", 100),
		Sessions:   p.getInt("SIM_SESSIONS", 10000),
		MaxGames:   p.getInt("SIM_MAX_GAMES", 100000),
		Seed:       p.getUint64("SIM_SEED", 1),
		Workers:    p.getInt("SIM_WORKERS", defaultWorkers()),
		RosterFile: getEnv("ROSTER_FILE", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPretty:  p.getBool("LOG_PRETTY", true),
	}
	cfg.SignificanceLevels = p.getFloats("SIM_SIGNIFICANCE", []float64{policy.DefaultSignificance})
	cfg.Lookahead = p.getLookahead("SIM_BELIEF_LOOKAHEAD")
	cfg.OutputFormat = p.getFormat("OUTPUT_FORMAT")

	if p.err != nil {
		return nil, p.err
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configured game and run are playable
func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Fund < 1 {
		return fmt.Errorf("%w: SIM_FUND must be at least 1, got %d", domain.ErrInvalidConfig, c.Fund)
	}
	if len(c.SignificanceLevels) == 0 {
		return fmt.Errorf("%w: SIM_SIGNIFICANCE needs at least one level", domain.ErrInvalidConfig)
	}
	for _, level := range c.SignificanceLevels {
		if !(level > 0 && level < 1) {
			return fmt.Errorf("%w: significance must be in (0,1), got %g", domain.ErrInvalidConfig, level)
		}
	}
	return c.SimulationOptions().Validate()
}

// Significance is the default significance level for indecisive policies
func (c *Config) Significance() float64 {
	if len(c.SignificanceLevels) == 0 {
		return policy.DefaultSignificance
	}
	return c.SignificanceLevels[0]
}

// SimulationOptions maps the run settings onto the simulator
func (c *Config) SimulationOptions() simulation.Options {
	return simulation.Options{
		Sessions: c.Sessions,
		MaxGames: c.MaxGames,
		Seed:     c.Seed,
		Workers:  c.Workers,
	}
}

// Roster returns the policies to run: the roster file when set, otherwise the
// built-in roster with indecisive policies repeated per significance level.
func (c *Config) Roster() ([]policy.Spec, error) {
	if c.RosterFile != "" {
		return LoadRoster(c.RosterFile, c.Fund, c.Significance(), c.Lookahead)
	}

	specs := policy.DefaultRoster(c.Fund, c.Significance(), c.Lookahead)
	if len(c.SignificanceLevels) < 2 {
		return specs, nil
	}
	for _, level := range c.SignificanceLevels[1:] {
		for _, kind := range []policy.Kind{policy.KindWeakBelief, policy.KindFanatic, policy.KindBelief} {
			specs = append(specs, policy.Spec{
				Kind:         kind,
				Decorator:    policy.DecoratorIndecisive,
				Significance: level,
				Lookahead:    c.Lookahead,
				Fund:         c.Fund,
			})
		}
	}
	return specs, nil
}

// defaultWorkers is the number of physical cores, falling back to logical CPUs
func defaultWorkers() int {
	if n, err := cpu.Counts(false); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser reads typed environment values and keeps the first parse error
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s=%q: %v", domain.ErrInvalidConfig, key, value, err)
	}
}

func (p *parser) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return intVal
}

func (p *parser) getUint64(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	uintVal, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return uintVal
}

func (p *parser) getFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return floatVal
}

func (p *parser) getFloats(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	values, err := utils.ParseFloatCSV(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

func (p *parser) getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return defaultValue
	}
	return boolVal
}

func (p *parser) getLookahead(key string) policy.LookaheadMode {
	value := os.Getenv(key)
	mode, err := policy.ParseLookaheadMode(value)
	if err != nil {
		p.fail(key, value, err)
	}
	return mode
}

func (p *parser) getFormat(key string) report.Format {
	value := os.Getenv(key)
	format, err := report.ParseFormat(value)
	if err != nil {
		p.fail(key, value, err)
	}
	return format
}
