package simulation

import (
	"time"

	"github.com/rs/zerolog"
)

// ProgressFunc receives the number of finished sessions out of total
type ProgressFunc func(done, total int)

// ProgressReporter logs evaluation progress for one policy.
// Reports are throttled; the final report always goes out.
type ProgressReporter struct {
	log         zerolog.Logger
	policyName  string
	lastReport  time.Time
	minInterval time.Duration
	now         func() time.Time
}

// NewProgressReporter creates a reporter that logs at most once per minInterval
func NewProgressReporter(log zerolog.Logger, policyName string, minInterval time.Duration) *ProgressReporter {
	return &ProgressReporter{
		log:         log,
		policyName:  policyName,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Report logs done/total unless the last report was less than minInterval ago.
// It satisfies ProgressFunc.
func (pr *ProgressReporter) Report(done, total int) {
	now := pr.now()
	if now.Sub(pr.lastReport) < pr.minInterval && done != total {
		return
	}
	pr.lastReport = now

	pr.log.Debug().
		Str("policy", pr.policyName).
		Int("done", done).
		Int("total", total).
		Float64("percent", 100*float64(done)/float64(total)).
		Msg("Evaluation progress")
}
