package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowThreshold is the duration above which a timed operation is logged at Warn
var SlowThreshold = 30 * time.Second

// Timer measures the duration of one operation
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
}

// NewTimer starts a timer for the named operation
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
	}
}

// Elapsed returns the time since the timer started without logging
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the duration and returns it
func (t *Timer) Stop() time.Duration {
	return t.StopWithFields(nil)
}

// StopWithFields logs the duration together with extra fields
func (t *Timer) StopWithFields(fields map[string]interface{}) time.Duration {
	duration := time.Since(t.start)

	event := t.log.Debug().
		Str("operation", t.name).
		Dur("duration_ms", duration)
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Msg("Operation completed")

	if duration > SlowThreshold {
		t.log.Warn().
			Str("operation", t.name).
			Dur("duration", duration).
			Msg("Slow operation detected")
	}

	return duration
}

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func Evaluate() {
//	    defer utils.OperationTimer("evaluate", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	t := NewTimer(operation, log)
	return func() {
		t.Stop()
	}
}
