package scenario

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"goa.design/clue/log"

	"github.com/viant/mcp-harness/report"
)

// Runner executes scenarios one after another.
type Runner struct {
	env      *Env
	throttle time.Duration
}

// Run executes scenarios in order and records each outcome. It returns an *AbortError when a
// fatal failure leaves the bridge channel unusable; the remaining scenarios are not run.
func (r *Runner) Run(ctx context.Context, scenarios []*Scenario, aReport *report.Report) error {
	for i, aScenario := range scenarios {
		if i > 0 && r.throttle > 0 {
			select {
			case <-time.After(r.throttle):
			case <-ctx.Done():
				return &AbortError{Scenario: aScenario.Name, Err: ctx.Err()}
			}
		}
		if err := ctx.Err(); err != nil {
			return &AbortError{Scenario: aScenario.Name, Err: err}
		}
		log.Info(ctx, log.KV{K: "msg", V: "running scenario"}, log.KV{K: "scenario", V: aScenario.Name})
		started := time.Now()
		result := r.exec(ctx, aScenario)
		if err := aReport.Record(aScenario.Name, result.Outcome, result.Detail, time.Since(started)); err != nil {
			return err
		}
		if result.Fatal() {
			abortErr := &AbortError{Scenario: aScenario.Name, Err: result.Err}
			aReport.Abort(abortErr)
			return abortErr
		}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, aScenario *Scenario) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error(ctx, fmt.Errorf("scenario %v panicked: %v", aScenario.Name, recovered), log.KV{K: "stack", V: string(debug.Stack())})
			result = Error(fmt.Errorf("panic: %v", recovered))
		}
	}()
	return aScenario.Exec(ctx, r.env)
}

// RunnerOption represents runner option
type RunnerOption func(r *Runner)

// WithThrottle sets the pause between scenarios
func WithThrottle(throttle time.Duration) RunnerOption {
	return func(r *Runner) {
		r.throttle = throttle
	}
}

// NewRunner creates a runner
func NewRunner(env *Env, options ...RunnerOption) *Runner {
	ret := &Runner{env: env, throttle: time.Second}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
