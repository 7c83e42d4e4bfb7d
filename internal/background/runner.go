// Package background runs slow work off the interactive path and hands back
// exactly one message per task.
package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task does the work and returns the text to show the user.
type Task func(ctx context.Context) (string, error)

// Runner starts tasks in goroutines. Errors and panics become a diagnostic
// message, so deliver is always called once per task.
type Runner struct {
	ctx context.Context
	wg  sync.WaitGroup
}

func NewRunner(ctx context.Context) *Runner {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Runner{ctx: ctx}
}

// Go runs task in the background and passes its result, or a diagnostic,
// to deliver.
func (r *Runner) Go(name string, task Task, deliver func(string)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		deliver(r.run(name, task))
	}()
}

func (r *Runner) run(name string, task Task) (msg string) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("component", "background").Str("task", name).Interface("panic", p).Msg("task panicked")
			msg = Diagnostic(name, fmt.Errorf("unexpected failure: %v", p))
		}
	}()
	out, err := task(r.ctx)
	if err != nil {
		log.Warn().Str("component", "background").Str("task", name).Err(err).Msg("task failed")
		return Diagnostic(name, err)
	}
	return out
}

// Wait blocks until every started task has delivered.
func (r *Runner) Wait() { r.wg.Wait() }

// Diagnostic is the user-facing text for a failed task.
func Diagnostic(name string, err error) string {
	return fmt.Sprintf("❌ %s failed: %v", name, err)
}
