package replay

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/texstate"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Index int
	Step  Step

	// Transitions are the barriers a change or merge recorded.
	Transitions []texstate.PendingTransition

	// Conflict is set when an implicit change hit a usage conflict.
	Conflict error

	// Usage and Determinate are the answer of a query or expect step.
	Usage       texstate.Uses
	Determinate bool

	// Failure describes an expect step that did not hold.
	Failure string
}

// Report is the outcome of a whole trace.
type Report struct {
	Name      string
	Steps     []StepResult
	Conflicts int
	Failures  int

	// Scopes holds the final state of every scope, ordered by name.
	Scopes []texstate.TrackerSnapshot
}

// OK reports whether every expectation held.
func (r *Report) OK() bool { return r.Failures == 0 }

// Transitions returns the number of transitions recorded by all steps.
func (r *Report) Transitions() int {
	n := 0
	for i := range r.Steps {
		n += len(r.Steps[i].Transitions)
	}
	return n
}

// Run executes trace step by step. Scopes are created on first use with
// opts; each one is labelled with its name.
//
// Conflicts and failed expectations are recorded in the report and do not
// stop the run. Run returns an error only for a trace that cannot be run,
// such as a merge from a scope that does not exist yet, or when ctx is done.
func Run(ctx context.Context, trace *Trace, opts ...texstate.TrackerOption) (*Report, error) {
	log := texstate.Logger()
	log.Info("replay: start", "trace", trace.Name, "steps", len(trace.Steps))

	scopes := make(map[string]*texstate.Tracker)
	defer func() {
		for _, t := range scopes {
			t.Close()
		}
	}()
	scope := func(name string) *texstate.Tracker {
		t, ok := scopes[name]
		if !ok {
			t = texstate.NewTracker(append(slices.Clip(opts), texstate.WithLabel(name))...)
			scopes[name] = t
		}
		return t
	}

	report := &Report{Name: trace.Name, Steps: make([]StepResult, 0, len(trace.Steps))}
	for i, step := range trace.Steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay %s: step %d: %w", trace.Name, i, err)
		}
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("replay %s: step %d: %w", trace.Name, i, err)
		}

		res := StepResult{Index: i, Step: step}
		switch step.Op {
		case OpChange:
			var out *[]texstate.PendingTransition
			if !step.Implicit {
				out = &res.Transitions
			}
			err := scope(step.Scope).Change(step.TextureID(), step.Selector(), step.Usage, out)
			if errors.Is(err, texstate.ErrUsageConflict) {
				res.Conflict = err
				report.Conflicts++
				log.Warn("replay: conflict", "trace", trace.Name, "step", i, "error", err)
			} else if err != nil {
				return nil, fmt.Errorf("replay %s: step %d: %w", trace.Name, i, err)
			}

		case OpMerge:
			from, ok := scopes[step.From]
			if !ok {
				return nil, fmt.Errorf("replay %s: step %d: %w: unknown scope %q",
					trace.Name, i, ErrInvalidTrace, step.From)
			}
			var out *[]texstate.PendingTransition
			if !step.Implicit {
				out = &res.Transitions
			}
			if err := scope(step.Scope).Merge(from, step.Stitch, out); err != nil {
				return nil, fmt.Errorf("replay %s: step %d: %w", trace.Name, i, err)
			}

		case OpQuery, OpExpect:
			res.Usage, res.Determinate = scope(step.Scope).Query(step.TextureID(), step.Selector())
			if step.Op == OpExpect {
				res.Failure = expectation(step, res.Usage, res.Determinate)
				if res.Failure != "" {
					report.Failures++
					log.Warn("replay: expectation failed", "trace", trace.Name, "step", i, "failure", res.Failure)
				}
			}
		}
		report.Steps = append(report.Steps, res)
	}

	for _, name := range slices.Sorted(maps.Keys(scopes)) {
		report.Scopes = append(report.Scopes, scopes[name].Snapshot())
	}

	log.Info("replay: done", "trace", trace.Name,
		"transitions", report.Transitions(), "conflicts", report.Conflicts, "failures", report.Failures)
	return report, nil
}

// expectation returns why an expect step failed, or "" if it held.
func expectation(step Step, usage texstate.Uses, determinate bool) string {
	sel := step.Selector()
	switch {
	case step.Indeterminate && determinate:
		return fmt.Sprintf("texture %s %s: got %s, want indeterminate", step.TextureID(), sel, usage)
	case step.Indeterminate:
		return ""
	case !determinate:
		return fmt.Sprintf("texture %s %s: indeterminate, want %s", step.TextureID(), sel, step.Usage)
	case usage != step.Usage:
		return fmt.Sprintf("texture %s %s: got %s, want %s", step.TextureID(), sel, usage, step.Usage)
	}
	return ""
}
