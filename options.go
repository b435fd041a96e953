package texstate

import "log/slog"

// TrackerOption configures a Tracker during creation.
//
// Example:
//
//	// Serial tracker
//	t := texstate.NewTracker()
//
//	// Labelled tracker merging child scopes on four workers
//	t := texstate.NewTracker(texstate.WithLabel("frame"), texstate.WithWorkers(4))
type TrackerOption func(*trackerOptions)

// trackerOptions holds optional configuration for Tracker creation.
type trackerOptions struct {
	label     string
	workers   int
	threshold int
	logger    *slog.Logger
}

// defaultParallelThreshold is the texture count below which Merge stays
// on the calling goroutine even when workers are configured.
const defaultParallelThreshold = 32

// defaultTrackerOptions returns the default tracker options.
func defaultTrackerOptions() trackerOptions {
	return trackerOptions{
		workers:   0, // serial merge
		threshold: defaultParallelThreshold,
		logger:    nil, // falls back to Logger()
	}
}

// WithLabel names the tracker in logs and error messages.
func WithLabel(label string) TrackerOption {
	return func(o *trackerOptions) {
		o.label = label
	}
}

// WithWorkers lets Merge spread per-texture merges over n goroutines.
// Zero or a negative n keeps merges serial.
func WithWorkers(n int) TrackerOption {
	return func(o *trackerOptions) {
		o.workers = max(n, 0)
	}
}

// WithParallelThreshold sets how many textures a merge has to touch before
// it is spread over workers.
func WithParallelThreshold(n int) TrackerOption {
	return func(o *trackerOptions) {
		o.threshold = max(n, 1)
	}
}

// WithLogger overrides the package logger for one tracker.
func WithLogger(l *slog.Logger) TrackerOption {
	return func(o *trackerOptions) {
		o.logger = l
	}
}
