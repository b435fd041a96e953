package texstate

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/gogpu/texstate/internal/parallel"
	"github.com/gogpu/wgpu/core"
	"github.com/google/uuid"
)

// Tracker is a usage scope: the recorded state of every texture touched by
// one pass, command buffer or submission.
//
// A Tracker is not safe for concurrent use. Merge may fan out over an
// internal worker pool, but it returns only after all of that work is done.
type Tracker struct {
	id       uuid.UUID
	label    string
	textures map[core.TextureID]*TextureStates

	threshold int
	log       *slog.Logger

	poolOnce sync.Once
	pool     *parallel.WorkerPool
	workers  int
}

// NewTracker creates an empty scope.
func NewTracker(opts ...TrackerOption) *Tracker {
	o := defaultTrackerOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &Tracker{
		id:        uuid.New(),
		label:     o.label,
		textures:  make(map[core.TextureID]*TextureStates),
		threshold: o.threshold,
		workers:   o.workers,
		log:       o.logger,
	}
	return t
}

// ID returns the scope id used to correlate log records.
func (t *Tracker) ID() uuid.UUID { return t.id }

// Label returns the label given with WithLabel.
func (t *Tracker) Label() string { return t.label }

// Len returns the number of tracked textures.
func (t *Tracker) Len() int { return len(t.textures) }

// Get returns the state of one texture, or nil if the scope never touched
// it. The returned value is owned by the tracker.
func (t *Tracker) Get(id core.TextureID) *TextureStates {
	return t.textures[id]
}

// IDs returns the tracked texture ids in ascending order.
func (t *Tracker) IDs() []core.TextureID {
	return slices.SortedFunc(maps.Keys(t.textures), compareTextureID)
}

// Remove forgets a texture. It reports whether the texture was tracked.
func (t *Tracker) Remove(id core.TextureID) bool {
	if _, ok := t.textures[id]; !ok {
		return false
	}
	delete(t.textures, id)
	return true
}

// Clear forgets every texture. The scope id and label are kept.
func (t *Tracker) Clear() {
	clear(t.textures)
}

// Close releases the merge worker pool, if one was started. The tracker
// stays usable; later merges run serially.
func (t *Tracker) Close() {
	t.poolOnce.Do(func() {})
	if t.pool != nil {
		t.pool.Close()
	}
}

// Query returns the usage shared by the selected subresources of a texture.
// See TextureStates.Query. Untracked textures report false.
func (t *Tracker) Query(id core.TextureID, sel Selector) (Uses, bool) {
	s, ok := t.textures[id]
	if !ok {
		return UsesNone, false
	}
	return s.Query(sel)
}

// Change moves the selected subresources of a texture to usage, creating its
// state if needed. See TextureStates.Change.
//
// A conflict is returned wrapped with the scope label; errors.As still finds
// the *ConflictError and errors.Is matches ErrUsageConflict.
func (t *Tracker) Change(id core.TextureID, sel Selector, usage Uses, out *[]PendingTransition) error {
	s, ok := t.textures[id]
	if !ok {
		s = &TextureStates{}
		t.textures[id] = s
	}

	before := 0
	if out != nil {
		before = len(*out)
	}
	if err := s.Change(id, sel, usage, out); err != nil {
		t.logger().Warn("texstate: usage conflict",
			"scope", t.id, "label", t.label, "error", err)
		return fmt.Errorf("texstate: scope %q: %w", t.label, err)
	}
	if out != nil && len(*out) > before {
		t.logger().Debug("texstate: change",
			"scope", t.id, "texture", id, "selector", sel,
			"usage", usage, "transitions", len(*out)-before)
	}
	return nil
}

// Merge folds the history of other into t, stitching with the given policy.
//
// Textures only other tracks are copied in and need no transition. Textures
// both scopes track are merged with TextureStates.Merge. Transitions are
// appended to *out in ascending texture id order, regardless of whether the
// merge ran in parallel.
//
// Merge never fails; the error result mirrors Change and is always nil.
func (t *Tracker) Merge(other *Tracker, stitch Stitch, out *[]PendingTransition) error {
	ids := other.IDs()

	var shared []core.TextureID
	for _, id := range ids {
		if _, ok := t.textures[id]; ok {
			shared = append(shared, id)
		}
	}
	// Shared textures merge before vacant ones are copied so that merging a
	// tracker into itself sees each texture exactly once.
	results := t.mergeShared(other, shared, stitch, out != nil)

	copied := 0
	for _, id := range ids {
		if _, ok := t.textures[id]; !ok {
			t.textures[id] = other.textures[id].Clone()
			copied++
		}
	}

	emitted := 0
	if out != nil {
		for _, r := range results {
			*out = append(*out, r...)
			emitted += len(r)
		}
	}

	t.logger().Debug("texstate: merge",
		"scope", t.id, "label", t.label,
		"from", other.id, "stitch", stitch,
		"shared", len(shared), "copied", copied, "transitions", emitted)
	return nil
}

// mergeShared merges every shared texture and returns the transitions of
// each one in the order of ids.
func (t *Tracker) mergeShared(other *Tracker, ids []core.TextureID, stitch Stitch, collect bool) [][]PendingTransition {
	results := make([][]PendingTransition, len(ids))
	job := func(i int) func() {
		return func() {
			id := ids[i]
			var out *[]PendingTransition
			if collect {
				out = &results[i]
			}
			_ = t.textures[id].Merge(id, other.textures[id], stitch, out)
		}
	}

	pool := t.mergePool(len(ids))
	if pool == nil {
		for i := range ids {
			job(i)()
		}
		return results
	}

	jobs := make([]func(), len(ids))
	for i := range ids {
		jobs[i] = job(i)
	}
	pool.ExecuteAll(jobs)
	return results
}

// mergePool returns the worker pool for a merge touching n textures, or nil
// if the merge should stay serial. The pool starts on first use.
func (t *Tracker) mergePool(n int) *parallel.WorkerPool {
	if t.workers <= 0 || n < t.threshold {
		return nil
	}
	t.poolOnce.Do(func() {
		t.pool = parallel.NewWorkerPool(t.workers)
	})
	return t.pool
}

func (t *Tracker) logger() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return Logger()
}

func compareTextureID(a, b core.TextureID) int {
	return cmp.Compare(a.Raw(), b.Raw())
}
