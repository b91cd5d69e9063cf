// Package filters owns the applied and draft filter state behind the deal
// browser. The draft is edited in place; nothing is fetched until the
// draft is committed by Apply or discarded by Clear.
package filters

import (
	"log/slog"
	"sync"

	"github.com/jomfood/jomdeals/internal/model"
	"github.com/jomfood/jomdeals/internal/query"
)

// State is the controller's editing state.
type State string

// Controller states.
const (
	// StateIdle means the applied filters are in effect and no draft diverges.
	StateIdle State = "idle"
	// StateEditing means a draft diverges from the applied filters.
	StateEditing State = "editing"
)

// Controller holds applied vs draft filter state and produces the
// canonical filter consumed by page collections.
type Controller struct {
	logger          *slog.Logger
	state           State
	applied         model.FilterSet
	draft           model.FilterSet
	lastFingerprint string
	mu              sync.Mutex
}

// NewController starts in Idle with every filter at its default.
func NewController() *Controller {
	def := model.DefaultFilterSet()
	cf, _ := query.Canonicalize(def)
	return &Controller{
		state:           StateIdle,
		applied:         def,
		draft:           def.Clone(),
		lastFingerprint: cf.Key(),
		logger:          slog.Default().With("component", "filters"),
	}
}

// OpenEditor snapshots the applied filters into the draft and enters
// Editing. Re-invoking while already editing must not re-snapshot, or
// in-progress edits would be clobbered.
func (c *Controller) OpenEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateEditing {
		return
	}
	c.draft = c.applied.Clone()
	c.state = StateEditing
}

// UpdateDraft mutates the draft only; no fetch happens until Apply.
func (c *Controller) UpdateDraft(fn func(*model.FilterSet)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn(&c.draft)
}

// Apply commits the draft as the new applied filter set and returns its
// canonical form. An invalid draft is rejected whole: the applied state
// is untouched and the controller stays in its current state, so callers
// never observe a half-applied filter.
func (c *Controller) Apply() (query.CanonicalFilter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cf, err := query.Canonicalize(c.draft)
	if err != nil {
		return query.CanonicalFilter{}, err
	}

	c.applied = c.draft.Clone()
	c.state = StateIdle
	c.lastFingerprint = cf.Key()
	return cf, nil
}

// Clear resets applied and draft to the default filter set.
func (c *Controller) Clear() query.CanonicalFilter {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := model.DefaultFilterSet()
	cf, _ := query.Canonicalize(def)
	c.applied = def
	c.draft = def.Clone()
	c.state = StateIdle
	c.lastFingerprint = cf.Key()
	return cf
}

// Inject replaces applied and draft atomically from an out-of-band source
// such as cross-screen navigation. Repeated identical injections are
// deduplicated by canonical fingerprint so re-focusing a screen does not
// re-trigger a fetch storm: the second return value is false when the
// incoming filter matches the last applied one.
func (c *Controller) Inject(fs model.FilterSet) (query.CanonicalFilter, bool, error) {
	cf, err := query.Canonicalize(fs)
	if err != nil {
		return query.CanonicalFilter{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cf.Key() == c.lastFingerprint {
		c.logger.Debug("Ignoring repeated filter injection", "key", cf.Key())
		return cf, false, nil
	}

	c.applied = fs.Clone()
	c.draft = fs.Clone()
	c.state = StateIdle
	c.lastFingerprint = cf.Key()
	return cf, true, nil
}

// Applied returns a copy of the filters currently in effect.
func (c *Controller) Applied() model.FilterSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.applied.Clone()
}

// Draft returns a copy of the draft under edit.
func (c *Controller) Draft() model.FilterSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.draft.Clone()
}

// State returns the current editing state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}
