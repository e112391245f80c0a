package region

import (
	"context"
	"sync"

	"github.com/okian/labsync/pkg/logger"
	"github.com/okian/labsync/pkg/metrics"
)

// Listener receives transitions.
type Listener func(Transition)

// NamedListener receives transitions under the region's name. It exists for
// observers that only know region names.
type NamedListener func(name string, t Transition)

type entry struct {
	id    uint64
	fn    Listener
	named NamedListener
}

// Tracker is the state machine for every region. Transitions are applied and
// emitted under one lock, so listeners see changes of a region in order.
// Listeners must not call Entered, Exited or Determined synchronously.
type Tracker struct {
	emitMu sync.Mutex // serializes update + emission

	mu     sync.RWMutex
	states map[string]State
	inside *Set

	lmu       sync.RWMutex
	nextID    uint64
	perRegion map[string][]entry
	all       []entry
	named     map[string][]entry

	logger logger.Logger
}

// NewTracker returns a tracker with every region unknown.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		states:    make(map[string]State),
		inside:    NewSet(),
		perRegion: make(map[string][]entry),
		named:     make(map[string][]entry),
		logger:    logger.Get().Named("region"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current state of r.
func (t *Tracker) State(r Region) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.states[r.Name]
}

// Inside returns the regions currently inside, in the order they were entered.
func (t *Tracker) Inside() []Region {
	return t.inside.Members()
}

// CurrentLocation returns the highest priority region the device is inside.
func (t *Tracker) CurrentLocation() (Region, bool) {
	return HighestPriority(t.inside.Members())
}

// Entered records that the device entered r.
func (t *Tracker) Entered(r Region) Change {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	return t.enter(r)
}

// Exited records that the device left r.
func (t *Tracker) Exited(r Region) Change {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	return t.exit(r)
}

// Determined applies an authoritative snapshot of r. Only an edge into or out
// of inside produces a change.
func (t *Tracker) Determined(r Region, s State) Change {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	if s == StateInside {
		return t.enter(r)
	}
	return t.exit(r)
}

// must hold emitMu
func (t *Tracker) enter(r Region) Change {
	if !t.inside.Add(r) {
		return ChangeNone
	}
	t.setState(r, StateInside)
	t.emit(Transition{Region: r, Change: ChangeEntering, State: StateInside})
	return ChangeEntering
}

// must hold emitMu
func (t *Tracker) exit(r Region) Change {
	if !t.inside.Remove(r) {
		return ChangeNone
	}
	t.setState(r, StateOutside)
	t.emit(Transition{Region: r, Change: ChangeExiting, State: StateOutside})
	return ChangeExiting
}

func (t *Tracker) setState(r Region, s State) {
	t.mu.Lock()
	t.states[r.Name] = s
	t.mu.Unlock()
}

// emit is the single delivery path for transitions.
func (t *Tracker) emit(tr Transition) {
	metrics.RecordRegionTransition(tr.Region.Name, tr.Change.String())
	metrics.UpdateRegionInside(tr.Region.Name, tr.State == StateInside)
	t.logger.Debug(context.Background(), "region transition",
		logger.String("region", tr.Region.Name),
		logger.String("change", tr.Change.String()),
	)

	t.lmu.RLock()
	perRegion := append([]entry(nil), t.perRegion[tr.Region.Name]...)
	all := append([]entry(nil), t.all...)
	named := append([]entry(nil), t.named[tr.Region.Name]...)
	t.lmu.RUnlock()

	for _, e := range perRegion {
		e.fn(tr)
	}
	for _, e := range all {
		e.fn(tr)
	}
	for _, e := range named {
		e.named(tr.Region.Name, tr)
	}
}

// Listen registers fn for transitions of r. The returned func unregisters it.
func (t *Tracker) Listen(r Region, fn Listener) func() {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	t.nextID++
	id := t.nextID
	t.perRegion[r.Name] = append(t.perRegion[r.Name], entry{id: id, fn: fn})
	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.perRegion[r.Name] = without(t.perRegion[r.Name], id)
	}
}

// ListenAll registers fn for transitions of every region.
func (t *Tracker) ListenAll(fn Listener) func() {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	t.nextID++
	id := t.nextID
	t.all = append(t.all, entry{id: id, fn: fn})
	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.all = without(t.all, id)
	}
}

// ListenNamed registers fn for transitions of the region called name.
func (t *Tracker) ListenNamed(name string, fn NamedListener) func() {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	t.nextID++
	id := t.nextID
	t.named[name] = append(t.named[name], entry{id: id, named: fn})
	return func() {
		t.lmu.Lock()
		defer t.lmu.Unlock()
		t.named[name] = without(t.named[name], id)
	}
}

func without(entries []entry, id uint64) []entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}
