package pricing

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rustyeddy/drinkx/market"
)

// ErrPriceOverflow is returned by Purchase when the raised price would no
// longer be a finite number. The item is left as it was.
var ErrPriceOverflow = errors.New("price overflow")

// Reason says which rule produced a Change.
type Reason string

const (
	ReasonPurchase Reason = "purchase"
	ReasonDecay    Reason = "decay"
)

// Change describes one applied price movement.
type Change struct {
	Item   string
	Reason Reason
	Before float64
	After  float64
	At     time.Time
}

// Listener is notified of every Change after the engine lock is released.
type Listener interface {
	OnPriceChange(Change)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Change)

func (f ListenerFunc) OnPriceChange(c Change) { f(c) }

// Engine applies the purchase and decay rules to a store.
//
// All operations are serialized behind a single mutex. Callers pass now in
// explicitly; the engine never reads the wall clock.
type Engine struct {
	mu       sync.Mutex
	store    *market.Store
	rules    Rules
	listener Listener
}

func New(store *market.Store, rules Rules) *Engine {
	return &Engine{
		store: store,
		rules: rules,
	}
}

// SetListener sets an optional observer for applied changes.
func (e *Engine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listener = l
}

func (e *Engine) Rules() Rules { return e.rules }

// Purchase raises the price of name by the purchase factor. The returned
// bool is true whenever the state changed and a broadcast is due; for a
// successful purchase it always is.
func (e *Engine) Purchase(name string, now time.Time) (market.Item, bool, error) {
	e.mu.Lock()

	it, err := e.store.Get(name)
	if err != nil {
		e.mu.Unlock()
		return market.Item{}, false, err
	}

	before := it.Price
	if math.IsInf(before*e.rules.PurchaseFactor, 0) {
		e.mu.Unlock()
		return market.Item{}, false, fmt.Errorf("%q at %v: %w", name, before, ErrPriceOverflow)
	}
	after := e.rules.apply(before, e.rules.PurchaseFactor)
	if after <= before {
		// Subnormal prices can round back to themselves.
		after = math.Nextafter(before, math.Inf(1))
	}
	e.applyLocked(it, after, now)

	out := it.Clone()
	listener := e.listener
	e.mu.Unlock()

	if listener != nil {
		listener.OnPriceChange(Change{Item: name, Reason: ReasonPurchase, Before: before, After: after, At: now})
	}
	return out, true, nil
}

// EvaluateDecay lowers every item that has been idle longer than the
// threshold by one decay step and returns the items it changed.
//
// Each decayed item has its idle clock reset to now, so an item decays at
// most once per call no matter how long it has been idle. The whole sweep
// runs under the lock and is never observed half done.
func (e *Engine) EvaluateDecay(now time.Time) []market.Item {
	e.mu.Lock()

	var (
		changed []market.Item
		events  []Change
	)
	for _, name := range e.store.Names() {
		it, err := e.store.Get(name)
		if err != nil {
			continue
		}
		if it.IdleFor(now) <= e.rules.IdleThreshold {
			continue
		}

		before := it.Price
		after := e.rules.apply(before, e.rules.DecayFactor)
		if after == before {
			// Pinned at the floor.
			continue
		}
		e.applyLocked(it, after, now)

		changed = append(changed, it.Clone())
		events = append(events, Change{Item: name, Reason: ReasonDecay, Before: before, After: after, At: now})
	}

	listener := e.listener
	e.mu.Unlock()

	if listener != nil {
		for _, c := range events {
			listener.OnPriceChange(c)
		}
	}
	return changed
}

// applyLocked sets the new price, resets the idle clock and records history.
func (e *Engine) applyLocked(it *market.Item, price float64, now time.Time) {
	it.Price = price
	it.LastPurchased = now
	e.store.History().Record(it, now)
}

// Snapshot returns a copy of every item.
func (e *Engine) Snapshot() market.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.All()
}

// Get returns a copy of one item.
func (e *Engine) Get(name string) (market.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	it, err := e.store.Get(name)
	if err != nil {
		return market.Item{}, err
	}
	return it.Clone(), nil
}
