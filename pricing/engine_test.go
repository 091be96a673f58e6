package pricing

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/drinkx/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

var epoch = time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)

func at(ms int64) time.Time { return epoch.Add(time.Duration(ms) * time.Millisecond) }

func newEngine(t *testing.T, rules Rules, seeds ...market.Seed) *Engine {
	t.Helper()

	store := market.NewStore(market.NewHistoryTracker(market.DefaultHistoryLimit))
	require.NoError(t, store.SeedAll(seeds, epoch))
	return New(store, rules)
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) OnPriceChange(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func TestPurchaseRaisesPrice(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 2.0})

	it, changed, err := e.Purchase("cola", at(500))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.InDelta(t, 2.2, it.Price, tol)
	assert.Equal(t, at(500), it.LastPurchased)
	require.Len(t, it.History, 2)
	assert.Equal(t, at(500), it.History[1].Time)
	assert.InDelta(t, 2.2, it.History[1].Price, tol)
}

func TestPurchaseUnknownItem(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})
	rec := &recorder{}
	e.SetListener(rec)
	before := e.Snapshot()

	it, changed, err := e.Purchase("absinthe", at(1000))
	assert.ErrorIs(t, err, market.ErrUnknownItem)
	assert.False(t, changed)
	assert.Equal(t, market.Item{}, it)
	assert.Equal(t, before, e.Snapshot())
	assert.Empty(t, rec.changes)
}

func TestDecaySkipsRecentItems(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})

	// Exactly at the threshold is not idle yet.
	assert.Empty(t, e.EvaluateDecay(at(20000)))

	cola, err := e.Get("cola")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cola.Price)
	assert.Len(t, cola.History, 1)
}

func TestDecayResetsIdleClock(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})

	changed := e.EvaluateDecay(at(60000))
	require.Len(t, changed, 1)
	// One step only, even after three thresholds' worth of idling.
	assert.InDelta(t, 0.9, changed[0].Price, tol)
	assert.Equal(t, at(60000), changed[0].LastPurchased)

	assert.Empty(t, e.EvaluateDecay(at(60000)))
	assert.Empty(t, e.EvaluateDecay(at(80000)))

	changed = e.EvaluateDecay(at(80001))
	require.Len(t, changed, 1)
	assert.InDelta(t, 0.81, changed[0].Price, tol)
}

func TestReferenceScenario(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})

	it, _, err := e.Purchase("cola", at(0))
	require.NoError(t, err)
	assert.InDelta(t, 1.10, it.Price, tol)

	it, _, err = e.Purchase("cola", at(1000))
	require.NoError(t, err)
	assert.InDelta(t, 1.21, it.Price, tol)

	changed := e.EvaluateDecay(at(25000))
	require.Len(t, changed, 1)
	assert.InDelta(t, 1.089, changed[0].Price, tol)
	assert.Equal(t, at(25000), changed[0].LastPurchased)

	assert.Empty(t, e.EvaluateDecay(at(30000)))

	cola, err := e.Get("cola")
	require.NoError(t, err)
	assert.InDelta(t, 1.089, cola.Price, tol)
	assert.Len(t, cola.History, 4)
}

func TestDecayOnlyTouchesIdleItems(t *testing.T) {
	e := newEngine(t, DefaultRules(),
		market.Seed{Name: "beer", Price: 3.0},
		market.Seed{Name: "cola", Price: 1.0},
	)

	_, _, err := e.Purchase("beer", at(15000))
	require.NoError(t, err)

	changed := e.EvaluateDecay(at(25000))
	require.Len(t, changed, 1)
	assert.Equal(t, "cola", changed[0].Name)

	beer, err := e.Get("beer")
	require.NoError(t, err)
	assert.InDelta(t, 3.3, beer.Price, tol)
}

func TestIdleEvaluationsAreNoOps(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})
	rec := &recorder{}
	e.SetListener(rec)
	before := e.Snapshot()

	for ms := int64(0); ms <= 20000; ms += 5000 {
		assert.Empty(t, e.EvaluateDecay(at(ms)))
	}
	assert.Equal(t, before, e.Snapshot())
	assert.Empty(t, rec.changes)
}

func TestPricesStayPositiveAndHistoryBounded(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "cola", Price: 1.0})

	now := int64(0)
	for i := 0; i < 500; i++ {
		now += 20001
		e.EvaluateDecay(at(now))
		if i%7 == 0 {
			_, _, err := e.Purchase("cola", at(now))
			require.NoError(t, err)
		}

		cola, err := e.Get("cola")
		require.NoError(t, err)
		assert.Greater(t, cola.Price, 0.0)
		assert.LessOrEqual(t, len(cola.History), market.DefaultHistoryLimit)
	}

	cola, err := e.Get("cola")
	require.NoError(t, err)
	require.Len(t, cola.History, market.DefaultHistoryLimit)
	for i := 1; i < len(cola.History); i++ {
		assert.False(t, cola.History[i].Time.Before(cola.History[i-1].Time))
	}
	assert.Equal(t, cola.Price, cola.History[len(cola.History)-1].Price)
}

func TestDecayStopsAtFloor(t *testing.T) {
	rules := DefaultRules()
	rules.MinPrice = 0.85
	e := newEngine(t, rules, market.Seed{Name: "cola", Price: 1.0})

	changed := e.EvaluateDecay(at(20001))
	require.Len(t, changed, 1)
	assert.InDelta(t, 0.9, changed[0].Price, tol)

	changed = e.EvaluateDecay(at(40002))
	require.Len(t, changed, 1)
	assert.Equal(t, 0.85, changed[0].Price)

	// Pinned: no change, so the idle clock keeps its value.
	assert.Empty(t, e.EvaluateDecay(at(60003)))
	cola, err := e.Get("cola")
	require.NoError(t, err)
	assert.Equal(t, at(40002), cola.LastPurchased)
	assert.Len(t, cola.History, 3)
}

func TestListenerSeesEveryChange(t *testing.T) {
	e := newEngine(t, DefaultRules(),
		market.Seed{Name: "beer", Price: 3.0},
		market.Seed{Name: "cola", Price: 1.0},
	)
	rec := &recorder{}
	e.SetListener(rec)

	_, _, err := e.Purchase("cola", at(100))
	require.NoError(t, err)
	e.EvaluateDecay(at(20050))

	require.Len(t, rec.changes, 2)
	assert.Equal(t, Change{Item: "cola", Reason: ReasonPurchase, Before: 1.0, After: rec.changes[0].After, At: at(100)}, rec.changes[0])
	assert.InDelta(t, 1.1, rec.changes[0].After, tol)
	assert.Equal(t, "beer", rec.changes[1].Item)
	assert.Equal(t, ReasonDecay, rec.changes[1].Reason)
	assert.InDelta(t, 2.7, rec.changes[1].After, tol)
}

func TestConcurrentPurchases(t *testing.T) {
	e := newEngine(t, DefaultRules(),
		market.Seed{Name: "beer", Price: 1.0},
		market.Seed{Name: "cola", Price: 1.0},
	)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := e.Purchase("cola", at(1))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := e.Purchase("beer", at(1))
			assert.NoError(t, err)
			e.EvaluateDecay(at(2))
		}()
	}
	wg.Wait()

	snap := e.Snapshot()
	for _, name := range []string{"beer", "cola"} {
		want := 1.0
		for i := 0; i < n; i++ {
			want *= 1.10
		}
		assert.InDelta(t, want, snap[name].Price, want*1e-9)
		assert.Len(t, snap[name].History, n+1)
	}
}

func TestPurchaseOverflowIsRejected(t *testing.T) {
	e := newEngine(t, DefaultRules(), market.Seed{Name: "gold", Price: 1.7e308})
	rec := &recorder{}
	e.SetListener(rec)

	it, changed, err := e.Purchase("gold", at(1000))
	assert.ErrorIs(t, err, ErrPriceOverflow)
	assert.False(t, changed)
	assert.Equal(t, market.Item{}, it)

	gold, err := e.Get("gold")
	require.NoError(t, err)
	assert.Equal(t, 1.7e308, gold.Price)
	assert.Equal(t, epoch, gold.LastPurchased)
	assert.Len(t, gold.History, 1)
	assert.Empty(t, rec.changes)
}

func TestPurchaseAlwaysMovesSubnormalPrice(t *testing.T) {
	tiny := math.SmallestNonzeroFloat64
	e := newEngine(t, DefaultRules(), market.Seed{Name: "water", Price: tiny})

	it, changed, err := e.Purchase("water", at(1000))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Greater(t, it.Price, tiny)
	assert.Equal(t, at(1000), it.LastPurchased)
	assert.Len(t, it.History, 2)
}
