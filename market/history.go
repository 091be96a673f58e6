package market

import "time"

// DefaultHistoryLimit is how many points an item keeps.
const DefaultHistoryLimit = 50

// HistoryTracker appends bounded price points to an item.
type HistoryTracker struct {
	Limit int
}

// NewHistoryTracker returns a tracker holding at most limit points per item.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewHistoryTracker(limit int) HistoryTracker {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return HistoryTracker{Limit: limit}
}

// Record appends {at, it.Price} and evicts the oldest points past the limit.
// It must run after the price was updated so the point carries the new value.
// Only History is touched.
func (h HistoryTracker) Record(it *Item, at time.Time) {
	limit := h.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	// Timestamps never go backwards even if the wall clock does.
	if n := len(it.History); n > 0 && at.Before(it.History[n-1].Time) {
		at = it.History[n-1].Time
	}

	it.History = append(it.History, Point{Time: at, Price: it.Price})
	if over := len(it.History) - limit; over > 0 {
		// Shift down in place so the backing array stays bounded.
		n := copy(it.History, it.History[over:])
		clear(it.History[n:])
		it.History = it.History[:n]
	}
}
