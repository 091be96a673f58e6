package market

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Store maps drink names to their live state.
//
// Store does no locking of its own. The pricing engine is its single owner
// and serializes every read and write.
type Store struct {
	items   map[string]*Item
	history HistoryTracker
}

func NewStore(history HistoryTracker) *Store {
	return &Store{
		items:   make(map[string]*Item),
		history: history,
	}
}

// Seed registers a drink at startup with one history point at now.
func (s *Store) Seed(name string, price float64, now time.Time) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("seed: empty name: %w", ErrInvalidSeed)
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return fmt.Errorf("seed %q: price %v must be positive: %w", name, price, ErrInvalidSeed)
	}
	if _, ok := s.items[name]; ok {
		return fmt.Errorf("seed %q: %w", name, ErrDuplicateItem)
	}

	it := &Item{
		Name:          name,
		Price:         price,
		LastPurchased: now,
	}
	s.history.Record(it, now)
	s.items[name] = it
	return nil
}

// SeedAll seeds every record in order and stops at the first error.
func (s *Store) SeedAll(seeds []Seed, now time.Time) error {
	for _, sd := range seeds {
		if err := s.Seed(sd.Name, sd.Price, now); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the live item. Callers outside the engine should use a copy.
func (s *Store) Get(name string) (*Item, error) {
	it, ok := s.items[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownItem)
	}
	return it, nil
}

// All returns a deep copy of every item.
func (s *Store) All() Snapshot {
	out := make(Snapshot, len(s.items))
	for name, it := range s.items {
		out[name] = it.Clone()
	}
	return out
}

// Names returns the item names sorted, so sweeps visit items in a stable order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.items))
	for n := range s.items {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Store) Len() int { return len(s.items) }

// History returns the tracker used to record points for this store.
func (s *Store) History() HistoryTracker { return s.history }
