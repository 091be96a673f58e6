package market

import (
	"encoding/json"
	"sort"
	"time"
)

// Point is one entry of an item's price history.
type Point struct {
	Time  time.Time
	Price float64
}

// pointJSON is the chart-friendly wire shape: x is unix milliseconds, y the price.
type pointJSON struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{X: p.Time.UnixMilli(), Y: p.Price})
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var pj pointJSON
	if err := json.Unmarshal(b, &pj); err != nil {
		return err
	}
	p.Time = time.UnixMilli(pj.X)
	p.Price = pj.Y
	return nil
}

// Item is a single priced drink.
//
// LastPurchased is moved by every event that changes Price, purchases and
// decay steps alike. It is the only state the decay rule looks at.
type Item struct {
	Name          string
	Price         float64
	LastPurchased time.Time
	History       []Point
}

type itemJSON struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	LastPurchased int64   `json:"lastPurchased"`
	History       []Point `json:"history"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	h := it.History
	if h == nil {
		h = []Point{}
	}
	return json.Marshal(itemJSON{
		Name:          it.Name,
		Price:         it.Price,
		LastPurchased: it.LastPurchased.UnixMilli(),
		History:       h,
	})
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var ij itemJSON
	if err := json.Unmarshal(b, &ij); err != nil {
		return err
	}
	*it = Item{
		Name:          ij.Name,
		Price:         ij.Price,
		LastPurchased: time.UnixMilli(ij.LastPurchased),
		History:       ij.History,
	}
	return nil
}

// Clone returns a copy that shares no memory with it.
func (it *Item) Clone() Item {
	c := *it
	if it.History != nil {
		c.History = make([]Point, len(it.History))
		copy(c.History, it.History)
	}
	return c
}

// IdleFor reports how long the item has gone without a price change.
func (it *Item) IdleFor(now time.Time) time.Duration {
	return now.Sub(it.LastPurchased)
}

// Seed is a startup record: a drink name and its opening price.
type Seed struct {
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
}

// Snapshot is the full state of every item keyed by name. It is always sent
// whole; consumers replace their view rather than merge.
type Snapshot map[string]Item

// Names returns the snapshot's keys in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
