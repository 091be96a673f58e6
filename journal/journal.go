// Package journal keeps an append-only audit trail of price changes.
//
// The journal is write-only from the service's point of view: it is never
// read back to rebuild prices after a restart.
package journal

import (
	"fmt"
	"time"
)

// Event is one applied price change.
type Event struct {
	ID     string
	Time   time.Time
	Item   string
	Reason string
	Before float64
	After  float64
}

type Journal interface {
	RecordChange(Event) error
	Close() error
}

// Open returns the journal for kind: "sqlite", "csv" or "none".
func Open(kind, path string) (Journal, error) {
	switch kind {
	case "", "none":
		return Nop{}, nil
	case "sqlite":
		return NewSQLite(path)
	case "csv":
		return NewCSV(path)
	default:
		return nil, fmt.Errorf("unknown journal type %q", kind)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordChange(Event) error { return nil }
func (Nop) Close() error             { return nil }
