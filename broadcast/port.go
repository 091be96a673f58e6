// Package broadcast delivers full price snapshots to viewers.
package broadcast

import "github.com/rustyeddy/drinkx/market"

// Port receives the complete state whenever prices change.
type Port interface {
	Broadcast(market.Snapshot)
}

// Func adapts a function to Port.
type Func func(market.Snapshot)

func (f Func) Broadcast(s market.Snapshot) { f(s) }

// Multi fans a snapshot out to several ports in order.
type Multi []Port

func (m Multi) Broadcast(s market.Snapshot) {
	for _, p := range m {
		if p != nil {
			p.Broadcast(s)
		}
	}
}

// Discard drops every snapshot.
var Discard Port = Func(func(market.Snapshot) {})
