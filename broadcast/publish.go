package broadcast

import (
	"sync"

	"github.com/rustyeddy/drinkx/market"
)

// Publisher takes a snapshot and hands it to a Port as one step. Every
// writer that announces a change must share the same Publisher, so
// snapshots reach the port in the order they were taken and the last one
// delivered is never older than one delivered before it.
type Publisher struct {
	mu      sync.Mutex
	current func() market.Snapshot
	port    Port
}

// NewPublisher returns a Publisher reading state from current. A nil port
// discards snapshots.
func NewPublisher(current func() market.Snapshot, port Port) *Publisher {
	if port == nil {
		port = Discard
	}
	return &Publisher{current: current, port: port}
}

// Publish sends the current state. A nil Publisher does nothing.
func (p *Publisher) Publish() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.port.Broadcast(p.current())
}
