// Package scheduler drives periodic decay evaluation.
package scheduler

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/broadcast"
	"github.com/rustyeddy/drinkx/market"
)

// DefaultInterval is the decay evaluation cadence.
const DefaultInterval = 5 * time.Second

// Evaluator is the part of the pricing engine the scheduler needs.
type Evaluator interface {
	EvaluateDecay(now time.Time) []market.Item
}

// Decay asks the engine to evaluate decay on a fixed cadence and broadcasts
// the full snapshot whenever something changed.
type Decay struct {
	ev       Evaluator
	pub      *broadcast.Publisher
	interval time.Duration
	clock    func() time.Time
}

// Option configures a Decay scheduler.
type Option func(*Decay)

// WithClock replaces time.Now as the source of evaluation timestamps.
func WithClock(clock func() time.Time) Option {
	return func(d *Decay) { d.clock = clock }
}

// New returns a scheduler. A non-positive interval uses DefaultInterval and
// a nil publisher drops broadcasts. pub must be the one the purchase path
// publishes through.
func New(ev Evaluator, pub *broadcast.Publisher, interval time.Duration, opts ...Option) *Decay {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Decay{
		ev:       ev,
		pub:      pub,
		interval: interval,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Decay) Interval() time.Duration { return d.interval }

// Tick runs one evaluation at now and returns how many items decayed.
func (d *Decay) Tick(now time.Time) int {
	changed := d.ev.EvaluateDecay(now)
	if len(changed) == 0 {
		return 0
	}

	for _, it := range changed {
		glog.Infof("price decay: %s now %.2f", it.Name, it.Price)
	}
	d.pub.Publish()
	return len(changed)
}

// Run ticks every interval until ctx is cancelled. A tick that has started
// always finishes; no tick starts after Run returns.
func (d *Decay) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	glog.Infof("decay scheduler started, every %s", d.interval)
	for {
		select {
		case <-ctx.Done():
			glog.Infof("decay scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			// Prefer shutdown when both are ready.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.Tick(d.clock())
		}
	}
}
