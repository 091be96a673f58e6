// Package replay drives the pricing engine from a recorded purchase log on a
// virtual clock, running decay ticks at the scheduler cadence in between.
package replay

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/broadcast"
	"github.com/rustyeddy/drinkx/market"
	"github.com/rustyeddy/drinkx/pricing"
	"github.com/rustyeddy/drinkx/scheduler"
)

// Engine is the part of the pricing engine a replay needs.
type Engine interface {
	scheduler.Evaluator
	Purchase(name string, now time.Time) (market.Item, bool, error)
	Snapshot() market.Snapshot
}

// Purchase is one row of a purchase log.
type Purchase struct {
	Time  time.Time
	Drink string
}

// Options controls how replay behaves.
type Options struct {
	// Start is the virtual time of the first decay tick window. Ticks fire at
	// Start+Interval, Start+2*Interval, ... Zero starts at the first purchase.
	Start time.Time
	// Interval is the decay tick cadence. Zero uses scheduler.DefaultInterval.
	Interval time.Duration
	// Until keeps ticking after the last purchase up to this time.
	Until time.Time
	// Tail keeps ticking for this long after the last purchase. The later of
	// Until and last+Tail wins.
	Tail time.Duration
}

// Stats summarizes a replay.
type Stats struct {
	Purchases int
	Unknown   int
	// Rejected counts purchases refused because the price hit its limit.
	Rejected int
	Ticks     int
	Decays    int
}

// Reader parses a purchase log in CSV form:
//
//	time,drink
//	2026-05-01T20:00:03Z,Mojito
//
// The header row is optional. Times are RFC3339.
type Reader struct {
	r        *csv.Reader
	sawFirst bool
	line     int
	pending  *Purchase
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{r: cr}
}

// Peek returns the next purchase without consuming it.
func (pr *Reader) Peek() (Purchase, error) {
	if pr.pending != nil {
		return *pr.pending, nil
	}
	p, err := pr.read()
	if err != nil {
		return Purchase{}, err
	}
	pr.pending = &p
	return p, nil
}

// Next returns the next purchase, or io.EOF at the end of the log.
func (pr *Reader) Next() (Purchase, error) {
	if pr.pending != nil {
		p := *pr.pending
		pr.pending = nil
		return p, nil
	}
	return pr.read()
}

func (pr *Reader) read() (Purchase, error) {
	for {
		row, err := pr.r.Read()
		if err != nil {
			return Purchase{}, err
		}
		pr.line++

		if !pr.sawFirst {
			pr.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}
		if len(row) < 2 {
			return Purchase{}, fmt.Errorf("line %d: need time,drink: %v", pr.line, row)
		}

		t, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
		if err != nil {
			return Purchase{}, fmt.Errorf("line %d: bad time %q: %w", pr.line, row[0], err)
		}
		return Purchase{Time: t, Drink: strings.TrimSpace(row[1])}, nil
	}
}

// Run replays every purchase from r against engine. Purchases must be in
// time order. Snapshots go to sink after every purchase and every tick that
// changed something, as in the live service. A nil sink discards them.
func Run(ctx context.Context, r *Reader, engine Engine, sink broadcast.Port, opts Options) (Stats, error) {
	var st Stats

	pub := broadcast.NewPublisher(engine.Snapshot, sink)
	d := scheduler.New(engine, pub, opts.Interval)
	interval := d.Interval()
	started := !opts.Start.IsZero()
	next := opts.Start.Add(interval)

	// tickUntil runs every tick due at or before t.
	tickUntil := func(t time.Time) {
		for !next.After(t) {
			st.Ticks++
			st.Decays += d.Tick(next)
			next = next.Add(interval)
		}
	}

	var last time.Time
	for {
		if err := ctx.Err(); err != nil {
			return st, err
		}

		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return st, err
		}
		if p.Time.Before(last) {
			return st, fmt.Errorf("purchase of %s at %s is before %s", p.Drink, p.Time.Format(time.RFC3339), last.Format(time.RFC3339))
		}
		last = p.Time
		if !started {
			next = p.Time.Add(interval)
			started = true
		}

		tickUntil(p.Time)

		_, changed, err := engine.Purchase(p.Drink, p.Time)
		if errors.Is(err, market.ErrUnknownItem) {
			glog.Warningf("replay: skipping unknown drink %q", p.Drink)
			st.Unknown++
			continue
		}
		if errors.Is(err, pricing.ErrPriceOverflow) {
			glog.Warningf("replay: %s", err)
			st.Rejected++
			continue
		}
		if err != nil {
			return st, err
		}
		st.Purchases++
		if changed {
			pub.Publish()
		}
	}

	if !started {
		return st, nil
	}
	end := opts.Until
	if opts.Tail > 0 && !last.IsZero() && last.Add(opts.Tail).After(end) {
		end = last.Add(opts.Tail)
	}
	tickUntil(end)
	return st, nil
}
