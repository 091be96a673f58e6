package journal

import (
	"github.com/golang/glog"
	"github.com/rustyeddy/drinkx/id"
	"github.com/rustyeddy/drinkx/pricing"
)

// Recorder writes pricing changes to a Journal. Write failures are logged
// and never reach the pricing path.
type Recorder struct {
	J Journal
}

func (r Recorder) OnPriceChange(c pricing.Change) {
	e := Event{
		ID:     id.At(c.At),
		Time:   c.At,
		Item:   c.Item,
		Reason: string(c.Reason),
		Before: c.Before,
		After:  c.After,
	}
	if err := r.J.RecordChange(e); err != nil {
		glog.Errorf("journal %s %s: %s", e.Reason, e.Item, err)
	}
}
