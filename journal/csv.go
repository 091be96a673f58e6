package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
	"time"
)

// CSV is safe for concurrent use.
type CSV struct {
	mu sync.Mutex
	w  *csv.Writer
	f  *os.File
}

// NewCSV appends to path, writing the header when the file is new.
func NewCSV(path string) (*CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write([]string{"event_id", "time", "item", "reason", "price_before", "price_after"}); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordChange(e Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.w.Write([]string{
		e.ID,
		e.Time.UTC().Format(time.RFC3339Nano),
		e.Item,
		e.Reason,
		f(e.Before),
		f(e.After),
	}); err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.w.Flush()
	if err := j.w.Error(); err != nil {
		j.f.Close()
		return err
	}
	return j.f.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
