package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changes.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"event_id", "time", "item", "reason", "price_before", "price_after"}, rows[0])
}

func TestCSVJournalAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "changes.csv")
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordChange(Event{ID: "E1", Time: at, Item: "cola", Reason: "purchase", Before: 1, After: 1.1}))
	require.NoError(t, j.Close())

	// Reopening keeps earlier rows and does not repeat the header.
	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordChange(Event{ID: "E2", Time: at.Add(time.Minute), Item: "cola", Reason: "decay", Before: 1.1, After: 0.99}))
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"E1", "2026-01-02T03:04:05Z", "cola", "purchase", "1", "1.1"}, rows[1])
	assert.Equal(t, []string{"E2", "2026-01-02T03:05:05Z", "cola", "decay", "1.1", "0.99"}, rows[2])
}
