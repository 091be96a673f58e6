package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/drinkx/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "drinkx version "+version)
}

func TestConfigInitThenValidate(t *testing.T) {
	dir := t.TempDir()
	drinks := filepath.Join(dir, "drinks.json")
	require.NoError(t, os.WriteFile(drinks, []byte(`[{"name":"cola","price":1},{"name":"beer","price":3}]`), 0o644))

	cfgPath := filepath.Join(dir, "drinkx.yaml")
	out, err := run(t, "config", "init", "-o", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	t.Setenv("DRINKX_DRINKS_FILE", drinks)
	out, err = run(t, "config", "validate", "-f", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Drinks: 2")
}

func TestConfigValidateMissingDrinks(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "drinkx.yaml")
	_, err := run(t, "config", "init", "-o", cfgPath)
	require.NoError(t, err)

	t.Setenv("DRINKX_DRINKS_FILE", filepath.Join(dir, "nope.json"))
	_, err = run(t, "config", "validate", "-f", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load drinks")
}

func TestJournalPrintsRecentChanges(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	j, err := journal.NewSQLite(db)
	require.NoError(t, err)

	at := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordChange(journal.Event{ID: "01A", Time: at, Item: "cola", Reason: "purchase", Before: 1, After: 1.1}))
	require.NoError(t, j.RecordChange(journal.Event{ID: "01B", Time: at.Add(time.Minute), Item: "beer", Reason: "decay", Before: 3, After: 2.7}))
	require.NoError(t, j.Close())

	out, err := run(t, "journal", "--db", db, "--drink", "", "-n", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "DRINK")
	assert.Contains(t, out, "1.10")
	assert.Contains(t, out, "10.0%")
	assert.Contains(t, out, "-10.0%")

	out, err = run(t, "journal", "--db", db, "--drink", "cola", "-n", "5")
	require.NoError(t, err)
	assert.NotContains(t, out, "beer")
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	drinks := filepath.Join(dir, "drinks.json")
	require.NoError(t, os.WriteFile(drinks, []byte(`[{"name":"cola","price":2}]`), 0o644))
	purchases := filepath.Join(dir, "purchases.csv")
	require.NoError(t, os.WriteFile(purchases, []byte("time,drink\n2026-05-01T20:00:00Z,cola\n2026-05-01T20:00:01Z,cola\n"), 0o644))

	out, err := run(t, "replay", "--log", purchases, "--drinks", drinks, "--tail", "0s")
	require.NoError(t, err)
	assert.Contains(t, out, "2 purchases, 0 unknown")
	// 2.00 * 1.1 * 1.1
	assert.Contains(t, out, "2.42")
}

func TestReplayEmptyLog(t *testing.T) {
	dir := t.TempDir()
	purchases := filepath.Join(dir, "purchases.csv")
	require.NoError(t, os.WriteFile(purchases, []byte("time,drink\n"), 0o644))

	_, err := run(t, "replay", "--log", purchases, "--drinks", filepath.Join(dir, "drinks.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no purchases")
}
