package market

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotWireFormat(t *testing.T) {
	t.Parallel()

	at := time.UnixMilli(1_700_000_000_000)
	snap := Snapshot{
		"cola": {
			Name:          "cola",
			Price:         1.1,
			LastPurchased: at,
			History:       []Point{{Time: at, Price: 1.1}},
		},
	}

	b, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cola":{"name":"cola","price":1.1,"lastPurchased":1700000000000,"history":[{"x":1700000000000,"y":1.1}]}}`, string(b))

	var back Snapshot
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 1.1, back["cola"].Price)
	assert.True(t, at.Equal(back["cola"].LastPurchased))
	assert.True(t, at.Equal(back["cola"].History[0].Time))
}

func TestItemEmptyHistoryMarshalsAsArray(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Item{Name: "x", Price: 1, LastPurchased: time.UnixMilli(0)})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"history":[]`)
}

func TestSnapshotNamesSorted(t *testing.T) {
	t.Parallel()

	snap := Snapshot{"wine": {}, "beer": {}, "cola": {}}
	assert.Equal(t, []string{"beer", "cola", "wine"}, snap.Names())
}

func TestItemIdleFor(t *testing.T) {
	t.Parallel()

	it := Item{LastPurchased: t0}
	assert.Equal(t, 20*time.Second, it.IdleFor(t0.Add(20*time.Second)))
}
