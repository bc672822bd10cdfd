package engram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engram "github.com/hallorn/engram"
	"github.com/hallorn/engram/core"
	"github.com/hallorn/engram/memory"
)

func TestWorldLifecycle(t *testing.T) {
	w := engram.New("demo", func(o *engram.Options) {
		o.Entities = []string{"ember", "vann"}
	})
	defer w.Close()

	require.NoError(t, w.ProcessEvent(core.GameEvent{
		Type:           core.EventInteraction,
		ActorID:        "ember",
		TargetIDs:      []string{"vann"},
		Description:    "bartered for a lantern",
		ImportanceHint: 6,
		Impact:         0.25,
	}))

	assert.Equal(t, core.Tick(1), w.Clock())

	rel := w.Relationship("ember", "vann")
	assert.Equal(t, 0.25, rel.Friendship)

	recs, err := w.Recall("ember", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "bartered for a lantern", recs[0].Content)

	global := w.QueryGlobal(memory.Filter{SubjectID: "vann"})
	require.Len(t, global, 1)

	require.NoError(t, w.RegisterEntity("mara"))
	assert.True(t, w.Registered("mara"))
	require.NoError(t, w.RemoveEntity("mara"))
	assert.False(t, w.Registered("mara"))

	stats := w.Stats()
	assert.Equal(t, 1, stats.GlobalRecords)
	assert.Equal(t, 1, stats.Relations)
}

func TestWorldSnapshotRestore(t *testing.T) {
	w := engram.New("demo", func(o *engram.Options) {
		o.Entities = []string{"ember"}
	})
	defer w.Close()

	require.NoError(t, w.ProcessEvent(core.GameEvent{
		Type:        core.EventObservation,
		ActorID:     "ember",
		Description: "smelled smoke on the wind",
	}))

	snap := w.Snapshot()

	fresh := engram.New("demo")
	defer fresh.Close()
	require.NoError(t, fresh.Restore(snap))

	recs, err := fresh.QueryLocal("ember", 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "smelled smoke on the wind", recs[0].Content)
}
