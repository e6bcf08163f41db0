package sim_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/particlelife/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleTableStartsNeutral(t *testing.T) {
	table := sim.NewRuleTable(3)

	for src := 0; src < 3; src++ {
		for dst := 0; dst < 3; dst++ {
			r := table.Get(sim.TypeID(src), sim.TypeID(dst))
			assert.Equal(t, sim.NeutralRule(), r)
			assert.False(t, r.Collides())
		}
	}
}

func TestRuleTableMissingPairIsNeutral(t *testing.T) {
	table := sim.NewRuleTable(2)
	assert.Equal(t, sim.NeutralRule(), table.Get(5, 0))
	assert.Equal(t, sim.NeutralRule(), table.Get(0, 9))
}

func TestRuleTableIsDirectional(t *testing.T) {
	table := sim.NewRuleTable(2)
	require.NoError(t, table.Set(0, 1, sim.Rule{CloseForce: 0.5, FarForce: -0.5, Threshold: 30}))

	assert.Equal(t, 0.5, table.Get(0, 1).CloseForce)
	assert.Equal(t, sim.NeutralRule(), table.Get(1, 0))
}

func TestRuleTableSetValidates(t *testing.T) {
	table := sim.NewRuleTable(2)

	assert.Error(t, table.Set(2, 0, sim.NeutralRule()))
	assert.Error(t, table.Set(0, 0, sim.Rule{Threshold: 0}))
	assert.Error(t, table.Set(0, 0, sim.Rule{Threshold: 10, Spawns: []sim.SpawnSpec{{Type: 4, Count: 1}}}))
	assert.Error(t, table.Set(0, 0, sim.Rule{Threshold: 10, Spawns: []sim.SpawnSpec{{Type: 1, Count: -1}}}))
}

func TestRuleTableSetCopiesSpawns(t *testing.T) {
	table := sim.NewRuleTable(2)
	spawns := []sim.SpawnSpec{{Type: 1, Count: 2}}
	require.NoError(t, table.Set(0, 1, sim.Rule{Threshold: 10, Spawns: spawns}))

	spawns[0].Count = 99
	assert.Equal(t, 2, table.Get(0, 1).Spawns[0].Count)
}

func TestRuleTableGetReturnsCopy(t *testing.T) {
	table := sim.NewRuleTable(2)
	require.NoError(t, table.Set(0, 1, sim.Rule{Threshold: 10, Spawns: []sim.SpawnSpec{{Type: 1, Count: 2}}}))

	got := table.Get(0, 1)
	got.Spawns[0].Count = 99
	got.Spawns[0].Type = 7

	assert.Equal(t, []sim.SpawnSpec{{Type: 1, Count: 2}}, table.Get(0, 1).Spawns)
}

func TestRuleTableClear(t *testing.T) {
	table := sim.NewRuleTable(3)
	table.RandomizeForces(rand.New(rand.NewPCG(1, 1)))
	table.Clear()

	for src := 0; src < 3; src++ {
		for dst := 0; dst < 3; dst++ {
			assert.Equal(t, sim.NeutralRule(), table.Get(sim.TypeID(src), sim.TypeID(dst)))
		}
	}
}

func TestRuleTableRandomizeForcesRanges(t *testing.T) {
	table := sim.NewRuleTable(6)
	table.RandomizeForces(rand.New(rand.NewPCG(5, 8)))

	distinct := map[float64]bool{}
	for src := 0; src < 6; src++ {
		for dst := 0; dst < 6; dst++ {
			r := table.Get(sim.TypeID(src), sim.TypeID(dst))
			assert.GreaterOrEqual(t, r.CloseForce, -1.0)
			assert.LessOrEqual(t, r.CloseForce, 1.0)
			assert.GreaterOrEqual(t, r.FarForce, -1.0)
			assert.LessOrEqual(t, r.FarForce, 1.0)
			assert.GreaterOrEqual(t, r.Threshold, 20.0)
			assert.LessOrEqual(t, r.Threshold, 60.0)
			assert.False(t, r.Collides())
			distinct[r.CloseForce] = true
		}
	}
	assert.Greater(t, len(distinct), 30)
}

func TestRuleTableRandomizeCollisionsConstraints(t *testing.T) {
	const n = 8
	offDiagonal := n * (n - 1)

	for seed := uint64(0); seed < 50; seed++ {
		table := sim.NewRuleTable(n)
		table.RandomizeForces(rand.New(rand.NewPCG(seed, 0)))
		before := table.Snapshot()
		table.RandomizeCollisions(rand.New(rand.NewPCG(seed, 1)))

		collisionPairs := 0
		for src := 0; src < n; src++ {
			for dst := 0; dst < n; dst++ {
				r := table.Get(sim.TypeID(src), sim.TypeID(dst))
				prev := before.Get(sim.TypeID(src), sim.TypeID(dst))
				assert.Equal(t, prev.CloseForce, r.CloseForce, "forces are untouched")

				if src == dst {
					assert.False(t, r.DestroyOnCollision)
					assert.Empty(t, r.Spawns)
					continue
				}
				if r.DestroyOnCollision || len(r.Spawns) > 0 {
					collisionPairs++
				}

				total := 0
				for _, s := range r.Spawns {
					total += s.Count
					assert.Less(t, int(s.Type), n)
				}
				assert.LessOrEqual(t, total, 2)
				if len(r.Spawns) == 2 {
					assert.NotEqual(t, r.Spawns[0].Type, r.Spawns[1].Type)
					assert.Equal(t, 1, r.Spawns[0].Count)
					assert.Equal(t, 1, r.Spawns[1].Count)
				}
			}
		}
		assert.LessOrEqual(t, collisionPairs, int(float64(offDiagonal)*0.3))
	}
}

func TestRuleTableRandomizeCollisionsResetsPrevious(t *testing.T) {
	table := sim.NewRuleTable(3)
	require.NoError(t, table.Set(0, 0, sim.Rule{Threshold: 10, DestroyOnCollision: true}))

	table.RandomizeCollisions(rand.New(rand.NewPCG(1, 2)))
	assert.False(t, table.Get(0, 0).Collides())
}

func TestRuleSnapshotIsImmutable(t *testing.T) {
	table := sim.NewRuleTable(2)
	require.NoError(t, table.Set(0, 1, sim.Rule{CloseForce: 1, Threshold: 10, Spawns: []sim.SpawnSpec{{Type: 1, Count: 1}}}))
	snap := table.Snapshot()

	require.NoError(t, table.Set(0, 1, sim.Rule{CloseForce: -1, Threshold: 10}))
	got := snap.Get(0, 1)
	assert.Equal(t, 1.0, got.CloseForce)
	assert.Len(t, got.Spawns, 1)

	got.Spawns[0].Count = 50
	assert.Equal(t, 1, snap.Get(0, 1).Spawns[0].Count)

	require.NoError(t, table.Restore(snap))
	assert.Equal(t, 1.0, table.Get(0, 1).CloseForce)
	assert.Error(t, sim.NewRuleTable(3).Restore(snap))
}

func snapshotWithForce(f float64) sim.RuleSnapshot {
	table := sim.NewRuleTable(1)
	_ = table.Set(0, 0, sim.Rule{CloseForce: f, Threshold: 10})
	return table.Snapshot()
}

func forceOf(s sim.RuleSnapshot) float64 {
	return s.Get(0, 0).CloseForce
}

func TestHistoryUndoRedo(t *testing.T) {
	h := sim.NewHistory(10)
	_, ok := h.Undo()
	assert.False(t, ok)

	h.Push(snapshotWithForce(0))
	h.Push(snapshotWithForce(1))
	h.Push(snapshotWithForce(2))
	assert.Equal(t, 3, h.Len())
	assert.False(t, h.CanRedo())

	s, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 1.0, forceOf(s))

	s, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, 0.0, forceOf(s))

	_, ok = h.Undo()
	assert.False(t, ok, "cannot undo past the first entry")

	s, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, 1.0, forceOf(s))
}

func TestHistoryPushTruncatesRedo(t *testing.T) {
	h := sim.NewHistory(10)
	h.Push(snapshotWithForce(0))
	h.Push(snapshotWithForce(1))
	h.Push(snapshotWithForce(2))
	h.Undo()
	h.Undo()

	h.Push(snapshotWithForce(7))
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())

	s, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 0.0, forceOf(s))

	s, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, 7.0, forceOf(s))
}

func TestHistoryCapacityDropsOldest(t *testing.T) {
	h := sim.NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(snapshotWithForce(float64(i)))
	}
	assert.Equal(t, 3, h.Len())

	var seen []float64
	for h.CanUndo() {
		s, _ := h.Undo()
		seen = append(seen, forceOf(s))
	}
	assert.Equal(t, []float64{3, 2}, seen)

	for h.CanRedo() {
		s, _ := h.Redo()
		seen = append(seen, forceOf(s))
	}
	assert.Equal(t, []float64{3, 2, 3, 4}, seen)
}

func TestHistoryDefaultSize(t *testing.T) {
	h := sim.NewHistory(0)
	for i := 0; i < sim.DefaultHistorySize+10; i++ {
		h.Push(snapshotWithForce(float64(i)))
	}
	assert.Equal(t, sim.DefaultHistorySize, h.Len())
}
