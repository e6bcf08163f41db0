package sim_test

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/plus3/particlelife/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSim(t *testing.T, types int) *sim.Simulation {
	t.Helper()
	cfg := sim.DefaultConfig(200, 200, types, 10)
	cfg.Resolver.CollisionDistanceRatio = 2
	s, err := sim.New(cfg, sim.NewTypeTable(types), sim.WithRand(rand.New(rand.NewPCG(1, 1))))
	require.NoError(t, err)
	return s
}

func TestNewValidates(t *testing.T) {
	_, err := sim.New(sim.DefaultConfig(100, 100, 1, 1), sim.TypeTable{})
	assert.ErrorIs(t, err, sim.ErrInvalidTypes)

	cfg := sim.DefaultConfig(100, 100, 1, 1)
	cfg.Physics.Friction = 2
	_, err = sim.New(cfg, sim.NewTypeTable(1))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)

	cfg = sim.DefaultConfig(0, 100, 1, 1)
	_, err = sim.New(cfg, sim.NewTypeTable(1))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)

	cfg = sim.DefaultConfig(100, 100, 1, 1)
	cfg.Physics.MaxVelocity = 0
	_, err = sim.New(cfg, sim.NewTypeTable(1))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)

	cfg = sim.DefaultConfig(100, 100, 1, 1)
	cfg.Physics.MaxAcceleration = 0
	_, err = sim.New(cfg, sim.NewTypeTable(1))
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)

	cfg = sim.DefaultConfig(100, 100, 1, 1)
	cfg.Physics.MaxVelocity = 0
	cfg.Resolver.ClampVelocity = false
	_, err = sim.New(cfg, sim.NewTypeTable(1))
	assert.NoError(t, err, "zero limit is fine when the clamp is off")
}

func TestTypeTableValidate(t *testing.T) {
	assert.NoError(t, sim.TypeTable{Names: []string{"a", "b"}, Colors: []string{"#ff0000", "#00FF00"}}.Validate())
	assert.Error(t, sim.TypeTable{Names: []string{"a", "a"}}.Validate())
	assert.Error(t, sim.TypeTable{Names: []string{"a", ""}}.Validate())
	assert.Error(t, sim.TypeTable{Names: []string{"a"}, Colors: []string{"red"}}.Validate())
	assert.Error(t, sim.TypeTable{Names: []string{"a"}, Colors: []string{"#fff", "#000"}}.Validate())
	assert.Error(t, sim.NewTypeTable(sim.MaxTypes+1).Validate())

	types := sim.TypeTable{Names: []string{"red", "green"}}
	id, ok := types.Lookup("green")
	assert.True(t, ok)
	assert.Equal(t, sim.TypeID(1), id)
	id, ok = types.Lookup("0")
	assert.True(t, ok)
	assert.Equal(t, sim.TypeID(0), id)
	_, ok = types.Lookup("2")
	assert.False(t, ok)
	assert.Equal(t, "7", types.Name(7))
}

func TestSimulationSpawnAndRemove(t *testing.T) {
	s := newTestSim(t, 2)

	a := s.Spawn(10, 10, 0)
	b := s.Spawn(20, 20, 1)
	c := s.Spawn(30, 30, 1)
	assert.Nil(t, s.Spawn(1, 1, 9), "unknown type")
	assert.Equal(t, 3, s.Len())

	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, 2, s.Len())
	assert.Nil(t, s.Entity(a.ID))
	assert.Same(t, b, s.Entity(b.ID))
	assert.Same(t, c, s.Entity(c.ID))
	assert.ElementsMatch(t, []*sim.Entity{b, c}, s.Entities())
}

func TestSimulationSpawnClampsIntoWorld(t *testing.T) {
	s := newTestSim(t, 1)
	e := s.Spawn(-50, 500, 0)
	assert.Equal(t, 0.0, e.X)
	assert.Equal(t, 200.0, e.Y)
}

func TestSimulationPopulate(t *testing.T) {
	s := newTestSim(t, 3)
	s.Populate(func(spawn sim.SpawnFunc) {
		for typ := 0; typ < 3; typ++ {
			for i := 0; i < 10; i++ {
				spawn(float64(10+i*15), float64(20+typ*50), sim.TypeID(typ))
			}
		}
	})
	assert.Equal(t, 30, s.Len())

	views := s.Snapshot(nil)
	require.Len(t, views, 30)
	assert.Equal(t, sim.DefaultPhysics().Size, views[0].Size)

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Pool().Active())
}

func TestSimulationDestroyScenario(t *testing.T) {
	s := newTestSim(t, 2)
	require.NoError(t, s.SetRule(typeA, typeB, sim.Rule{Threshold: 40, DestroyOnCollision: true}))

	a := s.Spawn(100, 100, typeA)
	b := s.Spawn(101, 100, typeB)
	idA, idB := a.ID, b.ID

	res := s.Step()
	assert.Equal(t, 1, res.Collisions)
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Entity(idA))
	assert.Nil(t, s.Entity(idB))
	assert.Equal(t, 0, s.Pool().Active())
}

func TestSimulationSpawnScenario(t *testing.T) {
	s := newTestSim(t, 3)
	require.NoError(t, s.SetRule(typeA, typeB, sim.Rule{
		Threshold: 40,
		Spawns:    []sim.SpawnSpec{{Type: typeC, Count: 2}},
	}))

	s.Spawn(100, 100, typeA)
	s.Spawn(101, 100, typeB)

	res := s.Step()
	assert.Equal(t, 2, res.Spawned)
	assert.Equal(t, 4, s.Len())

	var spawned int
	for _, e := range s.Entities() {
		if e.Type == typeC {
			spawned++
			assert.Equal(t, 0, e.Cooldown)
		}
	}
	assert.Equal(t, 2, spawned)
}

func TestSimulationRuleHistory(t *testing.T) {
	s := newTestSim(t, 2)
	assert.False(t, s.Undo())

	require.NoError(t, s.SetRule(0, 1, sim.Rule{CloseForce: 0.5, Threshold: 30}))
	s.RandomizeForces()
	randomized := s.Rules()

	assert.True(t, s.Undo())
	assert.Equal(t, 0.5, s.Rule(0, 1).CloseForce)
	assert.True(t, s.Undo())
	assert.Equal(t, sim.NeutralRule(), s.Rule(0, 1))
	assert.False(t, s.Undo())

	assert.True(t, s.Redo())
	assert.True(t, s.Redo())
	assert.Equal(t, randomized, s.Rules())
	assert.False(t, s.Redo())

	s.Undo()
	s.ClearRules()
	assert.False(t, s.Redo(), "a new action drops the redo tail")
	assert.Equal(t, 3, s.History().Len())
}

func TestSimulationRuleReturnsCopy(t *testing.T) {
	s := newTestSim(t, 2)
	require.NoError(t, s.SetRule(0, 1, sim.Rule{Threshold: 30, Spawns: []sim.SpawnSpec{{Type: 0, Count: 1}}}))
	before := s.History().Len()

	r := s.Rule(0, 1)
	r.Spawns[0].Count = 99

	assert.Equal(t, 1, s.Rule(0, 1).Spawns[0].Count)
	assert.Equal(t, 1, s.Rules().Get(0, 1).Spawns[0].Count)
	assert.Equal(t, before, s.History().Len())
}

func TestSimulationRulesRevision(t *testing.T) {
	s := newTestSim(t, 2)
	rev := s.RulesRevision()

	s.RandomizeForces()
	assert.NotEqual(t, rev, s.RulesRevision())

	rev = s.RulesRevision()
	require.True(t, s.Undo())
	assert.NotEqual(t, rev, s.RulesRevision())

	rev = s.RulesRevision()
	assert.False(t, s.Undo())
	assert.Equal(t, rev, s.RulesRevision(), "a failed undo leaves the table alone")

	require.Error(t, s.ImportRules([]byte("not: rules")))
	assert.Equal(t, rev, s.RulesRevision())
}

func TestSimulationImportIsAtomic(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig(100, 100, 2, 1), colorTypes)
	require.NoError(t, err)
	require.NoError(t, s.SetRule(0, 0, sim.Rule{CloseForce: 0.25, Threshold: 10}))
	before := s.Rules()
	historyLen := s.History().Len()

	err = s.ImportRules([]byte(`{red: {red: {closeForce: 1}}}`))
	assert.ErrorIs(t, err, sim.ErrInvalidRules)
	assert.Equal(t, before, s.Rules())
	assert.Equal(t, historyLen, s.History().Len())

	require.NoError(t, s.ImportRules([]byte(validRulesYAML)))
	assert.Equal(t, -0.5, s.Rule(0, 1).CloseForce)
	assert.True(t, s.Undo())
	assert.Equal(t, before, s.Rules())

	data, err := s.ExportRules()
	require.NoError(t, err)
	assert.Contains(t, string(data), "red:")
}

func TestSimulationDiagnostics(t *testing.T) {
	s := newTestSim(t, 2)
	rng := rand.New(rand.NewPCG(4, 4))
	for i := 0; i < 50; i++ {
		s.Spawn(rng.Float64()*200, rng.Float64()*200, sim.TypeID(i%2))
	}
	s.RandomizeForces()
	s.Step()
	s.Step()

	d := s.Diagnostics()
	assert.Equal(t, int64(2), d.Frame)
	assert.Equal(t, 50, d.Entities)
	assert.Equal(t, int64(100), d.NeighborQueries)
	assert.Greater(t, d.ForceEvaluations, int64(0))
	assert.GreaterOrEqual(t, d.QuadDepth, 2)
	assert.Equal(t, 50, d.Pool.Active)
	assert.InDelta(t, 50.0/float64(d.Pool.Capacity), d.PoolEfficiency, 1e-12)
	assert.Equal(t, int64(2), d.LastFrame.Frame)
}

func TestSimulationDumpIndex(t *testing.T) {
	s := newTestSim(t, 1)
	for i := 0; i < 20; i++ {
		s.Spawn(float64(i*10), float64(i*10), 0)
	}

	nodes := s.DumpIndex()
	require.NotEmpty(t, nodes)
	total := 0
	for _, n := range nodes {
		total += n.EntityCount
	}
	assert.Equal(t, 20, total)
	assert.Equal(t, 200.0, nodes[0].Width)
}

func TestSimulationBruteForceToggle(t *testing.T) {
	s := newTestSim(t, 1)
	s.Spawn(50, 50, 0)
	s.Spawn(60, 60, 0)

	s.SetSpatialIndex(false)
	s.Step()
	assert.Equal(t, int64(0), s.Diagnostics().NeighborQueries)
	assert.False(t, s.Config().Resolver.UseSpatialIndex)
}

func TestTypeTableColor(t *testing.T) {
	types := sim.TypeTable{Names: []string{"a", "b"}, Colors: []string{"#ff8000", "#0000FF"}}
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, types.Color(0))
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, types.Color(1))

	plain := sim.NewTypeTable(3)
	assert.Equal(t, uint8(0xff), plain.Color(0).R, "first hue is red")
	assert.NotEqual(t, plain.Color(0), plain.Color(1))
	assert.NotEqual(t, plain.Color(1), plain.Color(2))
}
