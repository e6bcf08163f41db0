package sim_test

import (
	"math/rand/v2"
	"testing"

	"github.com/plus3/particlelife/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPoolCapacity(t *testing.T) {
	assert.Equal(t, 4*100+500, sim.PoolCapacity(4, 100, sim.DefaultPoolBuffer))
	assert.Equal(t, 0, sim.PoolCapacity(0, 0, 0))
}

func TestPoolPreallocates(t *testing.T) {
	pool := sim.NewPool(64, nil)

	stats := pool.Stats()
	assert.Equal(t, 64, stats.Capacity)
	assert.Equal(t, 0, stats.Active)
	assert.Equal(t, 64, stats.Free)
	assert.Equal(t, int64(64), stats.Created)
	assert.Equal(t, 0.0, stats.Efficiency())
}

func TestPoolAcquireInitialisesEntity(t *testing.T) {
	pool := sim.NewPool(4, nil)
	physics := sim.DefaultPhysics()

	e := pool.Acquire(10, 20, 3, physics)
	require.NotNil(t, e)

	assert.True(t, e.Active())
	assert.NotZero(t, e.ID)
	assert.Equal(t, 10.0, e.X)
	assert.Equal(t, 20.0, e.Y)
	assert.Equal(t, sim.TypeID(3), e.Type)
	assert.Equal(t, physics.Size, e.Size)
	assert.Equal(t, physics.MaxVelocity, e.MaxVelocity)
	assert.Equal(t, 0, e.Cooldown)
	assert.Same(t, e, pool.Resolve(e.Handle()))
	assert.Same(t, e, pool.ByID(e.ID))
}

func TestPoolAcquireReleaseRestoresFreeList(t *testing.T) {
	pool := sim.NewPool(16, nil)
	pool.Acquire(0, 0, 0, sim.DefaultPhysics())

	before := pool.Free()
	e := pool.Acquire(1, 2, 0, sim.DefaultPhysics())
	assert.Equal(t, before-1, pool.Free())

	assert.True(t, pool.Release(e))
	assert.Equal(t, before, pool.Free())
}

func TestPoolRecycleKeepsIdentity(t *testing.T) {
	pool := sim.NewPool(4, nil)

	e := pool.Acquire(1, 1, 1, sim.DefaultPhysics())
	id := e.ID
	oldHandle := e.Handle()
	e.VX, e.VY, e.Cooldown = 5, 5, 30

	require.True(t, pool.Release(e))
	assert.False(t, e.Active())
	assert.Nil(t, pool.Resolve(oldHandle), "stale handle must not resolve")
	assert.Nil(t, pool.ByID(id))

	again := pool.Acquire(7, 8, 2, sim.DefaultPhysics())
	assert.Same(t, e, again)
	assert.Equal(t, id, again.ID)
	assert.NotEqual(t, oldHandle, again.Handle())
	assert.Equal(t, oldHandle.Slot(), again.Handle().Slot())
	assert.Equal(t, 0.0, again.VX)
	assert.Equal(t, 0, again.Cooldown)
	assert.Equal(t, sim.TypeID(2), again.Type)
	assert.Equal(t, int64(1), pool.Stats().Recycled)
}

func TestPoolReleaseIgnoresForeignAndStale(t *testing.T) {
	pool := sim.NewPool(4, nil)
	other := sim.NewPool(4, nil)

	e := pool.Acquire(0, 0, 0, sim.DefaultPhysics())
	assert.False(t, other.Release(e))
	assert.False(t, pool.Release(nil))
	assert.False(t, pool.Release(&sim.Entity{}))

	assert.True(t, pool.Release(e))
	assert.False(t, pool.Release(e), "double release is a no-op")
	assert.Equal(t, 4, pool.Free())
}

func TestPoolInvariantUnderRandomOperations(t *testing.T) {
	const capacity = 32
	pool := sim.NewPool(capacity, nil)
	rng := rand.New(rand.NewPCG(7, 11))

	var held []*sim.Entity
	for i := 0; i < 5000; i++ {
		if len(held) > 0 && (pool.Free() == 0 || rng.IntN(2) == 0) {
			k := rng.IntN(len(held))
			require.True(t, pool.Release(held[k]))
			held[k] = held[len(held)-1]
			held = held[:len(held)-1]
		} else {
			held = append(held, pool.Acquire(rng.Float64(), rng.Float64(), 0, sim.DefaultPhysics()))
		}

		assert.GreaterOrEqual(t, pool.Active(), 0)
		assert.LessOrEqual(t, pool.Active()+pool.Free(), capacity)
		assert.Equal(t, len(held), pool.Active())
	}

	stats := pool.Stats()
	assert.Equal(t, int64(0), stats.Exhausted)
	assert.LessOrEqual(t, stats.PeakActive, capacity)
}

func TestPoolExhaustionFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	pool := sim.NewPool(2, zap.New(core))

	a := pool.Acquire(0, 0, 0, sim.DefaultPhysics())
	b := pool.Acquire(0, 0, 0, sim.DefaultPhysics())
	c := pool.Acquire(0, 0, 0, sim.DefaultPhysics())
	require.NotNil(t, c)

	assert.Equal(t, 3, pool.Active())
	assert.Equal(t, 0, pool.Free())
	assert.Equal(t, 1, logs.FilterMessage("entity pool exhausted, allocating past capacity").Len())

	stats := pool.Stats()
	assert.Equal(t, int64(1), stats.Exhausted)
	assert.Equal(t, int64(3), stats.Created)
	assert.Equal(t, 3, stats.PeakActive)
	assert.Greater(t, stats.Efficiency(), 1.0)

	// Releasing while over capacity retires the slot.
	assert.True(t, pool.Release(c))
	assert.Equal(t, 0, pool.Free())
	assert.Equal(t, int64(1), pool.Stats().Discarded)
	assert.Nil(t, pool.ByID(c.ID))

	assert.True(t, pool.Release(a))
	assert.True(t, pool.Release(b))
	assert.Equal(t, 2, pool.Free())
	assert.Equal(t, 0, pool.Active())
}

func TestPoolAcquireReleaseAtExhaustion(t *testing.T) {
	pool := sim.NewPool(1, nil)
	pool.Acquire(0, 0, 0, sim.DefaultPhysics())

	before := pool.Free()
	e := pool.Acquire(0, 0, 0, sim.DefaultPhysics())
	pool.Release(e)
	assert.Equal(t, before, pool.Free())
}

func TestPoolGrowsPastBlockSize(t *testing.T) {
	pool := sim.NewPool(0, nil)

	first := pool.Acquire(1, 1, 0, sim.DefaultPhysics())
	for i := 0; i < 1000; i++ {
		pool.Acquire(float64(i), 0, 0, sim.DefaultPhysics())
	}

	// Earlier pointers stay valid as the pool grows.
	assert.Equal(t, 1.0, first.X)
	assert.Same(t, first, pool.ByID(first.ID))
	assert.Equal(t, 1001, pool.Active())
}
