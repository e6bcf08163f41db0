package sim

import (
	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

const (
	poolBlockSize = 256

	// DefaultPoolBuffer is the headroom added on top of the seeded population.
	DefaultPoolBuffer = 500
)

// PoolCapacity sizes a pool for the seeded population plus spawn headroom.
func PoolCapacity(types, perType, buffer int) int {
	return types*perType + buffer
}

// PoolStats is a diagnostics snapshot of a Pool.
type PoolStats struct {
	Capacity   int
	Active     int
	Free       int
	PeakActive int
	Created    int64
	Recycled   int64
	Exhausted  int64
	Discarded  int64
}

// Efficiency is the share of the pool's capacity currently in use.
func (s PoolStats) Efficiency() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Active) / float64(s.Capacity)
}

// Pool is a slot map of preallocated entities. Entities live in fixed-size
// blocks so pointers stay valid when the pool grows past its capacity.
type Pool struct {
	blocks      []*[poolBlockSize]Entity
	generations []uint32
	freeSlots   []uint32
	nextSlot    uint32
	nextID      EntityID
	byID        *intmap.Map[EntityID, uint32]

	capacity   int
	active     int
	peakActive int
	created    int64
	recycled   int64
	exhausted  int64
	discarded  int64

	logger *zap.Logger
}

// NewPool preallocates capacity entities and puts them all on the free list.
func NewPool(capacity int, logger *zap.Logger) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		generations: make([]uint32, 0, capacity),
		freeSlots:   make([]uint32, 0, capacity),
		byID:        intmap.New[EntityID, uint32](capacity),
		capacity:    capacity,
		logger:      logger,
	}
	for i := 0; i < capacity; i++ {
		p.allocSlot()
	}
	// Lowest slots are handed out first.
	for i := capacity - 1; i >= 0; i-- {
		p.freeSlots = append(p.freeSlots, uint32(i))
	}
	return p
}

// allocSlot creates a brand new entity in the next slot.
func (p *Pool) allocSlot() uint32 {
	slot := p.nextSlot
	p.nextSlot++

	blockIdx := int(slot) / poolBlockSize
	if blockIdx >= len(p.blocks) {
		p.blocks = append(p.blocks, new([poolBlockSize]Entity))
	}
	p.generations = append(p.generations, 0)

	p.nextID++
	e := p.entityAt(slot)
	e.ID = p.nextID
	e.handle = NewHandle(slot, 0)
	p.byID.Put(e.ID, slot)
	p.created++
	return slot
}

func (p *Pool) entityAt(slot uint32) *Entity {
	return &p.blocks[slot/poolBlockSize][slot%poolBlockSize]
}

// Acquire takes an entity off the free list and initialises it. When the
// free list is empty a new entity is allocated past capacity and the
// exhaustion is logged.
func (p *Pool) Acquire(x, y float64, typ TypeID, physics Physics) *Entity {
	var slot uint32
	if n := len(p.freeSlots); n > 0 {
		slot = p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
	} else {
		slot = p.allocSlot()
		p.exhausted++
		p.logger.Warn("entity pool exhausted, allocating past capacity",
			zap.Int("capacity", p.capacity),
			zap.Int("active", p.active),
			zap.Uint32("slot", slot),
		)
	}

	e := p.entityAt(slot)
	e.reset()
	e.X, e.Y = x, y
	e.Type = typ
	e.ApplyPhysics(physics)
	e.handle = NewHandle(slot, p.generations[slot])
	e.active = true

	p.active++
	if p.active > p.peakActive {
		p.peakActive = p.active
	}
	return e
}

// Release returns an entity to the pool. If pushing it would leave more
// active and free slots than the pool's capacity, the slot is retired. This
// bounds the free list by capacity minus active rather than by capacity alone,
// so active+free never exceeds capacity once exhaustion slots drain. Entities
// that are not active members of this pool are ignored.
func (p *Pool) Release(e *Entity) bool {
	if e == nil || !e.active || p.Resolve(e.handle) != e {
		return false
	}
	slot := e.handle.Slot()

	e.reset()
	e.active = false
	p.generations[slot]++
	e.handle = NewHandle(slot, p.generations[slot])
	p.active--

	// Slots allocated past capacity are retired rather than kept.
	if p.active+len(p.freeSlots) >= p.capacity {
		p.discarded++
		p.byID.Del(e.ID)
		return true
	}
	p.freeSlots = append(p.freeSlots, slot)
	p.recycled++
	return true
}

// Resolve returns the active entity a handle refers to, or nil when the
// handle is stale.
func (p *Pool) Resolve(h Handle) *Entity {
	slot := h.Slot()
	if slot >= p.nextSlot || p.generations[slot] != h.Generation() {
		return nil
	}
	e := p.entityAt(slot)
	if !e.active {
		return nil
	}
	return e
}

// ByID returns the active entity with the given identity, or nil.
func (p *Pool) ByID(id EntityID) *Entity {
	slot, ok := p.byID.Get(id)
	if !ok {
		return nil
	}
	e := p.entityAt(slot)
	if !e.active {
		return nil
	}
	return e
}

// Capacity returns the preallocated size of the pool.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Active returns the number of acquired entities.
func (p *Pool) Active() int {
	return p.active
}

// Free returns the length of the free list.
func (p *Pool) Free() int {
	return len(p.freeSlots)
}

// Stats returns a diagnostics snapshot.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Capacity:   p.capacity,
		Active:     p.active,
		Free:       len(p.freeSlots),
		PeakActive: p.peakActive,
		Created:    p.created,
		Recycled:   p.recycled,
		Exhausted:  p.exhausted,
		Discarded:  p.discarded,
	}
}
