package sim

import (
	"fmt"
	"math"
)

// EntityID is the stable identity of a pooled entity. It is assigned when the
// pool first creates the slot and survives every recycle of that slot.
type EntityID uint64

// Handle encodes a slot index (lower 32 bits) and the slot's generation
// (upper 32 bits). The generation is bumped on release, so a handle taken
// before a release no longer resolves afterwards.
type Handle uint64

// NewHandle creates a Handle from a slot index and generation
func NewHandle(slot uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(slot))
}

// Slot extracts the slot index from the handle
func (h Handle) Slot() uint32 {
	return uint32(h & 0xFFFFFFFF)
}

// Generation extracts the slot generation from the handle
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// Physics holds the per-entity physics constants. A Simulation keeps one set
// of global defaults and copies it into every entity it spawns.
type Physics struct {
	Size            float64
	Friction        float64
	BounceDecay     float64
	MaxAcceleration float64
	MaxVelocity     float64
}

// DefaultPhysics returns the physics constants used when none are configured.
func DefaultPhysics() Physics {
	return Physics{
		Size:            3,
		Friction:        0.05,
		BounceDecay:     0.6,
		MaxAcceleration: 1,
		MaxVelocity:     4,
	}
}

// Validate rejects constants that would let integration gain energy.
func (p Physics) Validate() error {
	switch {
	case p.Size < 0:
		return fmt.Errorf("%w: size %v", ErrInvalidConfig, p.Size)
	case p.Friction < 0 || p.Friction > 1:
		return fmt.Errorf("%w: friction %v outside [0, 1]", ErrInvalidConfig, p.Friction)
	case p.BounceDecay < 0 || p.BounceDecay > 1:
		return fmt.Errorf("%w: bounce decay %v outside [0, 1]", ErrInvalidConfig, p.BounceDecay)
	case p.MaxAcceleration < 0 || p.MaxVelocity < 0:
		return fmt.Errorf("%w: limits %v/%v", ErrInvalidConfig, p.MaxAcceleration, p.MaxVelocity)
	}
	return nil
}

// Entity is a single particle: a point mass with a type tag.
type Entity struct {
	ID     EntityID
	X, Y   float64
	VX, VY float64
	FX, FY float64
	Type   TypeID

	Size        float64
	Friction    float64
	BounceDecay float64
	// Zero limits leave the matching clamp off for this entity.
	MaxAcceleration float64
	MaxVelocity     float64

	// Cooldown counts frames until the entity may collide again.
	Cooldown int

	handle Handle
	active bool
}

// Handle returns the pool handle the entity currently occupies.
func (e *Entity) Handle() Handle {
	return e.handle
}

// Active reports whether the entity is currently acquired from its pool.
func (e *Entity) Active() bool {
	return e.active
}

// ApplyPhysics copies the given constants onto the entity.
func (e *Entity) ApplyPhysics(p Physics) {
	e.Size = p.Size
	e.Friction = p.Friction
	e.BounceDecay = p.BounceDecay
	e.MaxAcceleration = p.MaxAcceleration
	e.MaxVelocity = p.MaxVelocity
}

// ResetForce zeroes the force accumulator.
func (e *Entity) ResetForce() {
	e.FX = 0
	e.FY = 0
}

// Speed returns the magnitude of the velocity.
func (e *Entity) Speed() float64 {
	return math.Hypot(e.VX, e.VY)
}

// CanCollide reports whether the entity is out of its collision cooldown.
func (e *Entity) CanCollide() bool {
	return e.Cooldown == 0
}

// reset puts all mutable state back to neutral. ID and handle are kept.
func (e *Entity) reset() {
	e.X, e.Y = 0, 0
	e.VX, e.VY = 0, 0
	e.FX, e.FY = 0, 0
	e.Type = 0
	e.Cooldown = 0
	e.ApplyPhysics(Physics{})
}

// EntityView is the read-only projection handed to renderers.
type EntityView struct {
	X, Y float64
	Type TypeID
	Size float64
}

// View returns the renderer projection of the entity.
func (e *Entity) View() EntityView {
	return EntityView{X: e.X, Y: e.Y, Type: e.Type, Size: e.Size}
}
