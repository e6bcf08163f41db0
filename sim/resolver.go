package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// collisionRepulsion is the peak extra repulsion applied to overlapping pairs.
const collisionRepulsion = -3.0

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// ResolverConfig tunes the per-frame force pass.
type ResolverConfig struct {
	Width, Height float64

	MaxDistance            float64
	ForceMultiplier        float64
	CollisionDistanceRatio float64

	EdgeMargin float64
	EdgeForce  float64

	CollisionsEnabled bool
	CollisionBudget   int
	CooldownFrames    int

	SpawnJitter         float64
	SpawnVelocitySpread float64

	UseSpatialIndex bool
	QuadCapacity    int

	ClampAcceleration bool
	ClampVelocity     bool
}

// DefaultResolverConfig returns the tuning used when nothing is configured.
func DefaultResolverConfig(width, height float64) ResolverConfig {
	return ResolverConfig{
		Width:                  width,
		Height:                 height,
		MaxDistance:            80,
		ForceMultiplier:        1,
		CollisionDistanceRatio: 1,
		EdgeMargin:             20,
		EdgeForce:              0.5,
		CollisionsEnabled:      true,
		CollisionBudget:        20,
		CooldownFrames:         60,
		SpawnJitter:            5,
		SpawnVelocitySpread:    0.5,
		UseSpatialIndex:        true,
		QuadCapacity:           DefaultQuadCapacity,
		ClampAcceleration:      true,
		ClampVelocity:          true,
	}
}

// Validate checks the configuration describes a usable world.
func (c ResolverConfig) Validate() error {
	switch {
	case !(c.Width > 0) || !(c.Height > 0):
		return fmt.Errorf("%w: world size %vx%v", ErrInvalidConfig, c.Width, c.Height)
	case !(c.MaxDistance > 0):
		return fmt.Errorf("%w: max distance %v", ErrInvalidConfig, c.MaxDistance)
	case c.CollisionDistanceRatio < 0:
		return fmt.Errorf("%w: collision distance ratio %v", ErrInvalidConfig, c.CollisionDistanceRatio)
	case c.EdgeMargin < 0:
		return fmt.Errorf("%w: edge margin %v", ErrInvalidConfig, c.EdgeMargin)
	case c.CollisionBudget < 0:
		return fmt.Errorf("%w: collision budget %d", ErrInvalidConfig, c.CollisionBudget)
	case c.CooldownFrames < 0:
		return fmt.Errorf("%w: cooldown %d", ErrInvalidConfig, c.CooldownFrames)
	case c.SpawnJitter < 0 || c.SpawnVelocitySpread < 0:
		return fmt.Errorf("%w: spawn jitter %v spread %v", ErrInvalidConfig, c.SpawnJitter, c.SpawnVelocitySpread)
	case c.UseSpatialIndex && c.QuadCapacity <= 0:
		return fmt.Errorf("%w: quadtree capacity %d", ErrInvalidConfig, c.QuadCapacity)
	}
	return nil
}

// SpawnRequest describes a particle a collision asks the caller to create.
type SpawnRequest struct {
	X, Y   float64
	VX, VY float64
	Type   TypeID
}

// StepResult is what a frame asks the caller to apply. Its slices are owned
// by the Resolver and are only valid until the next Step.
type StepResult struct {
	Removals   []*Entity
	Spawns     []SpawnRequest
	Collisions int
}

// ResolverStats are cumulative counters plus the shape of the last tree.
type ResolverStats struct {
	Frames           int64
	ForceEvaluations int64
	NeighborQueries  int64
	Collisions       int64
	BudgetSkips      int64
	OutOfBounds      int64

	QuadDepth     int
	QuadNodes     int
	QuadOverflows int
}

// Resolver runs the force, collision and integration pass. It reads and
// updates entity state but never adds or removes entities itself.
type Resolver struct {
	cfg  ResolverConfig
	tree *Quadtree
	rng  *rand.Rand

	neighbors []*Entity
	removals  []*Entity
	spawns    []SpawnRequest
	budget    int
	frameHits int

	stats ResolverStats
}

// NewResolver creates a resolver. The config must already be valid.
func NewResolver(cfg ResolverConfig, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Resolver{
		cfg:  cfg,
		tree: NewQuadtree(Rect{W: cfg.Width, H: cfg.Height}, cfg.QuadCapacity),
		rng:  rng,
	}
}

// Config returns the active configuration.
func (r *Resolver) Config() ResolverConfig {
	return r.cfg
}

// SetSpatialIndex switches between the quadtree and the brute force pass.
func (r *Resolver) SetSpatialIndex(on bool) {
	r.cfg.UseSpatialIndex = on
}

// SetCollisions turns collision handling on or off.
func (r *Resolver) SetCollisions(on bool) {
	r.cfg.CollisionsEnabled = on
}

// Tree returns the quadtree built by the last spatial pass.
func (r *Resolver) Tree() *Quadtree {
	return r.tree
}

// Stats returns the resolver's diagnostics counters.
func (r *Resolver) Stats() ResolverStats {
	return r.stats
}

// Step advances every entity by one frame.
func (r *Resolver) Step(entities []*Entity, rules *RuleTable) StepResult {
	r.removals = r.removals[:0]
	r.spawns = r.spawns[:0]
	r.budget = r.cfg.CollisionBudget
	r.frameHits = 0

	for _, e := range entities {
		e.ResetForce()
	}

	if r.cfg.UseSpatialIndex {
		r.spatialPass(entities, rules)
	} else {
		r.brutePass(entities, rules)
	}

	r.applyEdgeRepulsion(entities)

	for _, e := range entities {
		r.integrate(e)
	}

	for _, e := range entities {
		if e.Cooldown > 0 {
			e.Cooldown--
		}
	}

	r.stats.Frames++
	r.stats.Collisions += int64(r.frameHits)
	return StepResult{
		Removals:   r.removals,
		Spawns:     r.spawns,
		Collisions: r.frameHits,
	}
}

func (r *Resolver) brutePass(entities []*Entity, rules *RuleTable) {
	for i, src := range entities {
		for j, tgt := range entities {
			if i == j {
				continue
			}
			r.interact(src, tgt, rules)
		}
	}
}

func (r *Resolver) spatialPass(entities []*Entity, rules *RuleTable) {
	r.tree.Reset(Rect{W: r.cfg.Width, H: r.cfg.Height})
	for _, e := range entities {
		if !r.tree.Insert(e) {
			r.stats.OutOfBounds++
		}
	}
	r.stats.QuadDepth = r.tree.Depth()
	r.stats.QuadNodes = r.tree.NodeCount()
	r.stats.QuadOverflows = r.tree.Overflows()

	for _, src := range entities {
		r.neighbors = r.tree.QueryCircle(src.X, src.Y, r.cfg.MaxDistance, r.neighbors[:0])
		r.stats.NeighborQueries++
		for _, tgt := range r.neighbors {
			if tgt == src {
				continue
			}
			r.interact(src, tgt, rules)
		}
	}
	clear(r.neighbors)
}

// interact accumulates the force tgt exerts on src and handles a collision
// when the pair overlaps.
func (r *Resolver) interact(src, tgt *Entity, rules *RuleTable) {
	rule := rules.rule(src.Type, tgt.Type)
	var fx, fy float64
	var overlapping bool
	if rule != nil {
		fx, fy, overlapping = r.PairForce(src, tgt, *rule)
	} else {
		fx, fy, overlapping = r.PairForce(src, tgt, NeutralRule())
	}
	r.stats.ForceEvaluations++

	src.FX += fx
	src.FY += fy

	if overlapping && r.cfg.CollisionsEnabled && rule != nil && rule.Collides() {
		r.collide(src, tgt, rule)
	}
}

// PairForce returns the force tgt exerts on src under rule, and whether the
// two are close enough to collide. Coincident pairs and pairs at or beyond
// MaxDistance get no force.
func (r *Resolver) PairForce(src, tgt *Entity, rule Rule) (fx, fy float64, overlapping bool) {
	dx := tgt.X - src.X
	dy := tgt.Y - src.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist == 0 || dist >= r.cfg.MaxDistance {
		return 0, 0, false
	}

	falloff := 1 - dist/r.cfg.MaxDistance
	base := rule.FarForce
	if dist < rule.Threshold {
		base = rule.CloseForce
	}

	var collisionForce float64
	collisionDist := (src.Size + tgt.Size) * r.cfg.CollisionDistanceRatio
	if dist < collisionDist {
		collisionForce = collisionRepulsion * (1 - dist/collisionDist)
		overlapping = true
	}

	force := (base*falloff + collisionForce) * r.cfg.ForceMultiplier
	return force * dx / dist, force * dy / dist, overlapping
}

// collide applies a rule's collision effects if both entities are eligible
// and the frame's budget allows it. Pairs past the budget are dropped.
func (r *Resolver) collide(a, b *Entity, rule *Rule) {
	if !a.CanCollide() || !b.CanCollide() {
		return
	}
	if r.budget <= 0 {
		r.stats.BudgetSkips++
		return
	}
	r.budget--
	r.frameHits++

	a.Cooldown = r.cfg.CooldownFrames
	b.Cooldown = r.cfg.CooldownFrames

	if rule.DestroyOnCollision {
		r.removals = append(r.removals, a, b)
	}
	if len(rule.Spawns) == 0 {
		return
	}

	midX, midY := (a.X+b.X)/2, (a.Y+b.Y)/2
	avgVX, avgVY := (a.VX+b.VX)/2, (a.VY+b.VY)/2
	avgSpeed := math.Hypot(avgVX, avgVY)

	for _, spec := range rule.Spawns {
		for range spec.Count {
			angle := r.rng.Float64() * 2 * math.Pi
			radius := math.Sqrt(r.rng.Float64()) * r.cfg.SpawnJitter

			kickAngle := r.rng.Float64() * 2 * math.Pi
			kick := r.rng.Float64() * r.cfg.SpawnVelocitySpread * avgSpeed

			r.spawns = append(r.spawns, SpawnRequest{
				X:    clamp(midX+math.Cos(angle)*radius, 0, r.cfg.Width),
				Y:    clamp(midY+math.Sin(angle)*radius, 0, r.cfg.Height),
				VX:   avgVX + math.Cos(kickAngle)*kick,
				VY:   avgVY + math.Sin(kickAngle)*kick,
				Type: spec.Type,
			})
		}
	}
}

// applyEdgeRepulsion pushes entities inside the margin back toward the
// interior, proportionally to how deep they are.
func (r *Resolver) applyEdgeRepulsion(entities []*Entity) {
	m := r.cfg.EdgeMargin
	if m <= 0 {
		return
	}
	w, h := r.cfg.Width, r.cfg.Height
	k := r.cfg.EdgeForce
	for _, e := range entities {
		if e.X < m {
			e.FX += k * (m - e.X) / m
		} else if e.X > w-m {
			e.FX -= k * (e.X - (w - m)) / m
		}
		if e.Y < m {
			e.FY += k * (m - e.Y) / m
		} else if e.Y > h-m {
			e.FY -= k * (e.Y - (h - m)) / m
		}
	}
}

func (r *Resolver) integrate(e *Entity) {
	if r.cfg.ClampAcceleration && e.MaxAcceleration > 0 {
		if mag := math.Hypot(e.FX, e.FY); mag > e.MaxAcceleration {
			s := e.MaxAcceleration / mag
			e.FX *= s
			e.FY *= s
		}
	}

	e.VX += e.FX
	e.VY += e.FY

	if r.cfg.ClampVelocity && e.MaxVelocity > 0 {
		if speed := math.Hypot(e.VX, e.VY); speed > e.MaxVelocity {
			s := e.MaxVelocity / speed
			e.VX *= s
			e.VY *= s
		}
	}

	keep := 1 - e.Friction
	e.VX *= keep
	e.VY *= keep

	e.X += e.VX
	e.Y += e.VY

	// Walls: clamp back inside and reflect with energy loss.
	if e.X < 0 {
		e.X = 0
		e.VX = -e.VX * e.BounceDecay
	} else if e.X > r.cfg.Width {
		e.X = r.cfg.Width
		e.VX = -e.VX * e.BounceDecay
	}
	if e.Y < 0 {
		e.Y = 0
		e.VY = -e.VY * e.BounceDecay
	} else if e.Y > r.cfg.Height {
		e.Y = r.cfg.Height
		e.VY = -e.VY * e.BounceDecay
	}
}
