package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Config gathers everything a Simulation needs besides its type table.
type Config struct {
	Resolver     ResolverConfig
	Physics      Physics
	PoolCapacity int
	HistorySize  int
}

// DefaultConfig sizes a world of width×height for types×perType particles.
func DefaultConfig(width, height float64, types, perType int) Config {
	return Config{
		Resolver:     DefaultResolverConfig(width, height),
		Physics:      DefaultPhysics(),
		PoolCapacity: PoolCapacity(types, perType, DefaultPoolBuffer),
		HistorySize:  DefaultHistorySize,
	}
}

// Validate checks every part of the configuration.
func (c Config) Validate() error {
	if err := c.Resolver.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.Resolver.ClampAcceleration && c.Physics.MaxAcceleration <= 0 {
		return fmt.Errorf("%w: acceleration clamp needs a positive limit", ErrInvalidConfig)
	}
	if c.Resolver.ClampVelocity && c.Physics.MaxVelocity <= 0 {
		return fmt.Errorf("%w: velocity clamp needs a positive limit", ErrInvalidConfig)
	}
	if c.PoolCapacity < 0 {
		return fmt.Errorf("%w: pool capacity %d", ErrInvalidConfig, c.PoolCapacity)
	}
	return nil
}

// SpawnFunc creates a particle of typ at (x, y).
type SpawnFunc func(x, y float64, typ TypeID) *Entity

// Layout places an initial population through the spawn factory it is given.
type Layout func(spawn SpawnFunc)

// FrameResult summarises one Step.
type FrameResult struct {
	Frame      int64
	Collisions int
	Removed    int
	Spawned    int
}

// Option customises a Simulation at construction.
type Option func(*Simulation)

// WithLogger sets the logger used by the simulation and its pool.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithRand sets the random source used for rule randomisation and spawning.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		s.rng = rng
	}
}

// Simulation owns the entity collection, pool, rules and resolver. It is not
// safe for concurrent use; readers must only look at it between Steps.
type Simulation struct {
	types  TypeTable
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand

	pool     *Pool
	rules    *RuleTable
	history  *History
	resolver *Resolver
	commands *Commands

	entities []*Entity
	index    *intmap.Map[EntityID, int]
	frame    int64
	last     FrameResult

	// bumped on every rule table change, including undo and redo
	revision uint64
}

// New builds a simulation with neutral rules and no particles.
func New(cfg Config, types TypeTable, opts ...Option) (*Simulation, error) {
	if err := types.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		types:    types,
		cfg:      cfg,
		commands: newCommands(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s.pool = NewPool(cfg.PoolCapacity, s.logger.Named("pool"))
	s.rules = NewRuleTable(types.Len())
	s.history = NewHistory(cfg.HistorySize)
	s.history.Push(s.rules.Snapshot())
	s.resolver = NewResolver(cfg.Resolver, s.rng)
	s.entities = make([]*Entity, 0, cfg.PoolCapacity)
	s.index = intmap.New[EntityID, int](cfg.PoolCapacity)
	return s, nil
}

// Types returns the simulation's type table.
func (s *Simulation) Types() TypeTable {
	return s.types
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config {
	return s.cfg
}

// Pool exposes the entity pool for diagnostics.
func (s *Simulation) Pool() *Pool {
	return s.pool
}

// Spawn acquires a particle at (x, y), clamped into the world. It returns nil
// for a type outside the table.
func (s *Simulation) Spawn(x, y float64, typ TypeID) *Entity {
	if int(typ) >= s.types.Len() {
		s.logger.Debug("spawn of unknown type ignored", zap.Uint8("type", uint8(typ)))
		return nil
	}
	x = clamp(x, 0, s.cfg.Resolver.Width)
	y = clamp(y, 0, s.cfg.Resolver.Height)

	e := s.pool.Acquire(x, y, typ, s.cfg.Physics)
	s.index.Put(e.ID, len(s.entities))
	s.entities = append(s.entities, e)
	return e
}

// Remove takes a particle out of the simulation and returns it to the pool.
// It reports false if the particle was not part of the simulation.
func (s *Simulation) Remove(e *Entity) bool {
	if e == nil || !e.Active() {
		return false
	}
	i, ok := s.index.Get(e.ID)
	if !ok || s.entities[i] != e {
		return false
	}

	last := len(s.entities) - 1
	if i != last {
		moved := s.entities[last]
		s.entities[i] = moved
		s.index.Put(moved.ID, i)
	}
	s.entities[last] = nil
	s.entities = s.entities[:last]
	s.index.Del(e.ID)

	s.pool.Release(e)
	return true
}

// Populate seeds particles through a layout generator.
func (s *Simulation) Populate(layout Layout) {
	layout(s.Spawn)
}

// Reset removes every particle. Rules and history are kept.
func (s *Simulation) Reset() {
	for len(s.entities) > 0 {
		s.Remove(s.entities[len(s.entities)-1])
	}
}

// Step runs one frame and applies the removals and spawns it produced.
func (s *Simulation) Step() FrameResult {
	res := s.resolver.Step(s.entities, s.rules)
	for _, e := range res.Removals {
		s.commands.Remove(e)
	}
	for _, req := range res.Spawns {
		s.commands.Spawn(req)
	}
	removed, spawned := s.commands.Flush(s)

	s.frame++
	s.last = FrameResult{
		Frame:      s.frame,
		Collisions: res.Collisions,
		Removed:    removed,
		Spawned:    spawned,
	}
	return s.last
}

// Entities returns the live particles. The slice is owned by the simulation
// and changes on the next Step.
func (s *Simulation) Entities() []*Entity {
	return s.entities
}

// Len returns the number of live particles.
func (s *Simulation) Len() int {
	return len(s.entities)
}

// Entity looks a live particle up by identity.
func (s *Simulation) Entity(id EntityID) *Entity {
	i, ok := s.index.Get(id)
	if !ok {
		return nil
	}
	return s.entities[i]
}

// Snapshot appends a render view of every particle to dst.
func (s *Simulation) Snapshot(dst []EntityView) []EntityView {
	for _, e := range s.entities {
		dst = append(dst, e.View())
	}
	return dst
}

// DumpIndex builds a quadtree over the current positions and lists its nodes.
func (s *Simulation) DumpIndex() []NodeInfo {
	tree := s.resolver.Tree()
	tree.Reset(Rect{W: s.cfg.Resolver.Width, H: s.cfg.Resolver.Height})
	for _, e := range s.entities {
		tree.Insert(e)
	}
	return tree.Dump()
}

// SetSpatialIndex switches the force pass between the quadtree and brute force.
func (s *Simulation) SetSpatialIndex(on bool) {
	s.resolver.SetSpatialIndex(on)
	s.cfg.Resolver.UseSpatialIndex = on
}

// SetCollisions turns collision handling on or off.
func (s *Simulation) SetCollisions(on bool) {
	s.resolver.SetCollisions(on)
	s.cfg.Resolver.CollisionsEnabled = on
}

// Rule returns the rule from src to dst.
func (s *Simulation) Rule(src, dst TypeID) Rule {
	return s.rules.Get(src, dst)
}

// Rules returns a snapshot of the whole table.
func (s *Simulation) Rules() RuleSnapshot {
	return s.rules.Snapshot()
}

// SetRule replaces one rule and records the change for undo.
func (s *Simulation) SetRule(src, dst TypeID, r Rule) error {
	if err := s.rules.Set(src, dst, r); err != nil {
		return err
	}
	s.record()
	return nil
}

// ClearRules resets every rule to neutral.
func (s *Simulation) ClearRules() {
	s.rules.Clear()
	s.record()
}

// RandomizeForces draws new forces and thresholds for every pair.
func (s *Simulation) RandomizeForces() {
	s.rules.RandomizeForces(s.rng)
	s.record()
}

// RandomizeCollisions draws new collision behaviour for a subset of pairs.
func (s *Simulation) RandomizeCollisions() {
	s.rules.RandomizeCollisions(s.rng)
	s.record()
}

// ImportRules replaces the whole rule table with decoded data. On error the
// current table is left untouched.
func (s *Simulation) ImportRules(data []byte) error {
	table, err := ImportRules(data, s.types)
	if err != nil {
		s.logger.Debug("rule import rejected", zap.Error(err))
		return err
	}
	if err := s.rules.Restore(table.Snapshot()); err != nil {
		return err
	}
	s.record()
	return nil
}

// ExportRules encodes the current rule table.
func (s *Simulation) ExportRules() ([]byte, error) {
	return ExportRules(s.rules, s.types)
}

func (s *Simulation) record() {
	s.history.Push(s.rules.Snapshot())
	s.revision++
}

// RulesRevision changes whenever the rule table does. Views holding a copy of
// a rule compare it to decide when to reload.
func (s *Simulation) RulesRevision() uint64 {
	return s.revision
}

func (s *Simulation) restore(snap RuleSnapshot) bool {
	if s.rules.Restore(snap) != nil {
		return false
	}
	s.revision++
	return true
}

// Undo restores the previous rule table.
func (s *Simulation) Undo() bool {
	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	return s.restore(snap)
}

// Redo reapplies the rule table that was last undone.
func (s *Simulation) Redo() bool {
	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	return s.restore(snap)
}

// History exposes the undo log for diagnostics.
func (s *Simulation) History() *History {
	return s.history
}
