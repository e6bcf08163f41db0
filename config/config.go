package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/plus3/particlelife/sim"
)

// Config is the top-level TOML document.
type Config struct {
	World   WorldConfig   `toml:"world"`
	Physics PhysicsConfig `toml:"physics"`
	Logging LoggingConfig `toml:"logging"`
}

// WorldConfig sizes the canvas and the initial population.
type WorldConfig struct {
	Width      float64  `toml:"width"`
	Height     float64  `toml:"height"`
	Types      int      `toml:"types"`
	PerType    int      `toml:"per_type"`
	PoolBuffer int      `toml:"pool_buffer"`
	Seed       uint64   `toml:"seed"` // 0 picks a random seed
	Layout     string   `toml:"layout"`
	TypeNames  []string `toml:"type_names"`
	TypeColors []string `toml:"type_colors"` // #rrggbb, one per type
}

// PhysicsConfig holds resolver tuning and the per-particle physics defaults.
type PhysicsConfig struct {
	MaxDistance            float64 `toml:"max_distance"`
	ForceMultiplier        float64 `toml:"force_multiplier"`
	CollisionDistanceRatio float64 `toml:"collision_distance_ratio"`
	EdgeMargin             float64 `toml:"edge_margin"`
	EdgeForce              float64 `toml:"edge_force"`

	Collisions      bool `toml:"collisions"`
	CollisionBudget int  `toml:"collision_budget"`
	CooldownFrames  int  `toml:"cooldown_frames"`

	SpatialIndex bool `toml:"spatial_index"`
	QuadCapacity int  `toml:"quad_capacity"`

	ClampAcceleration bool `toml:"clamp_acceleration"`
	ClampVelocity     bool `toml:"clamp_velocity"`

	Size            float64 `toml:"size"`
	Friction        float64 `toml:"friction"`
	BounceDecay     float64 `toml:"bounce_decay"`
	MaxAcceleration float64 `toml:"max_acceleration"`
	MaxVelocity     float64 `toml:"max_velocity"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads and parses a TOML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a valid configuration for a 1200x800 canvas with six types.
func Defaults() *Config {
	rc := sim.DefaultResolverConfig(1200, 800)
	pc := sim.DefaultPhysics()
	return &Config{
		World: WorldConfig{
			Width:      rc.Width,
			Height:     rc.Height,
			Types:      6,
			PerType:    200,
			PoolBuffer: sim.DefaultPoolBuffer,
			Layout:     "uniform",
			TypeColors: []string{"#ff4040", "#40ff40", "#4080ff", "#ffff40", "#ff40ff", "#40ffff"},
		},
		Physics: PhysicsConfig{
			MaxDistance:            rc.MaxDistance,
			ForceMultiplier:        rc.ForceMultiplier,
			CollisionDistanceRatio: rc.CollisionDistanceRatio,
			EdgeMargin:             rc.EdgeMargin,
			EdgeForce:              rc.EdgeForce,
			Collisions:             rc.CollisionsEnabled,
			CollisionBudget:        rc.CollisionBudget,
			CooldownFrames:         rc.CooldownFrames,
			SpatialIndex:           rc.UseSpatialIndex,
			QuadCapacity:           rc.QuadCapacity,
			ClampAcceleration:      rc.ClampAcceleration,
			ClampVelocity:          rc.ClampVelocity,
			Size:                   pc.Size,
			Friction:               pc.Friction,
			BounceDecay:            pc.BounceDecay,
			MaxAcceleration:        pc.MaxAcceleration,
			MaxVelocity:            pc.MaxVelocity,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate builds the kernel configuration and type table and reports the
// first problem found.
func (c *Config) Validate() error {
	if c.World.PerType < 0 || c.World.PoolBuffer < 0 {
		return fmt.Errorf("%w: negative population", sim.ErrInvalidConfig)
	}
	if c.World.Types < 1 || c.World.Types > sim.MaxTypes {
		return fmt.Errorf("%w: %d types, want 1..%d", sim.ErrInvalidTypes, c.World.Types, sim.MaxTypes)
	}
	if err := c.Types().Validate(); err != nil {
		return err
	}
	return c.Sim().Validate()
}

// Resolver converts the physics section into resolver tuning.
func (c *Config) Resolver() sim.ResolverConfig {
	rc := sim.DefaultResolverConfig(c.World.Width, c.World.Height)
	p := c.Physics
	rc.MaxDistance = p.MaxDistance
	rc.ForceMultiplier = p.ForceMultiplier
	rc.CollisionDistanceRatio = p.CollisionDistanceRatio
	rc.EdgeMargin = p.EdgeMargin
	rc.EdgeForce = p.EdgeForce
	rc.CollisionsEnabled = p.Collisions
	rc.CollisionBudget = p.CollisionBudget
	rc.CooldownFrames = p.CooldownFrames
	rc.UseSpatialIndex = p.SpatialIndex
	rc.QuadCapacity = p.QuadCapacity
	rc.ClampAcceleration = p.ClampAcceleration
	rc.ClampVelocity = p.ClampVelocity
	return rc
}

// EntityPhysics returns the per-entity defaults.
func (c *Config) EntityPhysics() sim.Physics {
	p := c.Physics
	return sim.Physics{
		Size:            p.Size,
		Friction:        p.Friction,
		BounceDecay:     p.BounceDecay,
		MaxAcceleration: p.MaxAcceleration,
		MaxVelocity:     p.MaxVelocity,
	}
}

// Types returns the type table. Missing names default to the type index and
// colors are dropped unless every type has one.
func (c *Config) Types() sim.TypeTable {
	types := sim.NewTypeTable(max(c.World.Types, 0))
	for i := range types.Names {
		if i < len(c.World.TypeNames) && c.World.TypeNames[i] != "" {
			types.Names[i] = c.World.TypeNames[i]
		}
	}
	if c.World.Types > 0 && len(c.World.TypeColors) >= c.World.Types {
		types.Colors = append([]string(nil), c.World.TypeColors[:c.World.Types]...)
	}
	return types
}

// Sim returns the full simulation configuration.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		Resolver:     c.Resolver(),
		Physics:      c.EntityPhysics(),
		PoolCapacity: sim.PoolCapacity(c.World.Types, c.World.PerType, c.World.PoolBuffer),
		HistorySize:  sim.DefaultHistorySize,
	}
}
