package sim

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// DefaultThreshold is the close/far switch distance of a neutral rule.
const DefaultThreshold = 40

// Tuning for RandomizeCollisions. The spawn tiers keep the expected number of
// particles created per collision below the two consumed by a destroy.
const (
	collisionPairShare   = 0.3
	collisionRuleChance  = 0.7
	collisionDestroyRate = 0.6
	spawnTierPair        = 0.4
	spawnTierMixed       = 0.7
	spawnTierSingle      = 0.85
)

// SpawnSpec asks for Count new particles of Type when a collision fires.
type SpawnSpec struct {
	Type  TypeID
	Count int
}

// Rule is the directional interaction from a source type to a target type.
type Rule struct {
	CloseForce         float64
	FarForce           float64
	Threshold          float64
	DestroyOnCollision bool
	Spawns             []SpawnSpec
}

// NeutralRule exerts no force and has no collision effect.
func NeutralRule() Rule {
	return Rule{Threshold: DefaultThreshold}
}

// Collides reports whether a collision under this rule has any effect.
func (r Rule) Collides() bool {
	return r.DestroyOnCollision || len(r.Spawns) > 0
}

// Clone returns a copy that shares no memory with r.
func (r Rule) Clone() Rule {
	r.Spawns = slices.Clone(r.Spawns)
	return r
}

// RuleTable holds one Rule per ordered pair of types. It is not symmetric:
// Get(a, b) and Get(b, a) are independent.
type RuleTable struct {
	n     int
	rules []Rule
}

// NewRuleTable creates an n×n table of neutral rules.
func NewRuleTable(n int) *RuleTable {
	t := &RuleTable{n: n, rules: make([]Rule, n*n)}
	t.Clear()
	return t
}

// Types returns the number of types the table covers.
func (t *RuleTable) Types() int {
	return t.n
}

func (t *RuleTable) index(src, dst TypeID) (int, bool) {
	if int(src) >= t.n || int(dst) >= t.n {
		return 0, false
	}
	return int(src)*t.n + int(dst), true
}

// Get returns a copy of the rule from src to dst. Pairs outside the table are
// neutral.
func (t *RuleTable) Get(src, dst TypeID) Rule {
	if i, ok := t.index(src, dst); ok {
		return t.rules[i].Clone()
	}
	return NeutralRule()
}

// rule returns a pointer into the table for the hot path, or nil.
func (t *RuleTable) rule(src, dst TypeID) *Rule {
	if i, ok := t.index(src, dst); ok {
		return &t.rules[i]
	}
	return nil
}

// Set replaces the rule from src to dst.
func (t *RuleTable) Set(src, dst TypeID, r Rule) error {
	i, ok := t.index(src, dst)
	if !ok {
		return fmt.Errorf("rule %d->%d outside %d types", src, dst, t.n)
	}
	if err := t.validate(r); err != nil {
		return fmt.Errorf("rule %d->%d: %w", src, dst, err)
	}
	t.rules[i] = r.Clone()
	return nil
}

func (t *RuleTable) validate(r Rule) error {
	if !(r.Threshold > 0) {
		return fmt.Errorf("threshold %v must be positive", r.Threshold)
	}
	for _, s := range r.Spawns {
		if int(s.Type) >= t.n {
			return fmt.Errorf("spawn type %d outside %d types", s.Type, t.n)
		}
		if s.Count < 0 {
			return fmt.Errorf("spawn count %d is negative", s.Count)
		}
	}
	return nil
}

// Clear resets every rule to neutral.
func (t *RuleTable) Clear() {
	for i := range t.rules {
		t.rules[i] = NeutralRule()
	}
}

// RandomizeForces draws close and far forces from [-1, 1] and thresholds from
// [20, 60] for every pair. Collision settings are left alone.
func (t *RuleTable) RandomizeForces(rng *rand.Rand) {
	for i := range t.rules {
		r := &t.rules[i]
		r.CloseForce = rng.Float64()*2 - 1
		r.FarForce = rng.Float64()*2 - 1
		r.Threshold = 20 + rng.Float64()*40
	}
}

// RandomizeCollisions clears every collision setting, then gives a random
// subset of the off-diagonal pairs destroy and spawn behaviour.
func (t *RuleTable) RandomizeCollisions(rng *rand.Rand) {
	pairs := make([]int, 0, t.n*(t.n-1))
	for i := range t.rules {
		r := &t.rules[i]
		r.DestroyOnCollision = false
		r.Spawns = nil
		if i/t.n != i%t.n {
			pairs = append(pairs, i)
		}
	}

	rng.Shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })
	chosen := pairs[:int(float64(len(pairs))*collisionPairShare)]

	for _, i := range chosen {
		if rng.Float64() >= collisionRuleChance {
			continue
		}
		r := &t.rules[i]
		r.DestroyOnCollision = rng.Float64() < collisionDestroyRate
		r.Spawns = t.randomSpawns(rng)
	}
}

func (t *RuleTable) randomSpawns(rng *rand.Rand) []SpawnSpec {
	roll := rng.Float64()
	switch {
	case roll < spawnTierPair:
		return []SpawnSpec{{Type: TypeID(rng.IntN(t.n)), Count: 2}}
	case roll < spawnTierMixed && t.n > 1:
		a := rng.IntN(t.n)
		b := rng.IntN(t.n - 1)
		if b >= a {
			b++
		}
		return []SpawnSpec{{Type: TypeID(a), Count: 1}, {Type: TypeID(b), Count: 1}}
	case roll < spawnTierSingle:
		return []SpawnSpec{{Type: TypeID(rng.IntN(t.n)), Count: 1}}
	default:
		return nil
	}
}

// RuleSnapshot is an immutable copy of a RuleTable.
type RuleSnapshot struct {
	n     int
	rules []Rule
}

// Types returns the number of types the snapshot covers.
func (s RuleSnapshot) Types() int {
	return s.n
}

// Get returns the rule from src to dst as captured.
func (s RuleSnapshot) Get(src, dst TypeID) Rule {
	if int(src) >= s.n || int(dst) >= s.n {
		return NeutralRule()
	}
	return s.rules[int(src)*s.n+int(dst)].Clone()
}

// Snapshot captures the current table.
func (t *RuleTable) Snapshot() RuleSnapshot {
	rules := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		rules[i] = r.Clone()
	}
	return RuleSnapshot{n: t.n, rules: rules}
}

// Restore replaces the table's contents with a snapshot of the same size.
func (t *RuleTable) Restore(s RuleSnapshot) error {
	if s.n != t.n {
		return fmt.Errorf("snapshot covers %d types, table has %d", s.n, t.n)
	}
	for i, r := range s.rules {
		t.rules[i] = r.Clone()
	}
	return nil
}
