package sim_test

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/particlelife/sim"
)

// ExampleSimulation shows two particle types where one destroys the other on
// contact. The collision happens on the first frame and both particles are
// returned to the pool.
func ExampleSimulation() {
	cfg := sim.DefaultConfig(200, 200, 2, 1)
	cfg.Resolver.CollisionDistanceRatio = 2
	types := sim.TypeTable{Names: []string{"red", "blue"}}

	s, err := sim.New(cfg, types, sim.WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		panic(err)
	}
	if err := s.SetRule(0, 1, sim.Rule{Threshold: 40, DestroyOnCollision: true}); err != nil {
		panic(err)
	}

	s.Spawn(100, 100, 0)
	s.Spawn(101, 100, 1)
	s.Spawn(20, 20, 1)

	res := s.Step()
	fmt.Printf("collisions=%d removed=%d alive=%d\n", res.Collisions, res.Removed, s.Len())
	fmt.Printf("pool active=%d free=%d\n", s.Pool().Active(), s.Pool().Free())

	// Output:
	// collisions=1 removed=2 alive=1
	// pool active=1 free=501
}

// ExampleSimulation_Undo demonstrates rule history. Every rule action is
// recorded and can be stepped back and forth.
func ExampleSimulation_Undo() {
	s, err := sim.New(sim.DefaultConfig(100, 100, 2, 10), sim.NewTypeTable(2))
	if err != nil {
		panic(err)
	}

	_ = s.SetRule(0, 1, sim.Rule{CloseForce: 0.5, FarForce: -0.2, Threshold: 30})
	fmt.Println("set:", s.Rule(0, 1).CloseForce)

	s.Undo()
	fmt.Println("undo:", s.Rule(0, 1).CloseForce)

	s.Redo()
	fmt.Println("redo:", s.Rule(0, 1).CloseForce)

	// Output:
	// set: 0.5
	// undo: 0
	// redo: 0.5
}

// ExampleImportRules decodes a rule table keyed by type name.
func ExampleImportRules() {
	types := sim.TypeTable{Names: []string{"a", "b"}}
	data := []byte(`
a:
  a: {closeForce: 0, farForce: 0, threshold: 40, destroyOriginals: false}
  b: {closeForce: 0.3, farForce: -0.1, threshold: 25, destroyOriginals: false,
      createParticles: [{type: b, count: 1}]}
b:
  a: {closeForce: -0.2, farForce: 0, threshold: 40, destroyOriginals: true}
  b: {closeForce: 0, farForce: 0, threshold: 40, destroyOriginals: false}
`)

	table, err := sim.ImportRules(data, types)
	if err != nil {
		panic(err)
	}
	ab := table.Get(0, 1)
	fmt.Printf("a->b close=%.1f spawns=%v\n", ab.CloseForce, ab.Spawns)
	fmt.Println("b->a collides:", table.Get(1, 0).Collides())

	// Output:
	// a->b close=0.3 spawns=[{1 1}]
	// b->a collides: true
}
