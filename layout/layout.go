// Package layout seeds a simulation's initial population. Generators only
// decide where particles go; creation always goes through the spawn factory
// the simulation hands them.
package layout

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/aquilax/go-perlin"

	"github.com/plus3/particlelife/sim"
)

// Params describes the population to place.
type Params struct {
	Width, Height float64
	Types         int
	PerType       int
	Rand          *rand.Rand
}

func (p Params) rng() *rand.Rand {
	if p.Rand != nil {
		return p.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Generator builds a layout from params.
type Generator func(p Params) sim.Layout

var generators = map[string]Generator{
	"uniform": Uniform,
	"ring":    Ring,
	"perlin":  Perlin,
}

// Names lists the registered generators in sorted order.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New looks a generator up by name.
func New(name string, p Params) (sim.Layout, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q, want one of %v", name, Names())
	}
	return gen(p), nil
}

// Uniform scatters every particle uniformly over the world.
func Uniform(p Params) sim.Layout {
	return func(spawn sim.SpawnFunc) {
		rng := p.rng()
		for typ := 0; typ < p.Types; typ++ {
			for i := 0; i < p.PerType; i++ {
				spawn(rng.Float64()*p.Width, rng.Float64()*p.Height, sim.TypeID(typ))
			}
		}
	}
}

// Ring places each type on its own concentric ring around the world center,
// with a little radial noise.
func Ring(p Params) sim.Layout {
	return func(spawn sim.SpawnFunc) {
		rng := p.rng()
		cx, cy := p.Width/2, p.Height/2
		outer := math.Min(p.Width, p.Height) * 0.45
		band := outer / float64(p.Types+1)

		for typ := 0; typ < p.Types; typ++ {
			radius := band * float64(typ+1)
			for i := 0; i < p.PerType; i++ {
				angle := rng.Float64() * 2 * math.Pi
				r := radius + (rng.Float64()-0.5)*band*0.5
				spawn(cx+r*math.Cos(angle), cy+r*math.Sin(angle), sim.TypeID(typ))
			}
		}
	}
}

const (
	perlinAlpha    = 2
	perlinBeta     = 2
	perlinOctaves  = 3
	perlinScale    = 0.005
	perlinMaxTries = 32
)

// Perlin clusters particles where a noise field is dense. Each type samples
// its own offset into the field so clusters of different types only partly
// overlap.
func Perlin(p Params) sim.Layout {
	return func(spawn sim.SpawnFunc) {
		rng := p.rng()
		noise := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, rng.Int64())

		for typ := 0; typ < p.Types; typ++ {
			offset := float64(typ) * 1000
			for i := 0; i < p.PerType; i++ {
				var x, y float64
				for try := 0; try < perlinMaxTries; try++ {
					x, y = rng.Float64()*p.Width, rng.Float64()*p.Height
					if rng.Float64() < density(noise, x*perlinScale+offset, y*perlinScale) {
						break
					}
				}
				spawn(x, y, sim.TypeID(typ))
			}
		}
	}
}

// density maps noise into [0, 1] with a sharp falloff so low regions stay
// mostly empty.
func density(noise *perlin.Perlin, x, y float64) float64 {
	d := noise.Noise2D(x, y)*2 + 0.5
	switch {
	case d < 0:
		return 0
	case d > 1:
		return 1
	}
	return d * d
}
