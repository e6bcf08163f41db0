package sim

import "go.uber.org/zap"

// DiagnosticsLogger logs a diagnostics line every Every frames.
type DiagnosticsLogger struct {
	Logger *zap.Logger
	Every  int64
}

func (s *DiagnosticsLogger) Execute(frame *Frame) {
	if s.Every <= 0 || frame.Result.Frame%s.Every != 0 {
		return
	}
	d := frame.Sim.Diagnostics()
	s.Logger.Info("simulation",
		zap.Int64("frame", d.Frame),
		zap.Int("entities", d.Entities),
		zap.Int64("force_evals", d.ForceEvaluations),
		zap.Int64("neighbor_queries", d.NeighborQueries),
		zap.Int64("collisions", d.Collisions),
		zap.Int("quad_depth", d.QuadDepth),
		zap.Float64("pool_efficiency", d.PoolEfficiency),
		zap.Duration("step", frame.StepTime),
		zap.Float64("tps", tps(frame.DeltaTime)),
	)
}

func tps(dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return 1 / dt
}

// PopulationGuard stops collisions from growing the population past a
// ceiling and turns them back on once it falls below the floor.
type PopulationGuard struct {
	Ceiling int
	Floor   int

	tripped bool
}

func (g *PopulationGuard) Execute(frame *Frame) {
	n := frame.Sim.Len()
	switch {
	case !g.tripped && g.Ceiling > 0 && n >= g.Ceiling:
		g.tripped = true
		frame.Sim.SetCollisions(false)
	case g.tripped && n <= g.Floor:
		g.tripped = false
		frame.Sim.SetCollisions(true)
	}
}

// Tripped reports whether the guard has disabled collisions.
func (g *PopulationGuard) Tripped() bool {
	return g.tripped
}
