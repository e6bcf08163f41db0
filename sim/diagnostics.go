package sim

// Diagnostics is an informational snapshot of the simulation. Nothing in the
// simulation reads it back.
type Diagnostics struct {
	Frame    int64
	Entities int

	ForceEvaluations int64
	NeighborQueries  int64
	Collisions       int64
	BudgetSkips      int64
	OutOfBounds      int64

	QuadDepth     int
	QuadNodes     int
	QuadOverflows int

	Pool           PoolStats
	PoolEfficiency float64

	HistoryLen    int
	HistoryCursor int

	LastFrame FrameResult
}

// Diagnostics collects counters from the resolver, pool and history.
func (s *Simulation) Diagnostics() Diagnostics {
	rs := s.resolver.Stats()
	ps := s.pool.Stats()
	return Diagnostics{
		Frame:            s.frame,
		Entities:         len(s.entities),
		ForceEvaluations: rs.ForceEvaluations,
		NeighborQueries:  rs.NeighborQueries,
		Collisions:       rs.Collisions,
		BudgetSkips:      rs.BudgetSkips,
		OutOfBounds:      rs.OutOfBounds,
		QuadDepth:        rs.QuadDepth,
		QuadNodes:        rs.QuadNodes,
		QuadOverflows:    rs.QuadOverflows,
		Pool:             ps,
		PoolEfficiency:   ps.Efficiency(),
		HistoryLen:       s.history.Len(),
		HistoryCursor:    s.history.Cursor(),
		LastFrame:        s.last,
	}
}
