package sim

import (
	"context"
	"reflect"
	"time"
)

// System observes the simulation after each frame. Systems run between
// frames, so they may read any simulation state and apply rule actions.
type System interface {
	Execute(frame *Frame)
}

// Frame is handed to every system after a step.
type Frame struct {
	Result    FrameResult
	StepTime  time.Duration
	Sim       *Simulation
	DeltaTime float64 // seconds since the previous frame, zero on the first
}

// SchedulerStats provides statistics about frame execution.
type SchedulerStats struct {
	Frames      int64
	MinStep     time.Duration
	MaxStep     time.Duration
	AvgStep     time.Duration
	LastStep    time.Duration
	TotalStep   time.Duration
	SystemCount int
	Systems     []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type timing struct {
	name  string
	count int64
	min   time.Duration
	max   time.Duration
	total time.Duration
	last  time.Duration
}

func newTiming(name string) *timing {
	return &timing{name: name, min: time.Duration(1<<63 - 1)}
}

func (t *timing) record(d time.Duration) {
	t.count++
	t.last = d
	t.total += d
	if d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
}

func (t *timing) avg() time.Duration {
	if t.count == 0 {
		return 0
	}
	return t.total / time.Duration(t.count)
}

// Scheduler drives a simulation one frame at a time and runs the registered
// systems after each step.
type Scheduler struct {
	sim         *Simulation
	systems     []System
	systemStats []*timing
	step        *timing
	lastTick    time.Time
}

// NewScheduler creates a scheduler for the given simulation.
func NewScheduler(sim *Simulation) *Scheduler {
	return &Scheduler{
		sim:  sim,
		step: newTiming("step"),
	}
}

// Register adds a system; systems run in registration order.
func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)

	systemType := reflect.TypeOf(system)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	s.systemStats = append(s.systemStats, newTiming(systemType.Name()))
}

// Once steps the simulation once and then executes every system.
func (s *Scheduler) Once() FrameResult {
	now := time.Now()
	var dt float64
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick).Seconds()
	}
	s.lastTick = now

	start := time.Now()
	result := s.sim.Step()
	stepTime := time.Since(start)
	s.step.record(stepTime)

	frame := &Frame{
		Result:    result,
		StepTime:  stepTime,
		Sim:       s.sim,
		DeltaTime: dt,
	}
	for i, system := range s.systems {
		start := time.Now()
		system.Execute(frame)
		s.systemStats[i].record(time.Since(start))
	}
	return result
}

// Run steps at the given interval until the context is cancelled. A frame
// that overruns the interval simply delays the next one.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Once()
		}
	}
}

// Stats returns statistics about frame execution.
func (s *Scheduler) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		Frames:      s.step.count,
		MinStep:     s.step.min,
		MaxStep:     s.step.max,
		AvgStep:     s.step.avg(),
		LastStep:    s.step.last,
		TotalStep:   s.step.total,
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systemStats)),
	}
	if s.step.count == 0 {
		stats.MinStep = 0
	}
	for i, t := range s.systemStats {
		stats.Systems[i] = SystemStats{
			Name:           t.name,
			ExecutionCount: t.count,
			MinDuration:    t.min,
			MaxDuration:    t.max,
			AvgDuration:    t.avg(),
			LastDuration:   t.last,
			TotalDuration:  t.total,
		}
	}
	return stats
}
