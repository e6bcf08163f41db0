package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/particlelife/config"
	"github.com/plus3/particlelife/layout"
	"github.com/plus3/particlelife/sim"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML config file; flags override it.")
	duration := flag.Duration("duration", 10*time.Second, "The total duration the test should run for.")
	perType := flag.Int("per-type", 0, "Particles per type (0 keeps the config value).")
	bruteForce := flag.Bool("brute-force", false, "Disable the quadtree and evaluate every pair.")
	randomCollisions := flag.Bool("collisions", true, "Randomize collision rules as well as forces.")
	logEvery := flag.Int64("log-every", 300, "Log a diagnostics line every N frames (0 disables).")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *perType > 0 {
		cfg.World.PerType = *perType
	}
	if *bruteForce {
		cfg.Physics.SpatialIndex = false
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger, *duration, *randomCollisions, *logEvery, *gcPauseMetrics); err != nil {
		logger.Fatal("stress test failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, duration time.Duration, randomCollisions bool, logEvery int64, gcPauseMetrics bool) error {
	seed := cfg.World.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	s, err := sim.New(cfg.Sim(), cfg.Types(), sim.WithLogger(logger), sim.WithRand(rng))
	if err != nil {
		return err
	}

	place, err := layout.New(cfg.World.Layout, layout.Params{
		Width:   cfg.World.Width,
		Height:  cfg.World.Height,
		Types:   cfg.World.Types,
		PerType: cfg.World.PerType,
		Rand:    rng,
	})
	if err != nil {
		return err
	}

	logger.Info("starting particle stress test",
		zap.Uint64("seed", seed),
		zap.Int("types", cfg.World.Types),
		zap.Int("per_type", cfg.World.PerType),
		zap.String("layout", cfg.World.Layout),
		zap.Bool("spatial_index", cfg.Physics.SpatialIndex),
	)

	s.Populate(place)
	s.RandomizeForces()
	if randomCollisions {
		s.RandomizeCollisions()
	}
	logger.Info("population complete", zap.Int("particles", s.Len()))

	scheduler := sim.NewScheduler(s)
	capacity := s.Pool().Capacity()
	scheduler.Register(&sim.PopulationGuard{Ceiling: capacity, Floor: capacity * 3 / 4})
	scheduler.Register(&sim.DiagnosticsLogger{Logger: logger, Every: logEvery})

	report := &Report{
		Duration:       duration,
		Seed:           seed,
		Types:          cfg.World.Types,
		Particles:      s.Len(),
		SpatialIndex:   cfg.Physics.SpatialIndex,
		GCPauseMetrics: gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info("running simulation", zap.Duration("duration", duration))
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	startTime := time.Now()
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
			res := scheduler.Once()
			report.Collisions += int64(res.Collisions)
			report.Removed += int64(res.Removed)
			report.Spawned += int64(res.Spawned)
			report.PeakParticles = max(report.PeakParticles, s.Len())
		}
	}

	report.TotalTime = time.Since(startTime)
	runtime.ReadMemStats(&report.MemStatsEnd)
	report.Scheduler = scheduler.Stats()
	report.Diagnostics = s.Diagnostics()

	logger.Info("simulation finished", zap.Int64("frames", report.Scheduler.Frames))

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")
	return nil
}
