package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/plus3/particlelife/config"
	"github.com/plus3/particlelife/layout"
	"github.com/plus3/particlelife/sim"
	"github.com/plus3/particlelife/sim/debugui"
	debugui_ebiten "github.com/plus3/particlelife/sim/debugui/ebiten"
)

func main() {
	configPath := flag.String("config", "", "Optional TOML config file.")
	rulesPath := flag.String("rules", "rules.yaml", "File the S and L keys save rules to and load them from.")
	loadRules := flag.Bool("load-rules", false, "Load the rules file at startup instead of randomizing.")
	debugUI := flag.Bool("debug-ui", false, "Show the Dear ImGui debug panels.")
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

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	game, err := newGame(cfg, logger, *rulesPath, *loadRules, *debugUI)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	width, height := int(cfg.World.Width), int(cfg.World.Height)
	if game.imguiBackend == nil {
		ebiten.SetWindowSize(width, height)
		ebiten.SetWindowTitle("Particle Life")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("game loop stopped", zap.Error(err))
	}
}

func newGame(cfg *config.Config, logger *zap.Logger, rulesPath string, loadRules, withDebugUI bool) (*Game, error) {
	seed := cfg.World.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	s, err := sim.New(cfg.Sim(), cfg.Types(), sim.WithLogger(logger), sim.WithRand(rng))
	if err != nil {
		return nil, err
	}

	place, err := layout.New(cfg.World.Layout, layout.Params{
		Width:   cfg.World.Width,
		Height:  cfg.World.Height,
		Types:   cfg.World.Types,
		PerType: cfg.World.PerType,
		Rand:    rng,
	})
	if err != nil {
		return nil, err
	}
	s.Populate(place)

	g := &Game{
		sim:       s,
		scheduler: sim.NewScheduler(s),
		logger:    logger,
		rulesPath: rulesPath,
		width:     int(cfg.World.Width),
		height:    int(cfg.World.Height),
	}
	for i := 0; i < cfg.World.Types; i++ {
		g.colors = append(g.colors, s.Types().Color(sim.TypeID(i)))
	}

	if loadRules {
		if err := g.load(); err != nil {
			return nil, err
		}
	} else {
		s.RandomizeForces()
	}

	capacity := s.Pool().Capacity()
	g.scheduler.Register(&sim.PopulationGuard{Ceiling: capacity, Floor: capacity * 3 / 4})

	if withDebugUI {
		g.imguiBackend = debugui_ebiten.NewImguiBackend("Particle Life", g.width+400, g.height)
		g.ui = debugui.NewDebugUI(g.scheduler)
		g.scheduler.Register(g.ui)
	}

	logger.Info("simulation ready",
		zap.Uint64("seed", seed),
		zap.Int("particles", s.Len()),
		zap.Int("pool_capacity", capacity),
		zap.String("layout", cfg.World.Layout),
	)
	return g, nil
}
