package main

import (
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"go.uber.org/zap"

	"github.com/plus3/particlelife/sim"
	"github.com/plus3/particlelife/sim/debugui"
	debugui_ebiten "github.com/plus3/particlelife/sim/debugui/ebiten"
)

const helpText = `space pause  R forces  C collisions  X clear
Z undo  Y redo  Q quadtree  T show tree  K collide
S save rules  L load rules  H help`

var treeColor = color.RGBA{60, 60, 80, 255}

// Game renders the simulation and maps keys to rule actions. It only reads
// simulation state between frames.
type Game struct {
	sim          *sim.Simulation
	scheduler    *sim.Scheduler
	logger       *zap.Logger
	imguiBackend *debugui_ebiten.ImguiBackend
	ui           *debugui.ImguiSystem

	colors    []color.RGBA
	views     []sim.EntityView
	rulesPath string
	width     int
	height    int

	paused   bool
	showTree bool
	showHelp bool
	status   string
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.ui == nil || !g.ui.Input.WantCaptureKeyboard {
		g.handleInput()
	}

	switch {
	case g.paused && g.imguiBackend != nil:
		// Panels keep rendering while the simulation is held.
		g.imguiBackend.BeginFrame()
		g.ui.Execute(&sim.Frame{Sim: g.sim})
		g.imguiBackend.EndFrame()
	case g.paused:
	case g.imguiBackend != nil:
		g.imguiBackend.Step(g.scheduler)
	default:
		g.scheduler.Once()
	}
	return nil
}

func (g *Game) handleInput() {
	s := g.sim
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		s.RandomizeForces()
		g.status = "forces randomized"
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		s.RandomizeCollisions()
		g.status = "collisions randomized"
	case inpututil.IsKeyJustPressed(ebiten.KeyX):
		s.ClearRules()
		g.status = "rules cleared"
	case inpututil.IsKeyJustPressed(ebiten.KeyZ):
		if s.Undo() {
			g.status = "undo"
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyY):
		if s.Redo() {
			g.status = "redo"
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		on := !s.Config().Resolver.UseSpatialIndex
		s.SetSpatialIndex(on)
		g.status = fmt.Sprintf("quadtree %v", on)
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		on := !s.Config().Resolver.CollisionsEnabled
		s.SetCollisions(on)
		g.status = fmt.Sprintf("collisions %v", on)
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		g.showTree = !g.showTree
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.showHelp = !g.showHelp
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		g.reportErr("save rules", g.save())
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.reportErr("load rules", g.load())
	}
}

func (g *Game) reportErr(action string, err error) {
	if err != nil {
		g.logger.Warn(action+" failed", zap.Error(err))
		g.status = action + " failed"
		return
	}
	g.status = action + ": " + g.rulesPath
}

func (g *Game) save() error {
	data, err := g.sim.ExportRules()
	if err != nil {
		return err
	}
	return os.WriteFile(g.rulesPath, data, 0o644)
}

func (g *Game) load() error {
	data, err := os.ReadFile(g.rulesPath)
	if err != nil {
		return fmt.Errorf("read rules %s: %w", g.rulesPath, err)
	}
	return g.sim.ImportRules(data)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	if g.showTree {
		for _, n := range g.sim.DumpIndex() {
			vector.StrokeRect(screen, float32(n.X), float32(n.Y), float32(n.Width), float32(n.Height), 1, treeColor, false)
		}
	}

	g.views = g.sim.Snapshot(g.views[:0])
	for _, v := range g.views {
		c := color.RGBA{255, 255, 255, 255}
		if int(v.Type) < len(g.colors) {
			c = g.colors[v.Type]
		}
		vector.DrawFilledCircle(screen, float32(v.X), float32(v.Y), float32(v.Size), c, true)
	}

	hud := fmt.Sprintf("TPS %.0f  particles %d", ebiten.ActualTPS(), len(g.views))
	if g.paused {
		hud += "  PAUSED"
	}
	if g.status != "" {
		hud += "\n" + g.status
	}
	if g.showHelp {
		hud += "\n" + helpText
	}
	ebitenutil.DebugPrintAt(screen, hud, 4, g.height-64)

	if g.imguiBackend != nil {
		g.imguiBackend.Overlay(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.imguiBackend != nil {
		g.imguiBackend.Layout(outsideWidth, outsideHeight)
		return outsideWidth, outsideHeight
	}
	return g.width, g.height
}
