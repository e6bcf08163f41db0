package ebiten_test

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/particlelife/sim"
	"github.com/plus3/particlelife/sim/debugui"
	debugui_ebiten "github.com/plus3/particlelife/sim/debugui/ebiten"
)

// Game implements ebiten.Game and drives the simulation with ImGui panels.
type Game struct {
	scheduler    *sim.Scheduler
	imguiBackend *debugui_ebiten.ImguiBackend
}

func (g *Game) Update() error {
	// Step the simulation inside an ImGui frame so panels can render
	g.imguiBackend.Step(g.scheduler)
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	// Draw particles to screen
	// ...

	// Draw ImGui overlay on top
	g.imguiBackend.Overlay(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.imguiBackend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func Example() {
	// Create Ebiten window and ImGui backend
	imguiBackend := debugui_ebiten.NewImguiBackend("Particle Debug UI", 1280, 720)

	s, err := sim.New(sim.DefaultConfig(1280, 720, 3, 100), sim.NewTypeTable(3))
	if err != nil {
		panic(err)
	}
	s.RandomizeForces()

	// Register the standard panels plus a custom one
	scheduler := sim.NewScheduler(s)
	ui := debugui.NewDebugUI(scheduler)
	ui.Panels = append(ui.Panels, debugui.PanelFunc(func(frame *sim.Frame) {
		imgui.Begin("Hello")
		imgui.Text("Hello from the simulation!")
		imgui.End()
	}))
	scheduler.Register(ui)

	game := &Game{
		scheduler:    scheduler,
		imguiBackend: imguiBackend,
	}

	// Run the game
	if err := ebiten.RunGame(game); err != nil {
		panic(err)
	}
}
