// Package debugui provides Dear ImGui panels for inspecting and steering a
// running simulation. Panels render from a scheduler system, so they only
// ever see the simulation between frames.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/particlelife/sim"
)

// Panel renders one ImGui window.
type Panel interface {
	Render(frame *sim.Frame)
}

// PanelFunc adapts a plain function to the Panel interface.
type PanelFunc func(frame *sim.Frame)

func (f PanelFunc) Render(frame *sim.Frame) {
	f(frame)
}

// InputState tracks Dear ImGui's input capture state.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// ImguiSystem renders its panels after every frame and records whether ImGui
// wants the mouse or keyboard. The caller must wrap the scheduler step in the
// backend's BeginFrame and EndFrame.
type ImguiSystem struct {
	Panels []Panel
	Input  InputState
}

// Execute updates input state and renders every panel.
func (i *ImguiSystem) Execute(frame *sim.Frame) {
	io := imgui.CurrentIO()
	i.Input.WantCaptureMouse = io.WantCaptureMouse()
	i.Input.WantCaptureKeyboard = io.WantCaptureKeyboard()

	for _, p := range i.Panels {
		p.Render(frame)
	}
}

// NewDebugUI returns a system carrying the standard panel set.
func NewDebugUI(scheduler *sim.Scheduler) *ImguiSystem {
	browser := NewParticleBrowser(100)
	return &ImguiSystem{
		Panels: []Panel{
			NewStatsPanel(120, scheduler),
			NewChartsPanel(),
			NewRuleEditor(),
			browser,
			NewParticleInspector(browser),
		},
	}
}
