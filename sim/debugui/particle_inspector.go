package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/particlelife/sim"
)

// ParticleInspector shows and edits the particle selected in a browser.
type ParticleInspector struct {
	browser *ParticleBrowser
}

func NewParticleInspector(browser *ParticleBrowser) *ParticleInspector {
	return &ParticleInspector{browser: browser}
}

func (pi *ParticleInspector) Render(frame *sim.Frame) {
	imgui.SetNextWindowPosV(imgui.NewVec2(810, 380), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(300, 300), imgui.CondOnce)
	if !imgui.BeginV("Particle Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	id := pi.browser.Selected()
	if id == 0 {
		imgui.Text("No particle selected")
		imgui.End()
		return
	}

	e := frame.Sim.Entity(id)
	if e == nil {
		imgui.Text(fmt.Sprintf("Particle %d is gone", id))
		imgui.End()
		return
	}

	types := frame.Sim.Types()
	imgui.Text(fmt.Sprintf("Particle: %d", e.ID))
	imgui.Text(fmt.Sprintf("Handle: slot %d gen %d", e.Handle().Slot(), e.Handle().Generation()))
	imgui.PushStyleColorVec4(imgui.ColText, typeColor(types, e.Type))
	imgui.Text(fmt.Sprintf("Type: %s", types.Name(e.Type)))
	imgui.PopStyleColor()
	imgui.Separator()

	imgui.Text(fmt.Sprintf("Position: %.2f, %.2f", e.X, e.Y))
	imgui.Text(fmt.Sprintf("Force: %.3f, %.3f", e.FX, e.FY))

	editFloat("VX", &e.VX)
	editFloat("VY", &e.VY)
	editFloat("Size", &e.Size)
	editFloat("Friction", &e.Friction)
	editFloat("Max velocity", &e.MaxVelocity)

	cooldown := int32(e.Cooldown)
	imgui.Text("Cooldown:")
	imgui.SameLine()
	imgui.SetNextItemWidth(150)
	if imgui.InputInt("##cooldown", &cooldown) && cooldown >= 0 {
		e.Cooldown = int(cooldown)
	}

	imgui.End()
}

func editFloat(name string, field *float64) {
	v := float32(*field)
	imgui.Text(fmt.Sprintf("%s:", name))
	imgui.SameLine()
	imgui.SetNextItemWidth(150)
	if imgui.InputFloat(fmt.Sprintf("##%s", name), &v) {
		*field = float64(v)
	}
}
