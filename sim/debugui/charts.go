package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"

	"github.com/plus3/particlelife/sim"
)

const chartHistorySize = 300

// ChartsPanel plots per-type population and collision activity over the
// last frames.
type ChartsPanel struct {
	population [][]float32 // per type ring buffers
	collisions []float32
	stepMillis []float32
	offset     int
	scratch    []float32
}

func NewChartsPanel() *ChartsPanel {
	return &ChartsPanel{
		collisions: make([]float32, chartHistorySize),
		stepMillis: make([]float32, chartHistorySize),
		scratch:    make([]float32, chartHistorySize),
	}
}

func (c *ChartsPanel) record(frame *sim.Frame) {
	types := frame.Sim.Types()
	for len(c.population) < types.Len() {
		c.population = append(c.population, make([]float32, chartHistorySize))
	}

	for _, series := range c.population {
		series[c.offset] = 0
	}
	for _, e := range frame.Sim.Entities() {
		if int(e.Type) < len(c.population) {
			c.population[e.Type][c.offset]++
		}
	}
	c.collisions[c.offset] = float32(frame.Result.Collisions)
	c.stepMillis[c.offset] = float32(frame.StepTime.Seconds() * 1000)
	c.offset = (c.offset + 1) % chartHistorySize
}

// ordered copies a ring buffer oldest-first into the scratch slice.
func (c *ChartsPanel) ordered(series []float32) *float32 {
	copy(c.scratch, series[c.offset:])
	copy(c.scratch[chartHistorySize-c.offset:], series[:c.offset])
	return &c.scratch[0]
}

func (c *ChartsPanel) Render(frame *sim.Frame) {
	c.record(frame)

	imgui.SetNextWindowPosV(imgui.NewVec2(10, 440), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(520, 300), imgui.CondOnce)
	if !imgui.BeginV("Charts", nil, 0) {
		imgui.End()
		return
	}

	if imgui.BeginTabBar("ChartTabs") {
		if imgui.BeginTabItem("Population") {
			if implot.BeginPlotV("Population Over Time", imgui.NewVec2(-1, -1), 0) {
				implot.SetupAxesV("Frame", "Particles", 0, implot.AxisFlagsAutoFit)
				types := frame.Sim.Types()
				for i, series := range c.population {
					implot.PlotLineFloatPtrInt(types.Name(sim.TypeID(i)), c.ordered(series), chartHistorySize)
				}
				implot.EndPlot()
			}
			imgui.EndTabItem()
		}

		if imgui.BeginTabItem("Collisions") {
			if implot.BeginPlotV("Collisions Per Frame", imgui.NewVec2(-1, -1), 0) {
				implot.SetupAxesV("Frame", "Collisions", 0, implot.AxisFlagsAutoFit)
				implot.PlotLineFloatPtrInt("collisions", c.ordered(c.collisions), chartHistorySize)
				implot.EndPlot()
			}
			imgui.EndTabItem()
		}

		if imgui.BeginTabItem("Step Time") {
			if implot.BeginPlotV("Step Time", imgui.NewVec2(-1, -1), 0) {
				implot.SetupAxesV("Frame", "Time (ms)", 0, implot.AxisFlagsAutoFit)
				implot.PlotLineFloatPtrInt("step", c.ordered(c.stepMillis), chartHistorySize)
				implot.EndPlot()
			}
			imgui.EndTabItem()
		}

		imgui.EndTabBar()
	}

	imgui.End()
}
