package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/particlelife/sim"
)

// StatsPanel shows frame timing, resolver counters, pool usage and the
// scheduler's per-system timings.
type StatsPanel struct {
	scheduler     *sim.Scheduler
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

func NewStatsPanel(historyFrames int, scheduler *sim.Scheduler) *StatsPanel {
	return &StatsPanel{
		scheduler:     scheduler,
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

func (ps *StatsPanel) Render(frame *sim.Frame) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(320, 420), imgui.CondOnce)
	if !imgui.BeginV("Simulation Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.frameHistory[ps.frameIndex] = float32(frame.StepTime.Seconds() * 1000)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames

	d := frame.Sim.Diagnostics()

	imgui.Text(fmt.Sprintf("Frame: %d", d.Frame))
	imgui.Text(fmt.Sprintf("Particles: %d", d.Entities))
	imgui.Text(fmt.Sprintf("Collisions: %d (budget skips %d)", d.Collisions, d.BudgetSkips))
	imgui.Text(fmt.Sprintf("Last frame: %d collided, %d removed, %d spawned",
		d.LastFrame.Collisions, d.LastFrame.Removed, d.LastFrame.Spawned))

	var avgStep float32
	for _, ft := range ps.frameHistory {
		avgStep += ft
	}
	avgStep /= float32(ps.historyFrames)

	imgui.Separator()
	imgui.Text(fmt.Sprintf("Avg Step Time: %.2f ms", avgStep))
	imgui.Text("Step Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##steptime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Spatial Index") {
		cfg := frame.Sim.Config().Resolver
		mode := "brute force"
		if cfg.UseSpatialIndex {
			mode = "quadtree"
		}
		imgui.Text(fmt.Sprintf("Mode: %s", mode))
		imgui.Text(fmt.Sprintf("Depth: %d  Nodes: %d  Overflows: %d", d.QuadDepth, d.QuadNodes, d.QuadOverflows))
		imgui.Text(fmt.Sprintf("Force evaluations: %d", d.ForceEvaluations))
		imgui.Text(fmt.Sprintf("Neighbor queries: %d", d.NeighborQueries))
		imgui.Text(fmt.Sprintf("Out of bounds: %d", d.OutOfBounds))

		spatial := cfg.UseSpatialIndex
		if imgui.Checkbox("Use quadtree", &spatial) {
			frame.Sim.SetSpatialIndex(spatial)
		}
		collisions := cfg.CollisionsEnabled
		if imgui.Checkbox("Collisions", &collisions) {
			frame.Sim.SetCollisions(collisions)
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Pool") {
		p := d.Pool
		imgui.ProgressBarV(float32(d.PoolEfficiency), imgui.NewVec2(-1, 0),
			fmt.Sprintf("%d / %d", p.Active, p.Capacity))
		imgui.Text(fmt.Sprintf("Free: %d  Peak: %d", p.Free, p.PeakActive))
		imgui.Text(fmt.Sprintf("Created: %d  Recycled: %d", p.Created, p.Recycled))
		if p.Exhausted > 0 {
			imgui.TextColored(imgui.NewVec4(1.0, 0.6, 0.0, 1.0),
				fmt.Sprintf("Exhausted: %d  Discarded: %d", p.Exhausted, p.Discarded))
		}
		imgui.TreePop()
	}

	if ps.scheduler != nil && imgui.TreeNodeStr("Systems") {
		stats := ps.scheduler.Stats()
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Avg (ms)")
			imgui.TableSetupColumn("Max (ms)")
			imgui.TableHeadersRow()

			for _, sys := range stats.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(sys.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f", sys.AvgDuration.Seconds()*1000))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f", sys.MaxDuration.Seconds()*1000))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}
