package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/particlelife/sim"
)

type Report struct {
	// Configuration
	Duration     time.Duration
	Seed         uint64
	Types        int
	Particles    int
	SpatialIndex bool

	// Results
	TotalTime      time.Duration
	Collisions     int64
	Removed        int64
	Spawned        int64
	PeakParticles  int
	Scheduler      *sim.SchedulerStats
	Diagnostics    sim.Diagnostics
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Particle Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Seed:** {{.Seed}}
- **Types:** {{.Types}}
- **Initial Particles:** {{.Particles}}
- **Force Pass:** {{if .SpatialIndex}}quadtree{{else}}brute force{{end}}

## Performance Results
- **Total Frames:** {{.Scheduler.Frames}}
- **Total Test Time:** {{.TotalTime}}
- **Frames Per Second:** {{fps .Scheduler.Frames .TotalTime}}
- **Step Time (Frame):**
  - **Avg:** {{.Scheduler.AvgStep}}
  - **Min:** {{.Scheduler.MinStep}}
  - **Max:** {{.Scheduler.MaxStep}}
{{range .Scheduler.Systems}}- **{{.Name}}:** avg {{.AvgDuration}}, max {{.MaxDuration}}
{{end}}
## Simulation
- **Final Particles:** {{.Diagnostics.Entities}} (peak {{.PeakParticles}})
- **Collisions:** {{.Collisions}} ({{.Diagnostics.BudgetSkips}} skipped by budget)
- **Removed / Spawned:** {{.Removed}} / {{.Spawned}}
- **Force Evaluations:** {{.Diagnostics.ForceEvaluations}}
- **Neighbor Queries:** {{.Diagnostics.NeighborQueries}}
- **Quadtree:** depth {{.Diagnostics.QuadDepth}}, {{.Diagnostics.QuadNodes}} nodes, {{.Diagnostics.QuadOverflows}} overflows

## Pool
- **Capacity:** {{.Diagnostics.Pool.Capacity}} ({{percent .Diagnostics.PoolEfficiency}} in use)
- **Peak Active:** {{.Diagnostics.Pool.PeakActive}}
- **Created / Recycled:** {{.Diagnostics.Pool.Created}} / {{.Diagnostics.Pool.Recycled}}
- **Exhausted / Discarded:** {{.Diagnostics.Pool.Exhausted}} / {{.Diagnostics.Pool.Discarded}}

## Memory
| Metric | Start | End | Delta |
|--------|-------|-----|-------|
| Heap in use (MiB) | {{mib .MemStatsStart.HeapAlloc}} | {{mib .MemStatsEnd.HeapAlloc}} | {{mibDelta .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}} |
| Allocated (MiB) | {{mib .MemStatsStart.TotalAlloc}} | {{mib .MemStatsEnd.TotalAlloc}} | {{mibDelta .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}} |
| Mallocs | {{.MemStatsStart.Mallocs}} | {{.MemStatsEnd.Mallocs}} | {{delta .MemStatsEnd.Mallocs .MemStatsStart.Mallocs}} |
| GC cycles | {{.MemStatsStart.NumGC}} | {{.MemStatsEnd.NumGC}} | {{delta .MemStatsEnd.NumGC .MemStatsStart.NumGC}} |
{{if .GCPauseMetrics}}
## GC Pauses
- **Total pause during run:** {{pause .MemStatsStart.PauseTotalNs .MemStatsEnd.PauseTotalNs}}
- **Allocations per frame:** {{perFrame .MemStatsStart.Mallocs .MemStatsEnd.Mallocs .Scheduler.Frames}}
{{end}}
`

	fm := template.FuncMap{
		"mib": func(b uint64) string {
			return fmt.Sprintf("%.2f", float64(b)/(1<<20))
		},
		"mibDelta": func(end, start uint64) string {
			return fmt.Sprintf("%+.2f", (float64(end)-float64(start))/(1<<20))
		},
		"delta": func(end, start any) string {
			return fmt.Sprintf("%+d", toInt64(end)-toInt64(start))
		},
		"pause": func(start, end uint64) string {
			return time.Duration(end - start).String()
		},
		"perFrame": func(start, end uint64, frames int64) string {
			if frames == 0 {
				return "N/A"
			}
			return fmt.Sprintf("%.1f", float64(end-start)/float64(frames))
		},
		"fps": func(frames int64, total time.Duration) string {
			if total <= 0 {
				return "N/A"
			}
			return fmt.Sprintf("%.1f", float64(frames)/total.Seconds())
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v*100)
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
