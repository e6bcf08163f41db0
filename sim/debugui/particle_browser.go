package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/particlelife/sim"
)

type particleRow struct {
	ID       sim.EntityID
	Type     sim.TypeID
	X, Y     float64
	Speed    float64
	Cooldown int
}

// ParticleBrowser lists live particles in a sortable, filterable, paged table.
type ParticleBrowser struct {
	rows          []particleRow
	sortColumn    int
	sortAscending bool

	selected           sim.EntityID
	filterText         string
	maxEntitiesPerPage int
	currentPage        int
}

func NewParticleBrowser(maxEntitiesPerPage int) *ParticleBrowser {
	return &ParticleBrowser{
		sortAscending:      true,
		maxEntitiesPerPage: maxEntitiesPerPage,
	}
}

// Selected returns the particle picked in the table, or 0.
func (pb *ParticleBrowser) Selected() sim.EntityID {
	return pb.selected
}

func (pb *ParticleBrowser) Render(frame *sim.Frame) {
	types := frame.Sim.Types()

	imgui.SetNextWindowPosV(imgui.NewVec2(810, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(420, 360), imgui.CondOnce)
	if !imgui.BeginV("Particles", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	pb.rebuild(frame.Sim)

	imgui.InputTextWithHint("##search", "Filter by type or id...", &pb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		pb.filterText = ""
	}

	filtered := pb.filter(types)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ParticleTable", 5, tableFlags, imgui.NewVec2(0, -30), 0) {
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("Type")
		imgui.TableSetupColumn("Position")
		imgui.TableSetupColumn("Speed")
		imgui.TableSetupColumn("Cooldown")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			pb.sortColumn = int(spec.ColumnIndex())
			pb.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortSpecs.SetSpecsDirty(false)
		}

		start := pb.currentPage * pb.maxEntitiesPerPage
		if start >= len(filtered) {
			pb.currentPage, start = 0, 0
		}
		end := min(start+pb.maxEntitiesPerPage, len(filtered))

		for _, row := range filtered[start:end] {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			if imgui.SelectableBoolV(fmt.Sprintf("%d", row.ID), pb.selected == row.ID, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				pb.selected = row.ID
			}

			imgui.TableNextColumn()
			imgui.PushStyleColorVec4(imgui.ColText, typeColor(types, row.Type))
			imgui.Text(types.Name(row.Type))
			imgui.PopStyleColor()

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.1f, %.1f", row.X, row.Y))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%.2f", row.Speed))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Cooldown))
		}

		imgui.EndTable()
	}

	if len(filtered) > pb.maxEntitiesPerPage {
		totalPages := (len(filtered) + pb.maxEntitiesPerPage - 1) / pb.maxEntitiesPerPage
		imgui.Text(fmt.Sprintf("Page %d / %d (%d particles)", pb.currentPage+1, totalPages, len(filtered)))
		imgui.SameLine()
		if imgui.Button("Prev") && pb.currentPage > 0 {
			pb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && pb.currentPage < totalPages-1 {
			pb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d particles", len(filtered)))
	}

	imgui.End()
}

// rebuild snapshots the particles every frame since positions always change.
func (pb *ParticleBrowser) rebuild(s *sim.Simulation) {
	pb.rows = pb.rows[:0]
	for _, e := range s.Entities() {
		pb.rows = append(pb.rows, particleRow{
			ID:       e.ID,
			Type:     e.Type,
			X:        e.X,
			Y:        e.Y,
			Speed:    e.Speed(),
			Cooldown: e.Cooldown,
		})
	}

	sort.Slice(pb.rows, func(i, j int) bool {
		a, b := pb.rows[i], pb.rows[j]
		var less bool

		switch pb.sortColumn {
		case 1:
			less = a.Type < b.Type
		case 2:
			less = a.X < b.X || (a.X == b.X && a.Y < b.Y)
		case 3:
			less = a.Speed < b.Speed
		case 4:
			less = a.Cooldown < b.Cooldown
		default:
			less = a.ID < b.ID
		}

		if !pb.sortAscending {
			return !less
		}
		return less
	})
}

func (pb *ParticleBrowser) filter(types sim.TypeTable) []particleRow {
	if pb.filterText == "" {
		return pb.rows
	}

	filterLower := strings.ToLower(pb.filterText)
	filtered := make([]particleRow, 0, len(pb.rows))
	for _, row := range pb.rows {
		idStr := fmt.Sprintf("%d", row.ID)
		typeStr := strings.ToLower(types.Name(row.Type))
		if strings.Contains(idStr, filterLower) || strings.Contains(typeStr, filterLower) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
