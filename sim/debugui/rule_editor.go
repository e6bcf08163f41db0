package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/particlelife/sim"
)

// RuleEditor shows the rule matrix and edits one ordered pair at a time.
// Every change goes through the simulation so it lands in the undo history.
type RuleEditor struct {
	src, dst sim.TypeID
	loaded   bool
	revision uint64

	closeForce float32
	farForce   float32
	threshold  float32
	destroy    bool
	spawns     []int32 // count per type

	status string
}

func NewRuleEditor() *RuleEditor {
	return &RuleEditor{}
}

func (re *RuleEditor) load(s *sim.Simulation) {
	r := s.Rule(re.src, re.dst)
	re.closeForce = float32(r.CloseForce)
	re.farForce = float32(r.FarForce)
	re.threshold = float32(r.Threshold)
	re.destroy = r.DestroyOnCollision
	re.spawns = make([]int32, s.Types().Len())
	for _, sp := range r.Spawns {
		if int(sp.Type) < len(re.spawns) {
			re.spawns[sp.Type] += int32(sp.Count)
		}
	}
	re.loaded = true
	re.revision = s.RulesRevision()
}

// sync reloads the pair fields when the table changed under the editor, for
// example from a keyboard shortcut or an undo.
func (re *RuleEditor) sync(s *sim.Simulation) {
	if !re.loaded || re.revision != s.RulesRevision() {
		re.load(s)
	}
}

func (re *RuleEditor) rule() sim.Rule {
	r := sim.Rule{
		CloseForce:         float64(re.closeForce),
		FarForce:           float64(re.farForce),
		Threshold:          float64(re.threshold),
		DestroyOnCollision: re.destroy,
	}
	for typ, count := range re.spawns {
		if count > 0 {
			r.Spawns = append(r.Spawns, sim.SpawnSpec{Type: sim.TypeID(typ), Count: int(count)})
		}
	}
	return r
}

func (re *RuleEditor) Render(frame *sim.Frame) {
	s := frame.Sim
	types := s.Types()
	re.sync(s)

	imgui.SetNextWindowPosV(imgui.NewVec2(340, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	imgui.SetNextWindowSizeV(imgui.NewVec2(460, 520), imgui.CondOnce)
	if !imgui.BeginV("Rules", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	re.renderActions(s)
	re.sync(s)
	imgui.Separator()
	re.renderMatrix(s, types)
	imgui.Separator()
	re.renderPair(s, types)

	if re.status != "" {
		imgui.Separator()
		imgui.TextColored(imgui.NewVec4(1.0, 0.8, 0.0, 1.0), re.status)
	}

	imgui.End()
}

func (re *RuleEditor) renderActions(s *sim.Simulation) {
	if imgui.Button("Randomize forces") {
		s.RandomizeForces()
	}
	imgui.SameLine()
	if imgui.Button("Randomize collisions") {
		s.RandomizeCollisions()
	}
	imgui.SameLine()
	if imgui.Button("Clear") {
		s.ClearRules()
	}

	h := s.History()
	if imgui.Button("Undo") && h.CanUndo() {
		s.Undo()
	}
	imgui.SameLine()
	if imgui.Button("Redo") && h.CanRedo() {
		s.Redo()
	}
	imgui.SameLine()
	imgui.Text(fmt.Sprintf("history %d/%d", h.Cursor()+1, h.Len()))

	if imgui.Button("Copy rules") {
		data, err := s.ExportRules()
		if err != nil {
			re.status = err.Error()
		} else {
			imgui.SetClipboardText(string(data))
			re.status = "rules copied to clipboard"
		}
	}
	imgui.SameLine()
	if imgui.Button("Paste rules") {
		if err := s.ImportRules([]byte(imgui.ClipboardText())); err != nil {
			re.status = err.Error()
		} else {
			re.status = "rules imported"
		}
	}
}

func (re *RuleEditor) renderMatrix(s *sim.Simulation, types sim.TypeTable) {
	n := types.Len()
	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsSizingFixedFit
	if !imgui.BeginTableV("RuleMatrix", int32(n+1), tableFlags, imgui.NewVec2(0, 0), 0) {
		return
	}

	imgui.TableSetupColumn("src \\ dst")
	for dst := 0; dst < n; dst++ {
		imgui.TableSetupColumn(types.Name(sim.TypeID(dst)))
	}
	imgui.TableHeadersRow()

	for src := 0; src < n; src++ {
		imgui.TableNextRow()
		imgui.TableNextColumn()
		imgui.PushStyleColorVec4(imgui.ColText, typeColor(types, sim.TypeID(src)))
		imgui.Text(types.Name(sim.TypeID(src)))
		imgui.PopStyleColor()

		for dst := 0; dst < n; dst++ {
			imgui.TableNextColumn()
			r := s.Rule(sim.TypeID(src), sim.TypeID(dst))
			label := fmt.Sprintf("%+.2f", r.CloseForce)
			if r.Collides() {
				label += "*"
			}
			selected := re.src == sim.TypeID(src) && re.dst == sim.TypeID(dst)
			if imgui.SelectableBoolV(fmt.Sprintf("%s##%d_%d", label, src, dst), selected, 0, imgui.NewVec2(0, 0)) {
				re.src, re.dst = sim.TypeID(src), sim.TypeID(dst)
				re.load(s)
			}
		}
	}

	imgui.EndTable()
	imgui.Text("* collides")
}

func (re *RuleEditor) renderPair(s *sim.Simulation, types sim.TypeTable) {
	imgui.Text(fmt.Sprintf("%s -> %s", types.Name(re.src), types.Name(re.dst)))

	imgui.SetNextItemWidth(150)
	imgui.InputFloat("Close force", &re.closeForce)
	imgui.SetNextItemWidth(150)
	imgui.InputFloat("Far force", &re.farForce)
	imgui.SetNextItemWidth(150)
	imgui.InputFloat("Threshold", &re.threshold)
	imgui.Checkbox("Destroy on collision", &re.destroy)

	if imgui.TreeNodeStr("Spawns") {
		for typ := range re.spawns {
			imgui.SetNextItemWidth(100)
			imgui.InputInt(fmt.Sprintf("%s##spawn%d", types.Name(sim.TypeID(typ)), typ), &re.spawns[typ])
			if re.spawns[typ] < 0 {
				re.spawns[typ] = 0
			}
		}
		imgui.TreePop()
	}

	if imgui.Button("Apply") {
		if err := s.SetRule(re.src, re.dst, re.rule()); err != nil {
			re.status = err.Error()
		} else {
			re.status = ""
		}
	}
	imgui.SameLine()
	if imgui.Button("Revert") {
		re.load(s)
	}
}

func typeColor(types sim.TypeTable, id sim.TypeID) imgui.Vec4 {
	c := types.Color(id)
	return imgui.NewVec4(float32(c.R)/255, float32(c.G)/255, float32(c.B)/255, 1)
}
