package sim

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrInvalidRules is returned when imported rule data does not describe a
// complete, well-typed table for the simulation's types.
var ErrInvalidRules = errors.New("invalid rule data")

// typeRef is a type given either by name or by decimal index.
type typeRef string

func (r *typeRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: type must be a scalar", value.Line)
	}
	*r = typeRef(value.Value)
	return nil
}

type spawnDoc struct {
	Type  *typeRef `yaml:"type"`
	Count *int     `yaml:"count"`
}

type ruleDoc struct {
	CloseForce       *float64   `yaml:"closeForce"`
	FarForce         *float64   `yaml:"farForce"`
	Threshold        *float64   `yaml:"threshold"`
	DestroyOriginals *bool      `yaml:"destroyOriginals"`
	CreateParticles  []spawnDoc `yaml:"createParticles"`
}

type spawnOut struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

type ruleOut struct {
	CloseForce       float64    `yaml:"closeForce"`
	FarForce         float64    `yaml:"farForce"`
	Threshold        float64    `yaml:"threshold"`
	DestroyOriginals bool       `yaml:"destroyOriginals"`
	CreateParticles  []spawnOut `yaml:"createParticles"`
}

// ImportRules decodes a nested source -> target -> rule mapping (YAML or
// JSON) into a new table. Every ordered pair of types must be present with
// every field set; anything else is rejected as a whole.
func ImportRules(data []byte, types TypeTable) (*RuleTable, error) {
	var doc map[string]map[string]*ruleDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}

	n := types.Len()
	table := NewRuleTable(n)
	seen := make([]bool, n*n)

	for srcName, row := range doc {
		src, ok := types.Lookup(srcName)
		if !ok {
			return nil, fmt.Errorf("%w: unknown source type %q", ErrInvalidRules, srcName)
		}
		for dstName, rd := range row {
			dst, ok := types.Lookup(dstName)
			if !ok {
				return nil, fmt.Errorf("%w: unknown target type %q", ErrInvalidRules, dstName)
			}
			rule, err := rd.toRule(types)
			if err != nil {
				return nil, fmt.Errorf("%w: %s->%s: %v", ErrInvalidRules, srcName, dstName, err)
			}
			if seen[int(src)*n+int(dst)] {
				return nil, fmt.Errorf("%w: duplicate rule %s->%s", ErrInvalidRules,
					types.Name(src), types.Name(dst))
			}
			if err := table.Set(src, dst, rule); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
			}
			seen[int(src)*n+int(dst)] = true
		}
	}

	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: missing rule %s->%s", ErrInvalidRules,
				types.Name(TypeID(i/n)), types.Name(TypeID(i%n)))
		}
	}
	return table, nil
}

func (d *ruleDoc) toRule(types TypeTable) (Rule, error) {
	if d == nil {
		return Rule{}, errors.New("empty rule")
	}
	switch {
	case d.CloseForce == nil:
		return Rule{}, errors.New("missing closeForce")
	case d.FarForce == nil:
		return Rule{}, errors.New("missing farForce")
	case d.Threshold == nil:
		return Rule{}, errors.New("missing threshold")
	case d.DestroyOriginals == nil:
		return Rule{}, errors.New("missing destroyOriginals")
	}

	rule := Rule{
		CloseForce:         *d.CloseForce,
		FarForce:           *d.FarForce,
		Threshold:          *d.Threshold,
		DestroyOnCollision: *d.DestroyOriginals,
	}
	for i, sd := range d.CreateParticles {
		if sd.Type == nil || sd.Count == nil {
			return Rule{}, fmt.Errorf("createParticles[%d] needs type and count", i)
		}
		typ, ok := types.Lookup(string(*sd.Type))
		if !ok {
			return Rule{}, fmt.Errorf("createParticles[%d]: unknown type %q", i, *sd.Type)
		}
		rule.Spawns = append(rule.Spawns, SpawnSpec{Type: typ, Count: *sd.Count})
	}
	return rule, nil
}

// ExportRules encodes the table in the format ImportRules reads.
func ExportRules(t *RuleTable, types TypeTable) ([]byte, error) {
	if t.Types() != types.Len() {
		return nil, fmt.Errorf("rule table covers %d types, type table has %d", t.Types(), types.Len())
	}
	doc := make(map[string]map[string]ruleOut, t.Types())
	for src := 0; src < t.Types(); src++ {
		row := make(map[string]ruleOut, t.Types())
		for dst := 0; dst < t.Types(); dst++ {
			r := t.Get(TypeID(src), TypeID(dst))
			out := ruleOut{
				CloseForce:       r.CloseForce,
				FarForce:         r.FarForce,
				Threshold:        r.Threshold,
				DestroyOriginals: r.DestroyOnCollision,
				CreateParticles:  make([]spawnOut, 0, len(r.Spawns)),
			}
			for _, s := range r.Spawns {
				out.CreateParticles = append(out.CreateParticles, spawnOut{Type: types.Name(s.Type), Count: s.Count})
			}
			row[types.Name(TypeID(dst))] = out
		}
		doc[types.Name(TypeID(src))] = row
	}
	return yaml.Marshal(doc)
}
