package debugui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/particlelife/sim"
)

func TestRuleEditorReloadsAfterOutsideChange(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig(100, 100, 2, 1), sim.NewTypeTable(2))
	require.NoError(t, err)
	require.NoError(t, s.SetRule(0, 1, sim.Rule{CloseForce: 0.5, Threshold: 30}))

	re := NewRuleEditor()
	re.src, re.dst = 0, 1
	re.sync(s)
	assert.Equal(t, float32(0.5), re.closeForce)

	s.ClearRules()
	re.sync(s)
	assert.Equal(t, float32(0), re.closeForce)
	assert.Equal(t, float32(sim.NeutralRule().Threshold), re.threshold)

	require.True(t, s.Undo())
	re.sync(s)
	assert.Equal(t, float32(0.5), re.closeForce)

	// Applying the loaded fields must not bring back an older rule.
	require.NoError(t, s.SetRule(0, 1, re.rule()))
	assert.Equal(t, 0.5, s.Rule(0, 1).CloseForce)
}

func TestRuleEditorKeepsEditsWhileTableIsUnchanged(t *testing.T) {
	s, err := sim.New(sim.DefaultConfig(100, 100, 2, 1), sim.NewTypeTable(2))
	require.NoError(t, err)

	re := NewRuleEditor()
	re.sync(s)
	re.closeForce = 0.8
	re.sync(s)
	assert.Equal(t, float32(0.8), re.closeForce)
}
