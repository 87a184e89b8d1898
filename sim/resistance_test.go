package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inference-sim/viral-sim/sim/internal/testutil"
)

func TestResistanceProfile_DrugsSorted(t *testing.T) {
	p := NewResistanceProfile(map[string]bool{"srinol": true, "guttagonol": false, "grimpex": true})
	assert.Equal(t, []string{"grimpex", "guttagonol", "srinol"}, p.Drugs())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, "grimpex:+ guttagonol:- srinol:+", p.String())
}

func TestResistanceProfile_ResistantToAll(t *testing.T) {
	p := NewResistanceProfile(map[string]bool{"a": true, "b": true, "c": false})
	tests := []struct {
		name  string
		drugs []string
		want  bool
	}{
		{"empty list", nil, true},
		{"single resistant", []string{"a"}, true},
		{"all resistant", []string{"a", "b"}, true},
		{"one susceptible", []string{"a", "c"}, false},
		{"unknown drug", []string{"d"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ResistantToAll(tt.drugs))
		})
	}
}

func TestResistanceProfile_Mutate_KeepsKeySetAndSharesDrugs(t *testing.T) {
	// GIVEN a profile and mutProb 1 (every trait flips)
	p := NewResistanceProfile(map[string]bool{"a": true, "b": false})
	r := &testutil.FixedRand{Value: 0.0}

	// WHEN mutated
	child := p.mutate(1.0, r)

	// THEN every trait flipped, the key set is unchanged, one draw per drug
	assert.Equal(t, map[string]bool{"a": false, "b": true}, child.Map())
	assert.True(t, p.SameDrugs(child))
	assert.False(t, p.Equal(child))
	assert.Equal(t, 2, r.Draws)
}

func TestResistanceProfile_Drugs_ReturnsCopy(t *testing.T) {
	p := NewResistanceProfile(map[string]bool{"a": true})
	drugs := p.Drugs()
	drugs[0] = "mutated"
	assert.True(t, p.IsResistantTo("a"))
}

func TestResistanceProfile_Empty(t *testing.T) {
	p := NewResistanceProfile(nil)
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.IsResistantTo("a"))
	assert.True(t, p.ResistantToAll(nil))
	assert.Equal(t, "", p.String())
}
