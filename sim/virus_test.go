package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/viral-sim/sim/internal/testutil"
)

func mustResistant(t *testing.T, maxBirth, clear float64, res map[string]bool, mut float64) *ResistantVirus {
	t.Helper()
	v, err := NewResistantVirus(maxBirth, clear, res, mut)
	require.NoError(t, err)
	return v
}

func TestVirus_SatisfiesCapabilities(t *testing.T) {
	var _ Reproducer = &SimpleVirus{}
	var _ Reproducer = &ResistantVirus{}
	var _ DrugGatedReproducer = &ResistantVirus{}
}

func TestNewSimpleVirus_InvalidProbabilities_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		maxBirth float64
		clear    float64
	}{
		{"negative birth", -0.1, 0.5},
		{"birth above one", 1.1, 0.5},
		{"NaN clear", 0.5, math.NaN()},
		{"infinite clear", 0.5, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimpleVirus(tt.maxBirth, tt.clear)
			assert.ErrorIs(t, err, ErrInvalidProbability)
		})
	}
}

func TestNewSimpleVirus_BoundaryProbabilities_Accepted(t *testing.T) {
	v, err := NewSimpleVirus(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.MaxBirthProb())
	assert.Equal(t, 1.0, v.ClearProb())
}

func TestSimpleVirus_DoesClear_StrictlyBelowClearProb(t *testing.T) {
	tests := []struct {
		clear float64
		draw  float64
		want  bool
	}{
		{0.5, 0.5, false},
		{0.6, 0.5, true},
		{0.0, 0.0, false},
		{1.0, 0.999, true},
	}
	for _, tt := range tests {
		v, err := NewSimpleVirus(0.1, tt.clear)
		require.NoError(t, err)
		r := &testutil.FixedRand{Value: tt.draw}
		assert.Equal(t, tt.want, v.DoesClear(r), "clear=%v draw=%v", tt.clear, tt.draw)
		assert.Equal(t, 1, r.Draws)
	}
}

func TestSimpleVirus_Reproduce_ZeroDrawFullBirthProb_ProducesIdenticalChild(t *testing.T) {
	// GIVEN maxBirthProb=1, clearProb=0 and a stream that always returns 0
	v, err := NewSimpleVirus(1.0, 0.0)
	require.NoError(t, err)
	r := &testutil.FixedRand{Value: 0.0}

	// WHEN reproducing at zero density
	child, ok := v.Reproduce(0.0, r)

	// THEN a child with identical parameters is born
	require.True(t, ok)
	sv, isSimple := child.(*SimpleVirus)
	require.True(t, isSimple)
	assert.Equal(t, 1.0, sv.MaxBirthProb())
	assert.Equal(t, 0.0, sv.ClearProb())
	assert.NotSame(t, v, sv)
}

func TestSimpleVirus_Reproduce_DensityAtOrAboveCapacity_NeverReproduces(t *testing.T) {
	v, err := NewSimpleVirus(1.0, 0.0)
	require.NoError(t, err)
	for _, d := range []float64{1.0, 1.5, 10} {
		child, ok := v.Reproduce(d, &testutil.FixedRand{Value: 0.0})
		assert.False(t, ok, "density %v", d)
		assert.Nil(t, child)
	}
}

func TestSimpleVirus_Reproduce_BirthProbScalesWithDensity(t *testing.T) {
	// birthProb = 0.8 * (1 - 0.5) = 0.4
	v, err := NewSimpleVirus(0.8, 0.0)
	require.NoError(t, err)

	_, ok := v.Reproduce(0.5, &testutil.FixedRand{Value: 0.39})
	assert.True(t, ok)
	_, ok = v.Reproduce(0.5, &testutil.FixedRand{Value: 0.4})
	assert.False(t, ok)
}

func TestNewResistantVirus_InvalidMutProb_Rejected(t *testing.T) {
	_, err := NewResistantVirus(0.1, 0.05, map[string]bool{"a": false}, 1.5)
	assert.ErrorIs(t, err, ErrInvalidProbability)
}

func TestNewResistantVirus_CopiesResistances(t *testing.T) {
	// GIVEN a caller-owned map
	res := map[string]bool{"guttagonol": true}
	v := mustResistant(t, 0.1, 0.05, res, 0)

	// WHEN the caller mutates it, and mutates the returned copy
	res["guttagonol"] = false
	res["grimpex"] = true
	got := v.Resistances()
	got["guttagonol"] = false

	// THEN the virus is unaffected
	assert.True(t, v.IsResistantTo("guttagonol"))
	assert.Equal(t, []string{"guttagonol"}, v.Drugs())
}

func TestResistantVirus_IsResistantTo_UnknownDrug_False(t *testing.T) {
	v := mustResistant(t, 0.1, 0.05, map[string]bool{"a": true}, 0)
	assert.True(t, v.IsResistantTo("a"))
	assert.False(t, v.IsResistantTo("zzz"))
}

func TestResistantVirus_GateFails_NoChildWithoutDraws(t *testing.T) {
	// GIVEN a virus not resistant to X and an empty scripted stream
	v := mustResistant(t, 1.0, 0.0, map[string]bool{"X": false}, 0.5)
	r := &testutil.SequenceRand{}

	// WHEN X is active
	child, ok := v.ReproduceUnder(0.0, []string{"X"}, r)

	// THEN no child and no draw consumed (SequenceRand would panic on a draw)
	assert.False(t, ok)
	assert.Nil(t, child)
	assert.Equal(t, 0, r.Draws)
}

func TestResistantVirus_GateFails_UnknownActiveDrug(t *testing.T) {
	v := mustResistant(t, 1.0, 0.0, map[string]bool{"X": true}, 0)
	_, ok := v.ReproduceUnder(0.0, []string{"X", "Y"}, &testutil.SequenceRand{})
	assert.False(t, ok)
}

func TestResistantVirus_BirthDrawEqualToBirthProb_NoChild(t *testing.T) {
	v := mustResistant(t, 0.5, 0.0, map[string]bool{"X": true}, 0)
	r := &testutil.SequenceRand{Values: []float64{0.5}}
	_, ok := v.ReproduceUnder(0.0, []string{"X"}, r)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Remaining())
}

func TestResistantVirus_SupersetResistance_ReproducesWheneverExactDoes(t *testing.T) {
	// GIVEN one virus resistant to exactly the active drugs and one to a strict superset
	exact := mustResistant(t, 0.4, 0.0, map[string]bool{"A": true, "B": false}, 0)
	super := mustResistant(t, 0.4, 0.0, map[string]bool{"A": true, "B": true}, 0)
	active := []string{"A"}

	for _, draw := range []float64{0.0, 0.2, 0.39, 0.4, 0.9} {
		// WHEN both see the same birth draw (plus two mutation draws on birth)
		_, exactOK := exact.ReproduceUnder(0.0, active, &testutil.FixedRand{Value: draw})
		_, superOK := super.ReproduceUnder(0.0, active, &testutil.FixedRand{Value: draw})

		// THEN exact reproducing implies superset reproducing
		if exactOK {
			assert.True(t, superOK, "draw %v", draw)
		}
	}

	// AND only the superset virus passes when B is also active
	_, exactOK := exact.ReproduceUnder(0.0, []string{"A", "B"}, &testutil.FixedRand{Value: 0})
	_, superOK := super.ReproduceUnder(0.0, []string{"A", "B"}, &testutil.FixedRand{Value: 0})
	assert.False(t, exactOK)
	assert.True(t, superOK)
}

func TestResistantVirus_Mutation_FlipsPerDrugInSortedOrder(t *testing.T) {
	// GIVEN traits a:-, b:+, c:- and mutProb 0.5
	v := mustResistant(t, 1.0, 0.0, map[string]bool{"c": false, "a": false, "b": true}, 0.5)

	// AND a stream: birth draw, then one mutation draw each for a, b, c
	r := &testutil.SequenceRand{Values: []float64{0.0, 0.4, 0.6, 0.1}}

	// WHEN reproducing with no drugs active
	child, ok := v.ReproduceUnder(0.0, nil, r)

	// THEN a flips to +, b stays +, c flips to +
	require.True(t, ok)
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, child.(*ResistantVirus).Resistances())
	assert.Equal(t, 0, r.Remaining())

	// AND the parent is unchanged
	assert.Equal(t, map[string]bool{"a": false, "b": true, "c": false}, v.Resistances())
}

func TestResistantVirus_Child_InheritsParameters(t *testing.T) {
	v := mustResistant(t, 0.7, 0.2, map[string]bool{"a": true}, 0.3)
	child, ok := v.ReproduceUnder(0.0, []string{"a"}, &testutil.FixedRand{Value: 0.5})
	require.True(t, ok)
	rv := child.(*ResistantVirus)
	assert.Equal(t, 0.7, rv.MaxBirthProb())
	assert.Equal(t, 0.2, rv.ClearProb())
	assert.Equal(t, 0.3, rv.MutProb())
	assert.Equal(t, v.Drugs(), rv.Drugs())
}

func TestResistantVirus_ZeroMutProb_ProfileStableAcrossGenerations(t *testing.T) {
	// GIVEN mutProb 0 and a stream that always allows birth
	var current DrugGatedReproducer = mustResistant(t, 1.0, 0.0,
		map[string]bool{"A": true, "B": false, "C": true}, 0)
	original := current.(*ResistantVirus).Profile()
	r := &testutil.FixedRand{Value: 0.0}

	// WHEN reproducing for many generations
	for gen := 0; gen < 25; gen++ {
		child, ok := current.ReproduceUnder(0.0, nil, r)
		require.True(t, ok, "generation %d", gen)
		current = child
	}

	// THEN the profile never changed
	assert.True(t, original.Equal(current.(*ResistantVirus).Profile()))
}

func TestResistantVirus_Reproduce_UngatedMatchesNoActiveDrugs(t *testing.T) {
	v := mustResistant(t, 1.0, 0.0, map[string]bool{"X": false}, 0)
	child, ok := v.Reproduce(0.0, &testutil.FixedRand{Value: 0.0})
	require.True(t, ok)
	_, isResistant := child.(*ResistantVirus)
	assert.True(t, isResistant)
}
