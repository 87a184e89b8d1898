package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drawN(r Rand, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = r.Float64()
	}
	return out
}

func TestNewSimulationKey_PreservesSeed(t *testing.T) {
	for _, seed := range []int64{42, 0, -1, math.MaxInt64, math.MinInt64} {
		assert.Equal(t, seed, int64(NewSimulationKey(seed)))
	}
}

func TestForTrial_SameSeed_SameStream(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(42))
	b := NewPartitionedRNG(NewSimulationKey(42))
	assert.Equal(t, drawN(a.ForTrial(3), 20), drawN(b.ForTrial(3), 20))
}

func TestForTrial_DistinctTrials_DistinctStreams(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	seen := make(map[float64]int)
	for i := 0; i < 50; i++ {
		first := rng.ForTrial(i).Float64()
		if j, dup := seen[first]; dup {
			t.Errorf("trials %d and %d start with the same draw %v", j, i, first)
		}
		seen[first] = i
	}
}

func TestForTrial_DrawingOneTrialDoesNotAdvanceAnother(t *testing.T) {
	// GIVEN trial 1 has been drained heavily
	rng := NewPartitionedRNG(NewSimulationKey(7))
	drawN(rng.ForTrial(1), 1000)

	// THEN trial 0 still starts at the head of its own stream
	fresh := NewPartitionedRNG(NewSimulationKey(7))
	assert.Equal(t, drawN(fresh.ForTrial(0), 10), drawN(rng.ForTrial(0), 10))
}

func TestForTrial_IndependentOfDerivationOrderAndTrialCount(t *testing.T) {
	// Trial 4 of a 5-trial run derived in reverse equals trial 4 derived alone.
	reversed := NewPartitionedRNG(NewSimulationKey(42))
	for i := 4; i >= 0; i-- {
		reversed.ForTrial(i)
	}
	alone := NewPartitionedRNG(NewSimulationKey(42))
	assert.Equal(t, drawN(alone.ForTrial(4), 10), drawN(reversed.ForTrial(4), 10))
}

func TestForTrial_DifferentSeeds_DifferentStreams(t *testing.T) {
	a := NewPartitionedRNG(NewSimulationKey(1)).ForTrial(0)
	b := NewPartitionedRNG(NewSimulationKey(2)).ForTrial(0)
	assert.NotEqual(t, drawN(a, 5), drawN(b, 5))
}

func TestForTrial_CachedAndAliasedToSubsystem(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(7))
	assert.Empty(t, rng.subsystems, "streams are derived lazily")

	first := rng.ForTrial(3)
	assert.Same(t, first, rng.ForTrial(3))
	assert.Same(t, first, rng.ForSubsystem(SubsystemTrial(3)))
	assert.Len(t, rng.subsystems, 1)
}

func TestForSubsystem_SeedDerivation(t *testing.T) {
	// seed XOR fnv1a64(name); with seed 0 the stream is seeded by the hash alone.
	tests := []struct {
		name string
		seed int64
	}{
		{"zero seed", 0},
		{"positive seed", 42},
		{"min int64", math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPartitionedRNG(NewSimulationKey(tt.seed)).ForTrial(2)
			want := rand.New(rand.NewSource(tt.seed ^ fnv1a64(SubsystemTrial(2))))
			assert.Equal(t, drawN(want, 5), drawN(got, 5))
		})
	}
}

func TestForTrial_DrawsInUnitInterval(t *testing.T) {
	var r Rand = NewPartitionedRNG(NewSimulationKey(math.MinInt64)).ForTrial(0)
	for i, v := range drawN(r, 1000) {
		require.True(t, v >= 0 && v < 1, "draw %d = %v", i, v)
	}
}

func TestPartitionedRNG_Key(t *testing.T) {
	assert.Equal(t, SimulationKey(12345), NewPartitionedRNG(NewSimulationKey(12345)).Key())
}

func TestSubsystemTrial(t *testing.T) {
	tests := []struct {
		id   int
		want string
	}{
		{0, "trial_0"},
		{1, "trial_1"},
		{100, "trial_100"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SubsystemTrial(tt.id))
	}
}

func TestFnv1a64_TrialNamesDoNotCollide(t *testing.T) {
	hashes := make(map[int64]int)
	for i := 0; i < 10000; i++ {
		h := fnv1a64(SubsystemTrial(i))
		if j, ok := hashes[h]; ok {
			t.Fatalf("trial_%d and trial_%d hash to %d", j, i, h)
		}
		hashes[h] = i
	}
}

func BenchmarkPartitionedRNG_ForTrial_Derive(b *testing.B) {
	for i := 0; i < b.N; i++ {
		rng := NewPartitionedRNG(NewSimulationKey(42))
		for trial := 0; trial < 100; trial++ {
			rng.ForTrial(trial)
		}
	}
}
