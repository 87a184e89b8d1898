// Package testutil provides shared test infrastructure for the viral-sim engine.
// It consolidates scripted random sources and assertion helpers used across
// sim/ and its harness packages.
package testutil

import (
	"math"
	"testing"
)

// FixedRand returns the same value on every draw and counts draws.
type FixedRand struct {
	Value float64
	Draws int
}

// Float64 returns Value.
func (f *FixedRand) Float64() float64 {
	f.Draws++
	return f.Value
}

// SequenceRand replays Values in order and panics when exhausted, so a test
// fails loudly if the code under test draws more than expected.
type SequenceRand struct {
	Values []float64
	Draws  int
}

// Float64 returns the next scripted value.
func (s *SequenceRand) Float64() float64 {
	if s.Draws >= len(s.Values) {
		panic("SequenceRand: no scripted draws left")
	}
	v := s.Values[s.Draws]
	s.Draws++
	return v
}

// Remaining returns how many scripted draws were not consumed.
func (s *SequenceRand) Remaining() int {
	return len(s.Values) - s.Draws
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
