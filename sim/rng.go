package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// Rand is the only source of randomness the engine consumes.
// Float64 must return a uniform value in [0, 1). *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two runs with the same SimulationKey and identical scenario
// MUST produce bit-for-bit identical population curves.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Names ===

// SubsystemTrial returns the subsystem name for trial N.
// Each trial owns one host and draws only from its own stream.
func SubsystemTrial(id int) string {
	return fmt.Sprintf("trial_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
// Because derivation depends only on the name, trial i sees the same stream
// regardless of how many trials run or in which order they are started.
//
// Thread-safety: NOT thread-safe. Derive every stream from one goroutine
// before handing them to workers.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// ForTrial is shorthand for ForSubsystem(SubsystemTrial(id)).
func (p *PartitionedRNG) ForTrial(id int) *rand.Rand {
	return p.ForSubsystem(SubsystemTrial(id))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
