// Package sim provides the core stochastic engine for intra-host viral
// population dynamics under drug treatment.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - virus.go: SimpleVirus and ResistantVirus, clearance and reproduction draws
//   - resistance.go: per-drug resistance traits and their mutation on reproduction
//   - patient.go: Patient and TreatedPatient, the three-phase Update step
//   - rng.go: the Rand interface and PartitionedRNG for seeded, isolated trial streams
//
// # Step Protocol
//
// Each Update runs, in order: a clearance phase over the current population,
// a single density computation (population / maxPop), and a reproduction phase
// over the survivors. Offspring join the population immediately but do not
// reproduce until the next step. A reproduction attempt that yields no child
// is reported through a comma-ok return, never through an error.
//
// # Determinism
//
// The engine never touches global randomness. A host draws from the Rand it
// was built with, in a fixed order: one clearance draw per virus in population
// order, then per surviving parent the gate (no draw), the birth draw, and on
// birth one mutation draw per tracked drug in sorted drug order. Identical seeds
// and inputs therefore reproduce identical populations.
//
// # Harness
//
// Trial repetition, prescription schedules, averaging and rendering live in
// sub-packages:
//   - sim/scenario/: YAML experiment descriptions and presets
//   - sim/experiment/: trial driver and cross-trial aggregation
//   - sim/trace/: per-step population records
//   - sim/plot/: PNG rendering of averaged curves
package sim
