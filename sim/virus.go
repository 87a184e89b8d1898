package sim

import (
	"errors"
	"fmt"
	"math"
)

// Construction errors. Callers match them with errors.Is.
var (
	ErrInvalidProbability = errors.New("probability must be a finite number in [0, 1]")
	ErrInvalidCapacity    = errors.New("max population must be positive")
	ErrInconsistentDrugs  = errors.New("viruses must share one drug key set")
	ErrNilVirus           = errors.New("virus must not be nil")
)

// Clearable is anything the host can stochastically remove at the start of a step.
type Clearable interface {
	DoesClear(r Rand) bool
}

// Reproducer is the capability an untreated Patient needs from its population.
// Reproduce returns (child, true) on birth and (nil, false) otherwise;
// the false branch is a normal outcome, not an error.
type Reproducer interface {
	Clearable
	Reproduce(popDensity float64, r Rand) (Reproducer, bool)
}

// DrugGatedReproducer is the capability a TreatedPatient needs: reproduction
// gated on resistance to every active drug.
type DrugGatedReproducer interface {
	Clearable
	IsResistantTo(drug string) bool
	// ResistantToAll reports resistance to every listed drug; true for none.
	ResistantToAll(drugs []string) bool
	Drugs() []string
	ReproduceUnder(popDensity float64, activeDrugs []string, r Rand) (DrugGatedReproducer, bool)
}

// birthProbability is maxBirthProb*(1-popDensity). Densities >= 1 yield a
// non-positive probability, so no draw can succeed.
func birthProbability(maxBirthProb, popDensity float64) float64 {
	return maxBirthProb * (1 - popDensity)
}

func validateProbability(name string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
		return fmt.Errorf("%s: %w, got %v", name, ErrInvalidProbability, p)
	}
	return nil
}

// === SimpleVirus ===

// SimpleVirus reproduces and clears but carries no drug resistance.
// Its parameters are immutable; offspring copy them verbatim.
type SimpleVirus struct {
	maxBirthProb float64
	clearProb    float64
}

// NewSimpleVirus validates both probabilities and returns a virus.
func NewSimpleVirus(maxBirthProb, clearProb float64) (*SimpleVirus, error) {
	if err := validateProbability("max_birth_prob", maxBirthProb); err != nil {
		return nil, err
	}
	if err := validateProbability("clear_prob", clearProb); err != nil {
		return nil, err
	}
	return &SimpleVirus{maxBirthProb: maxBirthProb, clearProb: clearProb}, nil
}

// MaxBirthProb returns the intrinsic per-step reproduction ceiling.
func (v *SimpleVirus) MaxBirthProb() float64 { return v.maxBirthProb }

// ClearProb returns the per-step clearance probability.
func (v *SimpleVirus) ClearProb() float64 { return v.clearProb }

// DoesClear consumes one draw and reports whether the virus is cleared this step.
func (v *SimpleVirus) DoesClear(r Rand) bool {
	return r.Float64() < v.clearProb
}

// Reproduce consumes one draw. The virus reproduces with probability
// maxBirthProb*(1-popDensity).
func (v *SimpleVirus) Reproduce(popDensity float64, r Rand) (Reproducer, bool) {
	if r.Float64() < birthProbability(v.maxBirthProb, popDensity) {
		return &SimpleVirus{maxBirthProb: v.maxBirthProb, clearProb: v.clearProb}, true
	}
	return nil, false
}

// === ResistantVirus ===

// ResistantVirus adds per-drug resistance traits that mutate on reproduction.
// It can only reproduce while resistant to every drug currently administered.
type ResistantVirus struct {
	SimpleVirus
	profile ResistanceProfile
	mutProb float64
}

// NewResistantVirus validates its probabilities and copies resistances.
func NewResistantVirus(maxBirthProb, clearProb float64, resistances map[string]bool, mutProb float64) (*ResistantVirus, error) {
	base, err := NewSimpleVirus(maxBirthProb, clearProb)
	if err != nil {
		return nil, err
	}
	if err := validateProbability("mut_prob", mutProb); err != nil {
		return nil, err
	}
	return &ResistantVirus{
		SimpleVirus: *base,
		profile:     NewResistanceProfile(resistances),
		mutProb:     mutProb,
	}, nil
}

// MutProb returns the per-trait flip probability applied to offspring.
func (v *ResistantVirus) MutProb() float64 { return v.mutProb }

// Profile returns the virus's resistance profile.
func (v *ResistantVirus) Profile() ResistanceProfile { return v.profile }

// Resistances returns a copy of the drug -> resistant mapping.
func (v *ResistantVirus) Resistances() map[string]bool { return v.profile.Map() }

// Drugs returns the sorted drug key set shared by the lineage.
func (v *ResistantVirus) Drugs() []string { return v.profile.Drugs() }

// IsResistantTo returns the trait for drug, false for drugs the virus does not track.
func (v *ResistantVirus) IsResistantTo(drug string) bool {
	return v.profile.IsResistantTo(drug)
}

// ResistantToAll reports whether the virus is resistant to every drug listed.
func (v *ResistantVirus) ResistantToAll(drugs []string) bool {
	return v.profile.ResistantToAll(drugs)
}

// ReproduceUnder attempts reproduction while activeDrugs are administered.
//
// Draw order: the resistance gate consumes nothing; a gated-out virus leaves
// the stream untouched. Past the gate, one birth draw, then on birth one
// mutation draw per tracked drug in sorted drug order.
func (v *ResistantVirus) ReproduceUnder(popDensity float64, activeDrugs []string, r Rand) (DrugGatedReproducer, bool) {
	child, ok := v.reproduceUnder(popDensity, activeDrugs, r)
	if !ok {
		return nil, false
	}
	return child, true
}

// Reproduce is ReproduceUnder with no drugs administered, so resistant
// viruses can also populate an untreated Patient.
func (v *ResistantVirus) Reproduce(popDensity float64, r Rand) (Reproducer, bool) {
	child, ok := v.reproduceUnder(popDensity, nil, r)
	if !ok {
		return nil, false
	}
	return child, true
}

func (v *ResistantVirus) reproduceUnder(popDensity float64, activeDrugs []string, r Rand) (*ResistantVirus, bool) {
	if !v.ResistantToAll(activeDrugs) {
		return nil, false
	}
	if r.Float64() >= birthProbability(v.maxBirthProb, popDensity) {
		return nil, false
	}
	return &ResistantVirus{
		SimpleVirus: v.SimpleVirus,
		profile:     v.profile.mutate(v.mutProb, r),
		mutProb:     v.mutProb,
	}, true
}
