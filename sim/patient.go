package sim

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNilRand is returned when a host is built without a random source.
var ErrNilRand = errors.New("random source must not be nil")

// Host is a steppable population holder.
type Host interface {
	// Update advances the population by one step and returns its new size.
	Update() int
	// TotalPop returns the current population size.
	TotalPop() int
}

// Prescribable is a Host whose reproduction is gated by administered drugs.
type Prescribable interface {
	Host
	AddPrescription(drug string)
	Prescriptions() []string
	ResistPop(drugs []string) int
}

// clearPhase tests each virus exactly once, in population order, and keeps
// the survivors in place. Survivors are compacted into the same backing
// array; writes never overtake reads, so no element is skipped.
func clearPhase[V Clearable](pop []V, r Rand) []V {
	kept := pop[:0]
	for _, v := range pop {
		if !v.DoesClear(r) {
			kept = append(kept, v)
		}
	}
	// Drop references to cleared viruses held past the new length.
	clear(pop[len(kept):])
	return kept
}

func density(size, maxPop int) float64 {
	return float64(size) / float64(maxPop)
}

// === Patient ===

// Patient is an untreated host. It owns its population exclusively;
// all mutation goes through Update.
type Patient struct {
	viruses []Reproducer
	maxPop  int
	rng     Rand
	steps   int
}

// NewPatient builds an untreated host seeded with viruses.
// The slice is copied. maxPop must be positive.
func NewPatient(viruses []Reproducer, maxPop int, r Rand) (*Patient, error) {
	if maxPop <= 0 {
		return nil, fmt.Errorf("max_pop %d: %w", maxPop, ErrInvalidCapacity)
	}
	if r == nil {
		return nil, ErrNilRand
	}
	for i, v := range viruses {
		if v == nil {
			return nil, fmt.Errorf("viruses[%d]: %w", i, ErrNilVirus)
		}
	}
	return &Patient{viruses: slices.Clone(viruses), maxPop: maxPop, rng: r}, nil
}

// Viruses returns a copy of the current population.
func (p *Patient) Viruses() []Reproducer { return slices.Clone(p.viruses) }

// MaxPop returns the capacity used in the density term.
func (p *Patient) MaxPop() int { return p.maxPop }

// Steps returns how many updates have completed.
func (p *Patient) Steps() int { return p.steps }

// TotalPop returns the current population size.
func (p *Patient) TotalPop() int { return len(p.viruses) }

// Update runs one step: clearance, density, reproduction.
// Density is fixed after clearance; offspring born this step do not
// reproduce until the next one.
func (p *Patient) Update() int {
	p.viruses = clearPhase(p.viruses, p.rng)

	popDensity := density(len(p.viruses), p.maxPop)

	parents := len(p.viruses)
	for i := 0; i < parents; i++ {
		if child, ok := p.viruses[i].Reproduce(popDensity, p.rng); ok {
			p.viruses = append(p.viruses, child)
		}
	}

	p.steps++
	return len(p.viruses)
}

// === TreatedPatient ===

// TreatedPatient is a host that can be administered drugs. Viruses only
// reproduce while resistant to every prescribed drug.
type TreatedPatient struct {
	viruses       []DrugGatedReproducer
	maxPop        int
	rng           Rand
	steps         int
	prescriptions []string
}

// NewTreatedPatient builds a treated host with no prescriptions.
// Every virus must track the same drug key set.
func NewTreatedPatient(viruses []DrugGatedReproducer, maxPop int, r Rand) (*TreatedPatient, error) {
	if maxPop <= 0 {
		return nil, fmt.Errorf("max_pop %d: %w", maxPop, ErrInvalidCapacity)
	}
	if r == nil {
		return nil, ErrNilRand
	}
	var drugs []string
	for i, v := range viruses {
		if v == nil {
			return nil, fmt.Errorf("viruses[%d]: %w", i, ErrNilVirus)
		}
		if i == 0 {
			drugs = v.Drugs()
			continue
		}
		if got := v.Drugs(); !slices.Equal(got, drugs) {
			return nil, fmt.Errorf("viruses[%d] tracks %v, viruses[0] tracks %v: %w", i, got, drugs, ErrInconsistentDrugs)
		}
	}
	return &TreatedPatient{viruses: slices.Clone(viruses), maxPop: maxPop, rng: r}, nil
}

// Viruses returns a copy of the current population.
func (p *TreatedPatient) Viruses() []DrugGatedReproducer { return slices.Clone(p.viruses) }

// MaxPop returns the capacity used in the density term.
func (p *TreatedPatient) MaxPop() int { return p.maxPop }

// Steps returns how many updates have completed.
func (p *TreatedPatient) Steps() int { return p.steps }

// TotalPop returns the current population size.
func (p *TreatedPatient) TotalPop() int { return len(p.viruses) }

// AddPrescription administers drug from the next Update on.
// Adding a drug that is already prescribed has no effect.
func (p *TreatedPatient) AddPrescription(drug string) {
	if slices.Contains(p.prescriptions, drug) {
		return
	}
	p.prescriptions = append(p.prescriptions, drug)
}

// Prescriptions returns the administered drugs in the order they were added.
func (p *TreatedPatient) Prescriptions() []string {
	return slices.Clone(p.prescriptions)
}

// ResistPop counts viruses resistant to every drug in drugs.
// An empty list counts the whole population.
func (p *TreatedPatient) ResistPop(drugs []string) int {
	n := 0
	for _, v := range p.viruses {
		if v.ResistantToAll(drugs) {
			n++
		}
	}
	return n
}

// Update runs one step like Patient.Update, gating reproduction on the
// prescriptions in force when the reproduction phase begins.
func (p *TreatedPatient) Update() int {
	p.viruses = clearPhase(p.viruses, p.rng)

	popDensity := density(len(p.viruses), p.maxPop)

	active := p.Prescriptions()
	parents := len(p.viruses)
	for i := 0; i < parents; i++ {
		if child, ok := p.viruses[i].ReproduceUnder(popDensity, active, p.rng); ok {
			p.viruses = append(p.viruses, child)
		}
	}

	p.steps++
	return len(p.viruses)
}
