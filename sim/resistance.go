package sim

import (
	"slices"
	"sort"
	"strings"
)

// ResistanceProfile is a virus's resistance trait per drug.
//
// The drug key set is sorted and shared by every member of a lineage; it is
// never modified after construction. Only the per-virus bits differ.
// Mutation visits drugs in sorted order so the draw sequence is stable.
type ResistanceProfile struct {
	drugs     []string
	resistant []bool
}

// NewResistanceProfile builds a profile from a drug -> resistant mapping.
// The map is copied; later changes to it do not affect the profile.
func NewResistanceProfile(resistances map[string]bool) ResistanceProfile {
	drugs := make([]string, 0, len(resistances))
	for d := range resistances {
		drugs = append(drugs, d)
	}
	sort.Strings(drugs)
	bits := make([]bool, len(drugs))
	for i, d := range drugs {
		bits[i] = resistances[d]
	}
	return ResistanceProfile{drugs: drugs, resistant: bits}
}

// IsResistantTo reports the stored trait for drug, or false if the drug is unknown.
func (p ResistanceProfile) IsResistantTo(drug string) bool {
	i, found := slices.BinarySearch(p.drugs, drug)
	return found && p.resistant[i]
}

// ResistantToAll reports whether the profile is resistant to every listed drug.
// An empty list is trivially satisfied.
func (p ResistanceProfile) ResistantToAll(drugs []string) bool {
	for _, d := range drugs {
		if !p.IsResistantTo(d) {
			return false
		}
	}
	return true
}

// Drugs returns the sorted drug key set.
func (p ResistanceProfile) Drugs() []string {
	return slices.Clone(p.drugs)
}

// Len returns the number of drugs tracked.
func (p ResistanceProfile) Len() int {
	return len(p.drugs)
}

// Map returns a fresh drug -> resistant mapping.
func (p ResistanceProfile) Map() map[string]bool {
	m := make(map[string]bool, len(p.drugs))
	for i, d := range p.drugs {
		m[d] = p.resistant[i]
	}
	return m
}

// SameDrugs reports whether both profiles track exactly the same drug key set.
func (p ResistanceProfile) SameDrugs(other ResistanceProfile) bool {
	return slices.Equal(p.drugs, other.drugs)
}

// Equal reports whether both profiles track the same drugs with the same traits.
func (p ResistanceProfile) Equal(other ResistanceProfile) bool {
	return p.SameDrugs(other) && slices.Equal(p.resistant, other.resistant)
}

// String renders the profile as "a:+ b:-", in sorted drug order.
func (p ResistanceProfile) String() string {
	var sb strings.Builder
	for i, d := range p.drugs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(d)
		if p.resistant[i] {
			sb.WriteString(":+")
		} else {
			sb.WriteString(":-")
		}
	}
	return sb.String()
}

// mutate returns a child profile. Each trait is flipped independently with
// probability mutProb; exactly one draw is consumed per drug, in sorted order.
func (p ResistanceProfile) mutate(mutProb float64, r Rand) ResistanceProfile {
	bits := slices.Clone(p.resistant)
	for i := range bits {
		if r.Float64() < mutProb {
			bits[i] = !bits[i]
		}
	}
	return ResistanceProfile{drugs: p.drugs, resistant: bits}
}
