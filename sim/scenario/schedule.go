package scenario

import (
	"slices"
	"sort"
)

// PrescriptionSchedule maps a step index to the drugs introduced just
// before that step's update. Drugs within a step keep their listed order.
type PrescriptionSchedule struct {
	entries map[int][]string
	steps   []int
}

// NewPrescriptionSchedule copies entries and sorts their steps.
func NewPrescriptionSchedule(entries map[int][]string) PrescriptionSchedule {
	s := PrescriptionSchedule{entries: make(map[int][]string, len(entries))}
	for step, drugs := range entries {
		s.entries[step] = slices.Clone(drugs)
		s.steps = append(s.steps, step)
	}
	sort.Ints(s.steps)
	return s
}

// At returns the drugs introduced at step, or nil.
func (s PrescriptionSchedule) At(step int) []string {
	return s.entries[step]
}

// Steps returns the scheduled steps in ascending order.
func (s PrescriptionSchedule) Steps() []int {
	return slices.Clone(s.steps)
}

// Len returns the number of scheduled steps.
func (s PrescriptionSchedule) Len() int {
	return len(s.steps)
}

// Beyond returns scheduled steps that a run of horizon steps never reaches.
func (s PrescriptionSchedule) Beyond(horizon int) []int {
	var out []int
	for _, step := range s.steps {
		if step >= horizon {
			out = append(out, step)
		}
	}
	return out
}
