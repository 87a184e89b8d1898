// Package scenario describes a simulation experiment: the virus variant and
// its parameters, host capacity, the drug set, the prescription schedule,
// and how many trials of how many steps to run.
package scenario

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Variant selects the virus and host model used for every trial.
type Variant string

const (
	// VariantSimple runs SimpleVirus populations in an untreated Patient.
	VariantSimple Variant = "simple"
	// VariantResistant runs ResistantVirus populations in a TreatedPatient.
	VariantResistant Variant = "resistant"
)

var validVariants = map[Variant]bool{
	VariantSimple:    true,
	VariantResistant: true,
}

var validVersions = map[string]bool{
	"":  true,
	"1": true,
}

// ScenarioSpec is the top-level experiment configuration.
// Loaded from YAML via Load(path).
type ScenarioSpec struct {
	Version            string           `yaml:"version"`
	Name               string           `yaml:"name,omitempty"`
	Description        string           `yaml:"description,omitempty"`
	Seed               int64            `yaml:"seed"`
	Variant            Variant          `yaml:"variant"`
	StartPop           int              `yaml:"start_pop"`
	MaxPop             int              `yaml:"max_pop"`
	MaxBirthProb       float64          `yaml:"max_birth_prob"`
	ClearProb          float64          `yaml:"clear_prob"`
	MutProb            float64          `yaml:"mut_prob,omitempty"`
	Drugs              []string         `yaml:"drugs,omitempty"`
	InitialResistances map[string]bool  `yaml:"initial_resistances,omitempty"`
	Prescriptions      map[int][]string `yaml:"prescriptions,omitempty"` // step -> drugs added before that step's update
	Trials             int              `yaml:"trials"`
	TimeSteps          int              `yaml:"time_steps"`
}

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*ScenarioSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse decodes a YAML scenario document with strict field checking and
// fills in defaults. It does not validate; call Validate.
func Parse(data []byte) (*ScenarioSpec, error) {
	var spec ScenarioSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	spec.ApplyDefaults()
	return &spec, nil
}

// ApplyDefaults fills fields left empty. Idempotent.
// An empty variant is inferred from the drug list.
func (s *ScenarioSpec) ApplyDefaults() {
	if s.Version == "" {
		s.Version = "1"
	}
	if s.Variant == "" {
		if len(s.Drugs) > 0 {
			s.Variant = VariantResistant
		} else {
			s.Variant = VariantSimple
		}
	}
}

// Validate checks that all fields in the spec are valid.
// Prescriptions scheduled at or after time_steps are legal; they never apply.
func (s *ScenarioSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unknown version %q; valid: 1", s.Version)
	}
	if !validVariants[s.Variant] {
		return fmt.Errorf("unknown variant %q; valid: simple, resistant", s.Variant)
	}
	if s.StartPop < 0 {
		return fmt.Errorf("start_pop must be non-negative, got %d", s.StartPop)
	}
	if s.MaxPop <= 0 {
		return fmt.Errorf("max_pop must be positive, got %d", s.MaxPop)
	}
	if s.Trials <= 0 {
		return fmt.Errorf("trials must be positive, got %d", s.Trials)
	}
	if s.TimeSteps <= 0 {
		return fmt.Errorf("time_steps must be positive, got %d", s.TimeSteps)
	}
	for _, p := range []struct {
		name string
		val  float64
	}{
		{"max_birth_prob", s.MaxBirthProb},
		{"clear_prob", s.ClearProb},
		{"mut_prob", s.MutProb},
	} {
		if err := validateProbability(p.name, p.val); err != nil {
			return err
		}
	}
	if s.Variant == VariantSimple {
		return s.validateSimple()
	}
	return s.validateResistant()
}

func (s *ScenarioSpec) validateSimple() error {
	if s.MutProb != 0 {
		return fmt.Errorf("mut_prob applies only to the resistant variant, got %v", s.MutProb)
	}
	if len(s.Drugs) > 0 || len(s.InitialResistances) > 0 || len(s.Prescriptions) > 0 {
		return fmt.Errorf("drugs, initial_resistances and prescriptions require variant %q", VariantResistant)
	}
	return nil
}

func (s *ScenarioSpec) validateResistant() error {
	if len(s.Drugs) == 0 {
		return fmt.Errorf("resistant variant requires at least one drug")
	}
	seen := make(map[string]bool, len(s.Drugs))
	for i, d := range s.Drugs {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("drugs[%d] must not be blank", i)
		}
		if seen[d] {
			return fmt.Errorf("drugs[%d]: duplicate drug %q", i, d)
		}
		seen[d] = true
	}
	for d := range s.InitialResistances {
		if !seen[d] {
			return fmt.Errorf("initial_resistances.%s: drug not listed in drugs", d)
		}
	}
	for _, step := range s.Schedule().Steps() {
		if step < 0 {
			return fmt.Errorf("prescriptions[%d]: step must be non-negative", step)
		}
		drugs := s.Prescriptions[step]
		if len(drugs) == 0 {
			return fmt.Errorf("prescriptions[%d]: at least one drug required", step)
		}
		for _, d := range drugs {
			if !seen[d] {
				return fmt.Errorf("prescriptions[%d]: drug %q not listed in drugs", step, d)
			}
		}
	}
	return nil
}

func validateProbability(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val < 0 || val > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %f", name, val)
	}
	return nil
}

// Resistances returns the seed population's resistance map: every drug in
// Drugs, false unless InitialResistances says otherwise.
func (s *ScenarioSpec) Resistances() map[string]bool {
	m := make(map[string]bool, len(s.Drugs))
	for _, d := range s.Drugs {
		m[d] = s.InitialResistances[d]
	}
	return m
}

// Schedule returns the prescription schedule.
func (s *ScenarioSpec) Schedule() PrescriptionSchedule {
	return NewPrescriptionSchedule(s.Prescriptions)
}

// Clone returns a deep copy, so CLI overrides never leak into presets.
func (s *ScenarioSpec) Clone() *ScenarioSpec {
	c := *s
	c.Drugs = slices.Clone(s.Drugs)
	if s.InitialResistances != nil {
		c.InitialResistances = make(map[string]bool, len(s.InitialResistances))
		for k, v := range s.InitialResistances {
			c.InitialResistances[k] = v
		}
	}
	if s.Prescriptions != nil {
		c.Prescriptions = make(map[int][]string, len(s.Prescriptions))
		for k, v := range s.Prescriptions {
			c.Prescriptions[k] = slices.Clone(v)
		}
	}
	return &c
}

// Marshal renders the spec as YAML.
func (s *ScenarioSpec) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}
