package scenario

import (
	"fmt"
	"sort"
)

// preset is a named, built-in scenario.
type preset struct {
	description string
	build       func() *ScenarioSpec
}

var presets = map[string]preset{
	"untreated": {
		description: "100 simple viruses in an untreated host, 300 steps averaged over 100 trials",
		build: func() *ScenarioSpec {
			return &ScenarioSpec{
				Version: "1", Name: "untreated", Seed: 42, Variant: VariantSimple,
				StartPop: 100, MaxPop: 1000, MaxBirthProb: 0.1, ClearProb: 0.05,
				Trials: 100, TimeSteps: 300,
			}
		},
	},
	"treated": {
		description: "100 resistant viruses, guttagonol prescribed at step 150, 300 steps over 30 trials",
		build: func() *ScenarioSpec {
			return &ScenarioSpec{
				Version: "1", Name: "treated", Seed: 42, Variant: VariantResistant,
				StartPop: 100, MaxPop: 1000, MaxBirthProb: 0.1, ClearProb: 0.05, MutProb: 0.005,
				Drugs:         []string{"guttagonol"},
				Prescriptions: map[int][]string{150: {"guttagonol"}},
				Trials:        30, TimeSteps: 300,
			}
		},
	},
	"resistance-baseline": {
		description: "10 resistant viruses tracking drugs A-E, no mutation or treatment, one 500-step trial",
		build: func() *ScenarioSpec {
			return &ScenarioSpec{
				Version: "1", Name: "resistance-baseline", Seed: 42, Variant: VariantResistant,
				StartPop: 10, MaxPop: 1000, MaxBirthProb: 0.1, ClearProb: 0.05, MutProb: 0,
				Drugs:  []string{"A", "B", "C", "D", "E"},
				Trials: 1, TimeSteps: 500,
			}
		},
	},
	"combination": {
		description: "guttagonol at step 150 then grimpex at step 300, 450 steps over 30 trials",
		build: func() *ScenarioSpec {
			return &ScenarioSpec{
				Version: "1", Name: "combination", Seed: 42, Variant: VariantResistant,
				StartPop: 100, MaxPop: 1000, MaxBirthProb: 0.1, ClearProb: 0.05, MutProb: 0.005,
				Drugs: []string{"guttagonol", "grimpex"},
				Prescriptions: map[int][]string{
					150: {"guttagonol"},
					300: {"grimpex"},
				},
				Trials: 30, TimeSteps: 450,
			}
		},
	},
	"simultaneous": {
		description: "guttagonol and grimpex both prescribed at step 150, 300 steps over 30 trials",
		build: func() *ScenarioSpec {
			return &ScenarioSpec{
				Version: "1", Name: "simultaneous", Seed: 42, Variant: VariantResistant,
				StartPop: 100, MaxPop: 1000, MaxBirthProb: 0.1, ClearProb: 0.05, MutProb: 0.005,
				Drugs:         []string{"guttagonol", "grimpex"},
				Prescriptions: map[int][]string{150: {"guttagonol", "grimpex"}},
				Trials:        30, TimeSteps: 300,
			}
		},
	},
}

// PresetNames returns the built-in scenario names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetDescription returns the one-line description for name, or "".
func PresetDescription(name string) string {
	return presets[name].description
}

// Preset returns a fresh copy of the named built-in scenario.
func Preset(name string) (*ScenarioSpec, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q; valid: %v", name, PresetNames())
	}
	return p.build(), nil
}
