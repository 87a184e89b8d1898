// Package trace provides per-step population recording for simulation runs.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// StepRecord captures one trial's population right after one update.
type StepRecord struct {
	Trial         int      `yaml:"trial"`
	Step          int      `yaml:"step"`
	Total         int      `yaml:"total"`
	Resistant     int      `yaml:"resistant"`               // resistant to every prescribed drug; equals Total when none are prescribed
	Prescriptions []string `yaml:"prescriptions,omitempty"` // drugs in force after this step
}
