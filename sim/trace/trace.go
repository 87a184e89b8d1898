package trace

import (
	"io"

	"gopkg.in/yaml.v3"
)

// TraceLevel controls the verbosity of population tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelSteps captures one record per trial per step.
	TraceLevelSteps TraceLevel = "steps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelSteps: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel `yaml:"level"`
}

// Enabled reports whether records should be collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelSteps
}

// SimulationTrace collects step records. One trace belongs to one trial
// while it runs; Merge combines them afterwards in trial order.
type SimulationTrace struct {
	Config TraceConfig  `yaml:"config"`
	Steps  []StepRecord `yaml:"steps"`
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config: config,
		Steps:  make([]StepRecord, 0),
	}
}

// RecordStep appends a step record.
func (st *SimulationTrace) RecordStep(record StepRecord) {
	st.Steps = append(st.Steps, record)
}

// Merge appends the records of others, in argument order. Nil traces are skipped.
func (st *SimulationTrace) Merge(others ...*SimulationTrace) {
	for _, o := range others {
		if o == nil {
			continue
		}
		st.Steps = append(st.Steps, o.Steps...)
	}
}

// WriteYAML encodes the trace to w.
func (st *SimulationTrace) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(st); err != nil {
		return err
	}
	return enc.Close()
}
