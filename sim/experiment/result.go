package experiment

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/viral-sim/sim/scenario"
	"github.com/inference-sim/viral-sim/sim/trace"
)

// ScheduleEntry is one prescription event, for reporting and plotting.
type ScheduleEntry struct {
	Step  int      `yaml:"step"`
	Drugs []string `yaml:"drugs"`
}

// Summary holds headline statistics across trials.
type Summary struct {
	FinalMeanTotal     float64 `yaml:"final_mean_total"`
	FinalStdTotal      float64 `yaml:"final_std_total"`
	// FinalMeanResistant and ResistantTrials are nil for the simple variant.
	FinalMeanResistant *float64 `yaml:"final_mean_resistant,omitempty"`
	PeakMeanTotal      float64 `yaml:"peak_mean_total"`
	PeakStep           int     `yaml:"peak_step"`
	ExtinctTrials      int     `yaml:"extinct_trials"`
	// ResistantTrials counts trials that ended with at least one drug
	// prescribed and a non-empty resistant population.
	ResistantTrials *int `yaml:"resistant_trials,omitempty"`
}

// Result is the cross-trial average of a scenario run.
// Mean/Std curves are indexed by step. Resistant curves are nil for the
// simple variant.
type Result struct {
	Scenario      string           `yaml:"scenario"`
	Variant       scenario.Variant `yaml:"variant"`
	Seed          int64            `yaml:"seed"`
	Trials        int              `yaml:"trials"`
	TimeSteps     int              `yaml:"time_steps"`
	MaxPop        int              `yaml:"max_pop"`
	Schedule      []ScheduleEntry  `yaml:"schedule,omitempty"`
	Summary       Summary          `yaml:"summary"`
	MeanTotal     []float64        `yaml:"mean_total,flow"`
	StdTotal      []float64        `yaml:"std_total,flow"`
	MeanResistant []float64        `yaml:"mean_resistant,flow,omitempty"`
	StdResistant  []float64        `yaml:"std_resistant,flow,omitempty"`

	Elapsed time.Duration          `yaml:"-"` // wall clock; not deterministic
	Trace   *trace.SimulationTrace `yaml:"-"`
}

// HasResistant reports whether resistant curves were collected.
func (r *Result) HasResistant() bool {
	return r.MeanResistant != nil
}

// Aggregate averages trial curves step by step. trials must be indexed by
// trial number, every entry non-nil with spec.TimeSteps samples.
func Aggregate(spec *scenario.ScenarioSpec, trials []*TrialResult) *Result {
	res := &Result{
		Scenario:  spec.Name,
		Variant:   spec.Variant,
		Seed:      spec.Seed,
		Trials:    len(trials),
		TimeSteps: spec.TimeSteps,
		MaxPop:    spec.MaxPop,
	}
	schedule := spec.Schedule()
	for _, step := range schedule.Steps() {
		res.Schedule = append(res.Schedule, ScheduleEntry{Step: step, Drugs: schedule.At(step)})
	}
	if len(trials) == 0 || spec.TimeSteps <= 0 {
		return res
	}

	withResistant := trials[0].Resistant != nil
	res.MeanTotal, res.StdTotal = stepStats(trials, spec.TimeSteps, func(t *TrialResult) []int { return t.Total })
	if withResistant {
		res.MeanResistant, res.StdResistant = stepStats(trials, spec.TimeSteps, func(t *TrialResult) []int { return t.Resistant })
	}

	last := spec.TimeSteps - 1
	res.Summary.FinalMeanTotal = res.MeanTotal[last]
	res.Summary.FinalStdTotal = res.StdTotal[last]
	resistantTrials := 0
	if withResistant {
		finalResistant := res.MeanResistant[last]
		res.Summary.FinalMeanResistant = &finalResistant
		res.Summary.ResistantTrials = &resistantTrials
	}
	for step, m := range res.MeanTotal {
		if m > res.Summary.PeakMeanTotal {
			res.Summary.PeakMeanTotal = m
			res.Summary.PeakStep = step
		}
	}
	for _, t := range trials {
		if t.Total[last] == 0 {
			res.Summary.ExtinctTrials++
		}
		if withResistant && len(t.Prescriptions) > 0 && t.Resistant[last] > 0 {
			resistantTrials++
		}
	}
	return res
}

// stepStats returns per-step mean and sample standard deviation across
// trials. A single trial has zero deviation.
func stepStats(trials []*TrialResult, steps int, curve func(*TrialResult) []int) (mean, std []float64) {
	mean = make([]float64, steps)
	std = make([]float64, steps)
	col := make([]float64, len(trials))
	for step := 0; step < steps; step++ {
		for i, t := range trials {
			col[i] = float64(curve(t)[step])
		}
		if len(col) == 1 {
			mean[step] = col[0]
			continue
		}
		mean[step], std[step] = stat.MeanStdDev(col, nil)
	}
	return mean, std
}

// Print displays the headline statistics of the run.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Results ===")
	fmt.Fprintf(w, "Scenario             : %s (%s)\n", r.Scenario, r.Variant)
	fmt.Fprintf(w, "Seed                 : %d\n", r.Seed)
	fmt.Fprintf(w, "Trials x Steps       : %d x %d\n", r.Trials, r.TimeSteps)
	fmt.Fprintf(w, "Max Population       : %d\n", r.MaxPop)
	for _, e := range r.Schedule {
		fmt.Fprintf(w, "Prescribed @ %-7d : %s\n", e.Step, strings.Join(e.Drugs, ", "))
	}
	if r.Trials == 0 {
		return
	}
	fmt.Fprintf(w, "Final Mean Total     : %.2f (std %.2f)\n", r.Summary.FinalMeanTotal, r.Summary.FinalStdTotal)
	if r.Summary.FinalMeanResistant != nil && r.Summary.ResistantTrials != nil {
		fmt.Fprintf(w, "Final Mean Resistant : %.2f\n", *r.Summary.FinalMeanResistant)
		fmt.Fprintf(w, "Resistant Trials     : %d/%d\n", *r.Summary.ResistantTrials, r.Trials)
	}
	fmt.Fprintf(w, "Peak Mean Total      : %.2f at step %d\n", r.Summary.PeakMeanTotal, r.Summary.PeakStep)
	fmt.Fprintf(w, "Extinct Trials       : %d/%d\n", r.Summary.ExtinctTrials, r.Trials)
	if r.Elapsed > 0 {
		fmt.Fprintf(w, "Wall Time            : %v\n", r.Elapsed.Round(time.Millisecond))
	}
}

// WriteYAML encodes the result, curves included, to w.
func (r *Result) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return enc.Close()
}
