// Package experiment drives hosts through a scenario: it builds the seed
// population, applies the prescription schedule, samples population counts
// after every step, repeats independent trials, and averages the curves.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/viral-sim/sim"
	"github.com/inference-sim/viral-sim/sim/scenario"
	"github.com/inference-sim/viral-sim/sim/trace"
)

// Options controls how a scenario is executed. Results never depend on them.
type Options struct {
	// Parallelism bounds concurrently running trials. Values below 1 mean 1.
	Parallelism int
	// Trace selects per-step recording.
	Trace trace.TraceConfig
}

// TrialResult holds one trial's curves. Resistant is nil for the simple variant.
type TrialResult struct {
	Trial         int
	Total         []int
	Resistant     []int
	Prescriptions []string // in force at the end of the trial
}

// BuildHost creates the host for one trial, seeded with spec.StartPop viruses.
// The simple variant yields a *sim.Patient, the resistant one a *sim.TreatedPatient.
func BuildHost(spec *scenario.ScenarioSpec, r sim.Rand) (sim.Host, error) {
	switch spec.Variant {
	case scenario.VariantSimple:
		viruses := make([]sim.Reproducer, spec.StartPop)
		for i := range viruses {
			v, err := sim.NewSimpleVirus(spec.MaxBirthProb, spec.ClearProb)
			if err != nil {
				return nil, err
			}
			viruses[i] = v
		}
		return sim.NewPatient(viruses, spec.MaxPop, r)
	case scenario.VariantResistant:
		resistances := spec.Resistances()
		viruses := make([]sim.DrugGatedReproducer, spec.StartPop)
		for i := range viruses {
			v, err := sim.NewResistantVirus(spec.MaxBirthProb, spec.ClearProb, resistances, spec.MutProb)
			if err != nil {
				return nil, err
			}
			viruses[i] = v
		}
		return sim.NewTreatedPatient(viruses, spec.MaxPop, r)
	default:
		return nil, fmt.Errorf("unknown variant %q", spec.Variant)
	}
}

// RunTrial runs one trial for spec.TimeSteps steps. Scheduled drugs for step t
// are prescribed before the t-th update. When tr is non-nil, one record per
// step is appended to it. ctx is checked between steps.
func RunTrial(ctx context.Context, spec *scenario.ScenarioSpec, trial int, r sim.Rand, tr *trace.SimulationTrace) (*TrialResult, error) {
	host, err := BuildHost(spec, r)
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", trial, err)
	}
	treated, isTreated := host.(sim.Prescribable)
	schedule := spec.Schedule()

	res := &TrialResult{Trial: trial, Total: make([]int, spec.TimeSteps)}
	if isTreated {
		res.Resistant = make([]int, spec.TimeSteps)
	}

	for step := 0; step < spec.TimeSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("trial %d interrupted at step %d: %w", trial, step, err)
		}
		if isTreated {
			for _, drug := range schedule.At(step) {
				treated.AddPrescription(drug)
			}
		}

		total := host.Update()
		res.Total[step] = total

		rec := trace.StepRecord{Trial: trial, Step: step, Total: total, Resistant: total}
		if isTreated {
			prescribed := treated.Prescriptions()
			rec.Resistant = treated.ResistPop(prescribed)
			rec.Prescriptions = prescribed
			res.Resistant[step] = rec.Resistant
		}
		if tr != nil {
			tr.RecordStep(rec)
		}
		logrus.Tracef("trial %d step %d: total=%d resistant=%d", trial, step, total, rec.Resistant)
	}
	if isTreated {
		res.Prescriptions = treated.Prescriptions()
	}
	return res, nil
}

// Run validates spec and executes all of its trials.
//
// Trial i always draws from the stream PartitionedRNG.ForTrial(i) of the
// spec's seed, and results are collected by trial index, so the returned
// curves are identical for any Parallelism.
func Run(ctx context.Context, spec *scenario.ScenarioSpec, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if !trace.IsValidTraceLevel(string(opts.Trace.Level)) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, steps", opts.Trace.Level)
	}
	for _, step := range spec.Schedule().Beyond(spec.TimeSteps) {
		logrus.Warnf("prescriptions at step %d are beyond the %d-step horizon and will not be applied", step, spec.TimeSteps)
	}
	parallelism := max(opts.Parallelism, 1)

	// PartitionedRNG is not thread-safe: derive every stream up front.
	rngs := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	streams := make([]sim.Rand, spec.Trials)
	for i := range streams {
		streams[i] = rngs.ForTrial(i)
	}

	results := make([]*TrialResult, spec.Trials)
	traces := make([]*trace.SimulationTrace, spec.Trials)
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < spec.Trials; i++ {
		i := i
		g.Go(func() error {
			var tr *trace.SimulationTrace
			if opts.Trace.Enabled() {
				tr = trace.NewSimulationTrace(opts.Trace)
				traces[i] = tr
			}
			logrus.Debugf("trial %d started", i)
			res, err := RunTrial(gctx, spec, i, streams[i], tr)
			if err != nil {
				return err
			}
			results[i] = res
			logrus.Debugf("trial %d finished: final total=%d", i, res.Total[len(res.Total)-1])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := Aggregate(spec, results)
	result.Elapsed = time.Since(started)
	if opts.Trace.Enabled() {
		result.Trace = trace.NewSimulationTrace(opts.Trace)
		result.Trace.Merge(traces...)
	}
	logrus.Infof("scenario %q: %d trials x %d steps in %v (parallelism %d)",
		spec.Name, spec.Trials, spec.TimeSteps, result.Elapsed, parallelism)
	return result, nil
}
