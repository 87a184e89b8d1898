package trace

import "sort"

// TrialSummary aggregates one trial's records.
type TrialSummary struct {
	Trial      int
	Steps      int
	PeakTotal  int
	PeakStep   int
	FinalTotal int
	// ExtinctionStep is the first step with an empty population, -1 if none.
	ExtinctionStep int
	// ResistantMajorityStep is the first step, with at least one drug
	// prescribed, at which resistant viruses outnumber susceptible ones; -1 if none.
	ResistantMajorityStep int
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalRecords  int
	ExtinctTrials int
	Trials        []TrialSummary // sorted by trial
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
// Records of a trial are assumed to be in step order.
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil {
		return summary
	}
	summary.TotalRecords = len(st.Steps)

	byTrial := make(map[int]*TrialSummary)
	for _, r := range st.Steps {
		ts, ok := byTrial[r.Trial]
		if !ok {
			ts = &TrialSummary{Trial: r.Trial, PeakTotal: -1, ExtinctionStep: -1, ResistantMajorityStep: -1}
			byTrial[r.Trial] = ts
		}
		ts.Steps++
		ts.FinalTotal = r.Total
		if r.Total > ts.PeakTotal {
			ts.PeakTotal = r.Total
			ts.PeakStep = r.Step
		}
		if r.Total == 0 && ts.ExtinctionStep < 0 {
			ts.ExtinctionStep = r.Step
		}
		if len(r.Prescriptions) > 0 && 2*r.Resistant > r.Total && ts.ResistantMajorityStep < 0 {
			ts.ResistantMajorityStep = r.Step
		}
	}

	for _, ts := range byTrial {
		if ts.FinalTotal == 0 {
			summary.ExtinctTrials++
		}
		summary.Trials = append(summary.Trials, *ts)
	}
	sort.Slice(summary.Trials, func(i, j int) bool {
		return summary.Trials[i].Trial < summary.Trials[j].Trial
	})
	return summary
}
