package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/inference-sim/viral-sim/sim/experiment"
	"github.com/inference-sim/viral-sim/sim/plot"
	"github.com/inference-sim/viral-sim/sim/scenario"
	"github.com/inference-sim/viral-sim/sim/trace"
)

// envPrefix namespaces environment overrides: --trace-out <-> VIRALSIM_TRACE_OUT.
const envPrefix = "VIRALSIM"

// defaultPreset is used when neither --scenario nor --preset is given.
const defaultPreset = "untreated"

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "viral-sim",
	Short: "Stochastic simulator for intra-host viral population dynamics under drug treatment",
}

// runCmd executes a scenario using a scenario file or preset plus CLI/env overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario and report population curves averaged over trials",
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := newSettings(cmd.Flags())
		if err != nil {
			logrus.Fatalf("Failed to bind flags: %v", err)
		}

		// Set up logging
		level, err := logrus.ParseLevel(settings.GetString("log"))
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", settings.GetString("log"))
		}
		logrus.SetLevel(level)

		spec, err := resolveScenario(cmd.Flags(), settings)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts, err := runOptions(settings)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		logrus.Infof("Starting scenario %q: variant=%s start_pop=%d max_pop=%d trials=%d steps=%d seed=%d",
			spec.Name, spec.Variant, spec.StartPop, spec.MaxPop, spec.Trials, spec.TimeSteps, spec.Seed)

		res, err := experiment.Run(cmd.Context(), spec, opts)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		res.Print(cmd.OutOrStdout())

		if err := writeOutputs(res, settings); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// addRunFlags declares the run flags. Values are read through viper so each
// flag can also be set from the environment.
func addRunFlags(fs *pflag.FlagSet) {
	fs.String("scenario", "", "Path to a scenario YAML file")
	fs.String("preset", "", "Built-in scenario name (see `viral-sim presets`); default "+defaultPreset)
	fs.Int64("seed", 42, "Master seed; overrides the scenario's seed when set")
	fs.Int("trials", 0, "Number of independent trials; overrides the scenario when set")
	fs.Int("steps", 0, "Time steps per trial; overrides the scenario when set")
	fs.Int("parallel", 1, "Maximum trials run concurrently (results do not depend on it)")
	fs.String("log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.String("results", "", "Write averaged curves and summary as YAML to this path")
	fs.String("plot", "", "Render averaged curves to this image path (png, svg, pdf, ...)")
	fs.String("trace", string(trace.TraceLevelNone), "Trace level (none, steps)")
	fs.String("trace-out", "", "Write per-step trace records as YAML to this path; implies --trace steps")
}

// newSettings binds fs into a viper instance. Precedence: flag, then
// VIRALSIM_* environment variable, then flag default.
func newSettings(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// envName returns the environment variable consulted for flag name.
func envName(name string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// overridden reports whether the user supplied name explicitly, by flag or
// environment. Flag defaults must not clobber scenario values.
func overridden(fs *pflag.FlagSet, name string) bool {
	if fs.Changed(name) {
		return true
	}
	_, ok := os.LookupEnv(envName(name))
	return ok
}

// resolveScenario loads the scenario named by --scenario or --preset and
// applies explicit overrides, then validates the result.
func resolveScenario(fs *pflag.FlagSet, v *viper.Viper) (*scenario.ScenarioSpec, error) {
	path := v.GetString("scenario")
	name := v.GetString("preset")
	if path != "" && name != "" {
		return nil, fmt.Errorf("--scenario and --preset are mutually exclusive")
	}

	var spec *scenario.ScenarioSpec
	var err error
	if path != "" {
		spec, err = scenario.Load(path)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("loaded scenario from %s", path)
	} else {
		if name == "" {
			name = defaultPreset
		}
		spec, err = scenario.Preset(name)
		if err != nil {
			return nil, err
		}
		logrus.Debugf("using preset %q", name)
	}

	if overridden(fs, "seed") {
		spec.Seed = v.GetInt64("seed")
	}
	if overridden(fs, "trials") {
		spec.Trials = v.GetInt("trials")
	}
	if overridden(fs, "steps") {
		spec.TimeSteps = v.GetInt("steps")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return spec, nil
}

// runOptions builds experiment options from settings.
func runOptions(v *viper.Viper) (experiment.Options, error) {
	level := v.GetString("trace")
	if !trace.IsValidTraceLevel(level) {
		return experiment.Options{}, fmt.Errorf("unknown trace level %q; valid: none, steps", level)
	}
	if v.GetString("trace-out") != "" {
		level = string(trace.TraceLevelSteps)
	}
	parallel := v.GetInt("parallel")
	if parallel < 1 {
		return experiment.Options{}, fmt.Errorf("--parallel must be at least 1, got %d", parallel)
	}
	return experiment.Options{
		Parallelism: parallel,
		Trace:       trace.TraceConfig{Level: trace.TraceLevel(level)},
	}, nil
}

// writeOutputs writes the optional result, plot and trace files.
func writeOutputs(res *experiment.Result, v *viper.Viper) error {
	if path := v.GetString("results"); path != "" {
		if err := writeFile(path, res.WriteYAML); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
		logrus.Infof("results written to %s", path)
	}
	if path := v.GetString("plot"); path != "" {
		if err := plot.Save(res, path, plot.Options{}); err != nil {
			return err
		}
		logrus.Infof("plot written to %s", path)
	}
	if path := v.GetString("trace-out"); path != "" && res.Trace != nil {
		if err := writeFile(path, res.Trace.WriteYAML); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
		logTraceSummary(trace.Summarize(res.Trace))
		logrus.Infof("trace written to %s (%d records)", path, len(res.Trace.Steps))
	}
	return nil
}

func logTraceSummary(s *trace.TraceSummary) {
	logrus.Infof("trace: %d records, %d/%d trials extinct", s.TotalRecords, s.ExtinctTrials, len(s.Trials))
	for _, ts := range s.Trials {
		logrus.Debugf("trial %d: peak %d at step %d, final %d, extinct at %d, resistant majority at %d",
			ts.Trial, ts.PeakTotal, ts.PeakStep, ts.FinalTotal, ts.ExtinctionStep, ts.ResistantMajorityStep)
	}
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command. An interrupt cancels remaining trials.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	addRunFlags(runCmd.Flags())

	// Attach subcommands to `root`
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(presetsCmd)
}
