package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/viral-sim/sim/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>...",
	Short: "Strictly parse and validate scenario files without running them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if failed := validateFiles(cmd.OutOrStdout(), args); failed > 0 {
			logrus.Fatalf("%d of %d scenario files invalid", failed, len(args))
		}
	},
}

// validateFiles checks each path and reports one line per file.
// Returns the number of files that failed.
func validateFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		if err := validateFile(path); err != nil {
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   %s\n", path)
	}
	return failed
}

func validateFile(path string) error {
	spec, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	if beyond := spec.Schedule().Beyond(spec.TimeSteps); len(beyond) > 0 {
		logrus.Warnf("%s: prescriptions at steps %v are at or past time_steps=%d and never apply", path, beyond, spec.TimeSteps)
	}
	return nil
}
