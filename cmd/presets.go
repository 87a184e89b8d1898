package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/viral-sim/sim/scenario"
)

var presetsShow string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in scenarios, or print one as YAML with --show",
	Run: func(cmd *cobra.Command, args []string) {
		if presetsShow != "" {
			if err := showPreset(cmd.OutOrStdout(), presetsShow); err != nil {
				logrus.Fatalf("%v", err)
			}
			return
		}
		listPresets(cmd.OutOrStdout())
	},
}

func listPresets(w io.Writer) {
	for _, name := range scenario.PresetNames() {
		_, _ = fmt.Fprintf(w, "%-20s %s\n", name, scenario.PresetDescription(name))
	}
}

// showPreset writes the named preset as a scenario file that `run --scenario`
// accepts.
func showPreset(w io.Writer, name string) error {
	spec, err := scenario.Preset(name)
	if err != nil {
		return err
	}
	data, err := spec.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func init() {
	presetsCmd.Flags().StringVar(&presetsShow, "show", "", "Print the named preset as scenario YAML")
}
