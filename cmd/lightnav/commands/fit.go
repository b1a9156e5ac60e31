package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/lightnav/internal/printer"
	"github.com/teslashibe/lightnav/pkg/correction"
)

func newFitCmd(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fit SAMPLES.yml",
		Short: "Refit the overshoot model from measured samples",
		Long: `Estimate k1..k3 by least squares from readings whose true pan is known.
The samples file is a YAML list:

  - {pan: 34, tilt: 10, direction: 1, true_pan: 20}
  - {pan: 7, tilt: 9, direction: -1, true_pan: 20}

The result is printed as a correction section ready for lightnav.yml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "failed to read samples", err.Error())
			}
			var samples []correction.Sample
			if err := yaml.Unmarshal(data, &samples); err != nil {
				return printer.Error(cmd.ErrOrStderr(), "failed to parse samples", err.Error())
			}

			m, err := correction.Fit(samples)
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "fit failed", err.Error(),
					"provide at least 3 samples at different tilts")
			}

			out, err := yaml.Marshal(map[string]map[string]float64{
				"correction": {"k1": m.K1, "k2": m.K2, "k3": m.K3},
			})
			if err != nil {
				return fmt.Errorf("failed to encode model: %w", err)
			}
			printer.Success(cmd.OutOrStdout(), "fitted %d samples", len(samples))
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
