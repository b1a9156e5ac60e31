package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/lightnav/internal/printer"
)

type correctOptions struct {
	pan       float64
	tilt      float64
	direction int
}

func newCorrectCmd(root *rootOptions) *cobra.Command {
	opts := &correctOptions{}
	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Remove scan overshoot from one raw reading",
		Long: `Apply the overshoot model (the correction section of the config) to one
best-fit reading taken while scanning in the given direction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.direction != 1 && opts.direction != -1 {
				return printer.Error(cmd.ErrOrStderr(), "invalid direction",
					fmt.Sprintf("--direction must be 1 or -1, got %d", opts.direction))
			}
			cfg, err := root.load()
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error())
			}

			m := modelOf(cfg)
			out := cmd.OutOrStdout()
			printer.Info(out, "overshoot: %.6f", m.Overshoot(opts.pan, opts.tilt, opts.direction))
			printer.Success(out, "corrected pan: %.6f", m.CorrectedPan(opts.pan, opts.tilt, opts.direction))
			return nil
		},
	}
	cmd.Flags().Float64Var(&opts.pan, "pan", 0, "Raw best-fit pan (degrees)")
	cmd.Flags().Float64Var(&opts.tilt, "tilt", 0, "Tilt of the reading (degrees)")
	cmd.Flags().IntVar(&opts.direction, "direction", 1, "Scan direction: 1 or -1")
	return cmd
}
