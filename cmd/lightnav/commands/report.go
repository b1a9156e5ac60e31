package commands

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/lightnav/internal/printer"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/history"
	"github.com/teslashibe/lightnav/pkg/navigator"
)

func newReportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report [HISTORY]",
		Short: "Reduce a saved observation history to fixes",
		Long: `Read a sensor_history.json written by a run (history.path by default) and
print each sensor's strongest observation per fixture, corrected with the
configured overshoot model. Sensors that never reported are listed as missing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error())
			}
			path := cfg.History.Path
			if len(args) == 1 {
				path = args[0]
			}

			h, err := history.Load(path)
			if err != nil {
				return printer.Error(cmd.ErrOrStderr(), "failed to load history", err.Error(),
					"run `lightnav run` first", "pass the history file as an argument")
			}

			m := modelOf(cfg)
			out := cmd.OutOrStdout()
			printer.Header(out, "Fixes from %s", path)

			var list []fixes.Fix
			var missing []string
			for _, ch := range h.Channels() {
				found, miss := h.Best(ch)
				for _, b := range found {
					list = append(list, navigator.FixFor(b, m))
				}
				for _, id := range miss {
					missing = append(missing, id)
					printer.Warning(out, "channel %d: sensor %s has no observations", ch, id)
				}
			}
			printer.Fixes(out, list)

			if len(missing) == 0 && len(list) > 0 {
				printer.Success(out, "%d fixes", len(list))
			}
			return nil
		},
	}
}
