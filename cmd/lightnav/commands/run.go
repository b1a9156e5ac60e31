package commands

import (
	"context"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/lightnav/internal/printer"
	"github.com/teslashibe/lightnav/pkg/navigator"
	"github.com/teslashibe/lightnav/pkg/web"
)

type runOptions struct {
	rig      rigOptions
	serve    bool
	interval time.Duration
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Calibrate every patched fixture once",
		Long: `Run one calibration: home and darken every fixture, then light each one
alone, raster its pan/tilt envelope and publish a corrected aim per sensor.

The observation history is written to history.path (sensor_history.json by
default). Fixes go to Redis when fixes.redis_addr is set.

Use --sim to calibrate a simulated rig instead of the console, and --serve to
watch progress on the dashboard while the run is in progress.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibration(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.rig.sim, "sim", false, "Calibrate a simulated rig")
	cmd.Flags().StringVar(&opts.rig.layout, "layout", "", "Simulated rig layout (YAML); requires --sim")
	cmd.Flags().BoolVar(&opts.serve, "serve", false, "Serve the dashboard during the run")
	cmd.Flags().DurationVar(&opts.interval, "interval", 0, "Pause between phases")
	return cmd
}

func runCalibration(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	out := cmd.OutOrStdout()
	cfg, err := root.load()
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error(),
			"fix the file passed with --config", "run without --config to use the defaults")
	}
	logger := newLogger(cmd, cfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	navCfg, err := navigator.FromFile(cfg)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error())
	}

	r, err := buildRig(ctx, cfg, opts.rig, logger)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "failed to set up rig", err.Error(),
			"check fixes.redis_addr", "check the --layout file")
	}
	defer r.Close()

	n, err := navigator.New(navCfg, r.console, r.feed, logger)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "failed to create navigator", err.Error())
	}
	if r.gui != nil {
		n.SetGUI(r.gui)
	}

	if opts.serve {
		srv := web.NewServer(cfg.Web.Addr, r.store, r.feed, r.gui, logger)
		srv.Attach(n)
		srv.StartAsync()
		defer srv.Shutdown()
		printer.Info(out, "Dashboard: http://localhost%s", cfg.Web.Addr)
	}

	printer.Info(out, "Calibrating (%s), run %s", opts.rig.describe(cfg), n.RunID())
	status, err := n.Run(ctx, opts.interval)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "calibration interrupted", err.Error())
	}

	report(out, n, cfg.History.Path)

	if status.Phase != navigator.PhaseFailed.String() {
		printer.Success(out, "calibration %s", status.Phase)
		return nil
	}
	if ctx.Err() != nil {
		return printer.Error(cmd.ErrOrStderr(), "calibration interrupted", context.Cause(ctx).Error())
	}
	return printer.Error(cmd.ErrOrStderr(), "calibration FAILED",
		"at least one fixture's scan ended without reaching the threshold",
		"lower strategy.threshold", "use strategy.mode: full_scan")
}

// report prints the fixes published by n.
func report(out io.Writer, n *navigator.Navigator, historyPath string) {
	list := n.Fixes()
	printer.Header(out, "Fixes")
	printer.Fixes(out, list)
	if historyPath != "" {
		printer.Info(out, "History written to %s", historyPath)
	}
}
