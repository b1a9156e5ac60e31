package commands

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/lightnav/internal/printer"
	"github.com/teslashibe/lightnav/pkg/navigator"
	"github.com/teslashibe/lightnav/pkg/web"
)

var errRunInProgress = errors.New("a calibration run is already in progress")

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &rigOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and start runs on demand",
		Long: `Serve the dashboard API on web.addr. Each POST /api/run starts a new
calibration; only one runs at a time. Status and raster progress stream on
/ws/status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, root, *opts)
		},
	}
	cmd.Flags().BoolVar(&opts.sim, "sim", false, "Calibrate a simulated rig")
	cmd.Flags().StringVar(&opts.layout, "layout", "", "Simulated rig layout (YAML); requires --sim")
	return cmd
}

// runner starts at most one navigator run at a time.
type runner struct {
	ctx    context.Context
	srv    *web.Server
	r      *rig
	config navigator.Config
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func (rn *runner) start() error {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	if rn.running {
		return errRunInProgress
	}

	n, err := navigator.New(rn.config, rn.r.console, rn.r.feed, rn.logger)
	if err != nil {
		return err
	}
	if rn.r.gui != nil {
		n.SetGUI(rn.r.gui)
	}
	rn.srv.Attach(n)
	rn.running = true

	rn.wg.Add(1)
	go func() {
		defer rn.wg.Done()
		status, err := n.Run(rn.ctx, 0)
		if err != nil {
			rn.logger.Warn("run interrupted", "run", n.RunID(), "error", err)
		} else {
			rn.logger.Info("run finished", "run", n.RunID(), "phase", status.Phase, "fixes", len(n.Fixes()))
		}

		rn.mu.Lock()
		rn.running = false
		rn.mu.Unlock()
	}()
	return nil
}

func serve(cmd *cobra.Command, root *rootOptions, opts rigOptions) error {
	cfg, err := root.load()
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error())
	}
	logger := newLogger(cmd, cfg)

	navCfg, err := navigator.FromFile(cfg)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "invalid configuration", err.Error())
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r, err := buildRig(ctx, cfg, opts, logger)
	if err != nil {
		return printer.Error(cmd.ErrOrStderr(), "failed to set up rig", err.Error())
	}
	defer r.Close()

	srv := web.NewServer(cfg.Web.Addr, r.store, r.feed, r.gui, logger)
	rn := &runner{ctx: ctx, srv: srv, r: r, config: navCfg, logger: logger}
	srv.OnRun = rn.start

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	printer.Info(cmd.OutOrStdout(), "Dashboard: http://localhost%s (%s)", cfg.Web.Addr, opts.describe(cfg))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return printer.Error(cmd.ErrOrStderr(), "dashboard stopped", err.Error(), "check web.addr is free")
		}
	}

	srv.Shutdown()
	rn.wg.Wait()
	printer.Success(cmd.OutOrStdout(), "shut down")
	return nil
}
