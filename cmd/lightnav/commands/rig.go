package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/lightnav/internal/config"
	"github.com/teslashibe/lightnav/pkg/fixes"
	"github.com/teslashibe/lightnav/pkg/fixture"
	"github.com/teslashibe/lightnav/pkg/sensor"
	"github.com/teslashibe/lightnav/pkg/sim"
)

// rigOptions select between the real console/sensor rig and the simulator.
type rigOptions struct {
	sim    bool
	layout string
}

// rig bundles the collaborators a navigator needs.
type rig struct {
	console fixture.Controller
	feed    sensor.Feed
	gui     sensor.GUI
	store   fixes.Store
	logger  *slog.Logger
	close   []func() error
}

func (r *rig) Close() {
	for i := len(r.close) - 1; i >= 0; i-- {
		if err := r.close[i](); err != nil {
			r.logger.Error("failed to close rig resource", "error", err)
		}
	}
}

// openStore returns the Redis fix store when an address is configured,
// otherwise an in-memory store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (fixes.Store, func() error, error) {
	if cfg.Fixes.RedisAddr == "" {
		return fixes.NewMemoryStore(), func() error { return nil }, nil
	}
	store, err := fixes.DialRedis(ctx, cfg.Fixes.RedisAddr, cfg.Fixes.KeyPrefix)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("publishing fixes to redis", "addr", cfg.Fixes.RedisAddr, "prefix", cfg.Fixes.KeyPrefix)
	return store, store.Close, nil
}

// buildRig wires the store, console and sensor feed. For the real rig the
// websocket feed runs until ctx is done.
func buildRig(ctx context.Context, cfg *config.Config, opts rigOptions, logger *slog.Logger) (*rig, error) {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	r := &rig{store: store, logger: logger, close: []func() error{closeStore}}

	if opts.sim {
		layout := sim.DefaultLayout()
		if opts.layout != "" {
			if layout, err = sim.LoadLayout(opts.layout); err != nil {
				r.Close()
				return nil, err
			}
		}
		s := layout.Build(store)
		r.console, r.feed, r.gui = s, s, s
		logger.Info("using simulated rig", "fixtures", len(layout.Fixtures), "sensors", len(layout.Sensors))
		return r, nil
	}

	r.console = fixture.NewHTTPController(cfg.Console.URL, cfg.Console.Timeout, store)

	feed := sensor.NewWSFeed(cfg.Sensors.URL, cfg.Sensors.Reconnect, logger)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("sensor feed stopped", "error", err)
		}
	}()
	r.feed = feed
	return r, nil
}

// describe names the rig's endpoints for error messages.
func (o rigOptions) describe(cfg *config.Config) string {
	if o.sim {
		return "simulated rig"
	}
	return fmt.Sprintf("console %s, sensors %s", cfg.Console.URL, cfg.Sensors.URL)
}
