// Package commands implements the lightnav CLI.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/teslashibe/lightnav/internal/config"
	"github.com/teslashibe/lightnav/internal/log"
	"github.com/teslashibe/lightnav/pkg/correction"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the lightnav command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "lightnav",
		Short: "lightnav - aim moving-head fixtures at photo-sensors",
		Long: `lightnav calibrates moving-head lighting fixtures against photo-sensors
placed on stage. Each fixture is lit alone and rastered across its pan/tilt
envelope; the strongest reading of every sensor is corrected for scan
overshoot and published as that fixture's aim for the sensor.`,
		// Prevent silent success when unknown flags are passed to root command
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to lightnav.yml (defaults built in)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides config)")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newCorrectCmd(opts),
		newFitCmd(opts),
		newReportCmd(opts),
	)
	return root
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(root *cobra.Command, v, c, d string) {
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return log.NewWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
}

// modelOf returns the configured overshoot model.
func modelOf(cfg *config.Config) correction.Model {
	return correction.Model{K1: cfg.Correction.K1, K2: cfg.Correction.K2, K3: cfg.Correction.K3}
}
