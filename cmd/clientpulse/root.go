package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"clientpulse/internal/config"
	"clientpulse/internal/infrastructure"
	"clientpulse/pkg/contracts"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configFile string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Customer segmentation and campaign analytics",
		Long:          `clientpulse clusters customers by purchase behaviour, evaluates campaign ROI and spend impact, and segments customers by lifetime value.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig()
		},
	}
	cmd.SetVersionTemplate(contracts.GetVersionString() + "\n")

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (default: config.yaml, configs/config.yaml or $CLIENTPULSE_CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newAnalyzeCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	o.cfg = cfg
	return nil
}

// logger builds a logger writing to console, which is stderr for the
// offline commands so reports can go to stdout.
func (o *rootOptions) logger(console io.Writer) (*slog.Logger, error) {
	logger, err := infrastructure.NewLogger(o.cfg.Logging, console)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// No config needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
		},
	}
}
