package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"go.domaincheck.dev/checker/internal/config"
	"go.domaincheck.dev/checker/internal/logging"
)

// globalOpts holds the flags shared by every subcommand: where the
// config file lives, and how verbose/pretty logging should be.
type globalOpts struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	var opt globalOpts

	cmd := &cobra.Command{
		Use:   "domaincheck",
		Short: "Check whether domains are registered or available",
		Long: `domaincheck checks domain availability over RDAP (structured)
and WHOIS (textual), with bootstrap endpoint discovery, bounded
concurrency, and retry with backoff.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pretty") {
				if v, ok := os.LookupEnv("DC_PRETTY"); ok {
					opt.pretty = strings.EqualFold(v, "true") || v == "1"
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opt.configPath, "config", "c", "", "path to a TOML configuration file")
	cmd.PersistentFlags().StringVar(&opt.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&opt.pretty, "pretty", false, "use human-readable console logging instead of JSON")

	cmd.AddCommand(newCheckCmd(&opt))
	cmd.AddCommand(newServeCmd(&opt))

	return cmd
}

// loadConfig builds a Configuration from the config file (if any),
// overlaid with DC_* environment variables, then applies defaults.
func (o *globalOpts) loadConfig() (config.Configuration, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	cfg = config.ApplyEnv(cfg, config.OSEnvLookup)
	cfg.SetDefaults()
	return cfg, nil
}

func (o *globalOpts) newLogger() (logr.Logger, error) {
	log, err := logging.New(o.pretty, o.logLevel)
	if err != nil {
		return logr.Logger{}, fmt.Errorf("building logger: %w", err)
	}
	return log, nil
}
