package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bbdeals/wacrm/internal/config"
	"github.com/bbdeals/wacrm/internal/logger"
	"github.com/bbdeals/wacrm/internal/version"
)

type rootOptions struct {
	configPath string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "crm",
		Short:         "WhatsApp webhook ingestion and conversation CRM",
		Version:       version.GetInfo(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "path to the TOML config file")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newTokenCommand(opts),
	)
	return cmd
}

func defaultConfigPath() string {
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		return path
	}
	return config.DefaultConfigPath
}

// load reads the config and initializes the global logger from it.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
