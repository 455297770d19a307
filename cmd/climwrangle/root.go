package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pcmdi/climwrangle/internal/projectconfig"
	"github.com/spf13/cobra"
)

var version = "dev"

// configPath is set by the persistent --config flag.
var configPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "climwrangle",
		Short: "climwrangle - select canonical climate model descriptor files",
		Long: `climwrangle selects one canonical CDML descriptor file per model and
realization from a local archive, using a cascade of metadata tie-break rules.

It can also locate descriptor files by path template, query the ESGF federated
search index and build dataset citations from file tracking ids.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: search for "+projectconfig.FileName+" upward)")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newTrimCommand())
	cmd.AddCommand(newFindCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newCiteCommand())
	cmd.AddCommand(newCacheCommand())
	cmd.AddCommand(newConfigCommand())

	return cmd
}

// loadConfig returns the project configuration, honouring --config.
func loadConfig() (*projectconfig.ProjectConfig, error) {
	if configPath != "" {
		return projectconfig.LoadFile(configPath)
	}
	return projectconfig.Load(".")
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}
