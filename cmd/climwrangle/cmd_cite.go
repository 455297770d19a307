package main

import (
	"fmt"

	"github.com/pcmdi/climwrangle/internal/citation"
	"github.com/pcmdi/climwrangle/internal/spinner"
	"github.com/spf13/cobra"
)

func newCiteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cite <tracking-id> [tracking-id...]",
		Short: "Print dataset citations for file tracking ids",
		Long: `Resolve each file tracking id through the ESGF index and print a text
citation for the dataset it belongs to.`,
		Example: `  climwrangle cite hdl:21.14100/a360be6a-895f-4631-8db4-d07b50bd21b4`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    citeCommandE,
	}

	cmd.Flags().StringVar(&searchNodeURL, "node", "", "Index node URL (default from config)")
	cmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "Bypass the search response cache")

	return cmd
}

func citeCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newSearchClient(cfg)
	if err != nil {
		return err
	}

	for _, trackingID := range args {
		stop := spinner.Start(cmd.ErrOrStderr(), "Resolving "+trackingID)
		text, err := citation.Lookup(cmd.Context(), client, trackingID)
		stop()
		if err != nil {
			return fmt.Errorf("citing %s: %w", trackingID, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text) //nolint:errcheck
	}
	return nil
}
