package main

import (
	"fmt"
	"strings"

	"github.com/pcmdi/climwrangle/internal/discovery"
	"github.com/spf13/cobra"
)

var (
	findNoTrim bool
	findMatch  string
)

func newFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find key=value [key=value...]",
		Short: "Find descriptor files by path template and trim them",
		Long: `Find descriptor files below the archive base by filling the path template

  {base}/{mip_era}/{activity}/{experiment}/{realm}/{frequency}/{variable}/*.{model}.{realization}.*.{grid_label}.*.xml

Any key left out matches anything. At least one key is required. Keys:
  ` + strings.Join(discovery.Keys, ", ") + `

The matches are trimmed to one file per model and realization unless
--no-trim is given.`,
		Example: `  climwrangle find mip_era=CMIP6 experiment=historical variable=tas frequency=mon
  climwrangle find experiment=historical variable=tas --match "CESM2*r1i1p1f1" --no-trim`,
		Args: cobra.MinimumNArgs(1),
		RunE: findCommandE,
	}

	addTrimFlags(cmd)
	cmd.Flags().BoolVar(&findNoTrim, "no-trim", false, "Print every match without selecting")
	cmd.Flags().StringVar(&findMatch, "match", "", "Keep only matches containing every '*'-separated fragment")

	return cmd
}

func findCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	values, err := parseKeyValues(args)
	if err != nil {
		return err
	}
	q, err := discovery.QueryFromMap(values)
	if err != nil {
		return err
	}
	// The configured base only applies once the user has constrained the search.
	if q.Base == "" && !q.Empty() {
		q.Base = cfg.Paths.Base
	}

	files, err := discovery.Find(q)
	if err != nil {
		return err
	}
	if findMatch != "" {
		files = discovery.FilterKeywords(findMatch, files)
	}
	if len(files) == 0 {
		return &NoSelectionError{Message: "no descriptor files matched " + q.Pattern()}
	}

	if findNoTrim {
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f) //nolint:errcheck
		}
		return nil
	}
	return runTrim(cmd.Context(), cmd, cfg, files)
}

// parseKeyValues turns key=value arguments into a map.
func parseKeyValues(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", arg)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return values, nil
}
