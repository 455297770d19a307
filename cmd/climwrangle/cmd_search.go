package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/pcmdi/climwrangle/internal/cache"
	"github.com/pcmdi/climwrangle/internal/esgf"
	"github.com/pcmdi/climwrangle/internal/projectconfig"
	"github.com/pcmdi/climwrangle/internal/spinner"
	"github.com/spf13/cobra"
)

var (
	searchNodeURL string
	searchNoCache bool
	searchAll     bool
	searchFormat  string
	searchParams  esgf.SearchParams

	searchExperiments []string
	searchVariables   []string
)

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Query the ESGF federated search index",
		Long: `Query the ESGF federated search index for model availability.

CMIP6 searches use the experiment_id, variable, table_id, source_id and
variant_label facets; CMIP5 and CMIP3 searches use experiment, variable,
cmor_table, model and ensemble.`,
	}

	cmd.PersistentFlags().StringVar(&searchNodeURL, "node", "", "Index node URL (default from config)")
	cmd.PersistentFlags().BoolVar(&searchNoCache, "no-cache", false, "Bypass the search response cache")
	cmd.PersistentFlags().BoolVar(&searchAll, "all-versions", false, "Include superseded dataset versions")

	cmd.AddCommand(newSearchModelsCommand())
	cmd.AddCommand(newSearchSetCommand())
	cmd.AddCommand(newSearchMembersCommand())

	return cmd
}

func addSearchParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&searchParams.MipEra, "era", "CMIP6", "MIP era: CMIP3, CMIP5 or CMIP6")
	f.StringVarP(&searchParams.Experiment, "experiment", "e", "", "Experiment (comma-separated for alternatives)")
	f.StringVarP(&searchParams.Variable, "variable", "V", "", "Variable (comma-separated for alternatives)")
	f.StringVar(&searchParams.Frequency, "frequency", "", "Output frequency, e.g. mon")
	f.StringVar(&searchParams.Table, "table", "", "CMOR table, e.g. Amon")
	f.StringVar(&searchParams.Model, "model", "", "Model / source id")
	f.StringVar(&searchParams.Member, "member", "", "Realization / member id")
}

func newSearchModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models with datasets matching the constraints",
		Example: `  climwrangle search models --era CMIP6 -e historical -V tas --frequency mon`,
		RunE: searchModelsE,
	}
	addSearchParamFlags(cmd)
	return cmd
}

func newSearchSetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "List models providing every experiment and variable combination",
		Example: `  climwrangle search set --era CMIP6 --experiments historical,ssp585 --variables tas,pr --frequency mon`,
		RunE: searchSetE,
	}
	cmd.Flags().StringVar(&searchParams.MipEra, "era", "CMIP6", "MIP era: CMIP3, CMIP5 or CMIP6")
	cmd.Flags().StringSliceVar(&searchExperiments, "experiments", nil, "Experiments that must all be present")
	cmd.Flags().StringSliceVar(&searchVariables, "variables", nil, "Variables that must all be present")
	cmd.Flags().StringVar(&searchParams.Frequency, "frequency", "", "Output frequency, e.g. mon")
	return cmd
}

func newSearchMembersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List available realizations per experiment, variable and model",
		Example: `  climwrangle search members --era CMIP6 -e historical,ssp585 -V tas --format json`,
		RunE: searchMembersE,
	}
	addSearchParamFlags(cmd)
	cmd.Flags().StringVarP(&searchFormat, "format", "f", "table", "Output format: table or json")
	return cmd
}

// newSearchClient builds an index client from config and search flags.
func newSearchClient(cfg *projectconfig.ProjectConfig) (*esgf.Client, error) {
	nodeURL := cfg.Search.NodeURL
	if searchNodeURL != "" {
		nodeURL = searchNodeURL
	}

	opts := []esgf.ClientOption{
		esgf.WithTimeout(time.Duration(cfg.Search.TimeoutSeconds) * time.Second),
		esgf.WithDistrib(cfg.Search.Distrib == nil || *cfg.Search.Distrib),
	}
	if cfg.Cache.Enabled != nil && *cfg.Cache.Enabled && !searchNoCache {
		dir, err := filepath.Abs(cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolving cache directory: %w", err)
		}
		opts = append(opts, esgf.WithCache(cache.New(dir, cache.DefaultTTL)))
	}
	return esgf.NewClient(nodeURL, opts...), nil
}

// resolveParams applies config defaults that the flags do not carry.
func resolveParams(cfg *projectconfig.ProjectConfig) esgf.SearchParams {
	p := searchParams
	latest := cfg.Search.Latest == nil || *cfg.Search.Latest
	if searchAll {
		latest = false
	}
	p.Latest = &latest
	return p
}

func searchModelsE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newSearchClient(cfg)
	if err != nil {
		return err
	}

	stop := spinner.Start(cmd.ErrOrStderr(), "Searching "+client.BaseURL())
	models, err := client.AvailableModels(cmd.Context(), resolveParams(cfg))
	stop()
	if err != nil {
		return err
	}

	for _, m := range models {
		fmt.Fprintln(cmd.OutOrStdout(), m) //nolint:errcheck
	}
	return nil
}

func searchSetE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newSearchClient(cfg)
	if err != nil {
		return err
	}

	stop := spinner.Start(cmd.ErrOrStderr(), "Searching "+client.BaseURL())
	models, err := client.ModelSet(cmd.Context(), resolveParams(cfg), searchExperiments, searchVariables)
	stop()
	if err != nil {
		return err
	}

	for _, m := range models {
		fmt.Fprintln(cmd.OutOrStdout(), m) //nolint:errcheck
	}
	return nil
}

func searchMembersE(cmd *cobra.Command, _ []string) error {
	if searchFormat != "table" && searchFormat != "json" {
		return fmt.Errorf("unsupported format %q: use table or json", searchFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newSearchClient(cfg)
	if err != nil {
		return err
	}

	stop := spinner.Start(cmd.ErrOrStderr(), "Searching "+client.BaseURL())
	members, err := client.MemberMap(cmd.Context(), resolveParams(cfg))
	stop()
	if err != nil {
		return err
	}

	if searchFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(members)
	}
	printMemberTable(cmd.OutOrStdout(), members)
	return nil
}

func printMemberTable(w io.Writer, members esgf.MemberMap) {
	headers := []string{"EXPERIMENT", "VARIABLE", "MODEL", "MEMBERS"}
	var rows [][]string
	for _, exp := range sortedKeys(members) {
		for _, variable := range sortedKeys(members[exp]) {
			for _, model := range members.Models(exp, variable) {
				list := members[exp][variable][model]
				rows = append(rows, []string{exp, variable, model, fmt.Sprintf("%d  %s", len(list), strings.Join(list, " "))})
			}
		}
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row[:len(row)-1] {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	printRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i == len(cells)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(padRight(cell, widths[i]+2))
		}
		fmt.Fprintln(w, b.String()) //nolint:errcheck
	}

	printRow(headers)
	for _, row := range rows {
		printRow(row)
	}
}

// padRight pads s with spaces to reach the given display width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
