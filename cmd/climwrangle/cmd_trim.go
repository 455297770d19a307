package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pcmdi/climwrangle/internal/cdml"
	"github.com/pcmdi/climwrangle/internal/discovery"
	"github.com/pcmdi/climwrangle/internal/models"
	"github.com/pcmdi/climwrangle/internal/projectconfig"
	"github.com/pcmdi/climwrangle/internal/selection"
	"github.com/spf13/cobra"
)

var (
	trimDir           string
	trimCriteria      []string
	trimWorkers       int
	trimOnError       string
	trimPublishMarker string
	trimVerbose       bool
)

func newTrimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim [identifier...]",
		Short: "Select one descriptor file per model and realization",
		Long: `Select one canonical descriptor file per (model, realization) pair.

Identifiers are read from the arguments, from every *.xml and *.xml.gz file
below --dir, or one per line from stdin when the only argument is "-".

Candidates in each group are narrowed by each criterion in turn:
  cdate    latest creation date
  ver      highest version weight (latest < dated versions < v1, v2, ...)
  tpoints  most time samples
  publish  published datasets only (may leave a group empty)

Remaining ties resolve to the lexicographically smallest identifier.`,
		RunE: trimCommandE,
	}

	addTrimFlags(cmd)
	cmd.Flags().StringVar(&trimDir, "dir", "", "Directory to scan for descriptor files")

	return cmd
}

// addTrimFlags registers the reduction flags shared by trim and find.
func addTrimFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&trimCriteria, "criteria", nil, "Comma-separated criteria order (default from config: cdate,ver,tpoints)")
	cmd.Flags().IntVarP(&trimWorkers, "workers", "w", projectconfig.DefaultWorkers, "Maximum concurrent metadata extractions")
	cmd.Flags().StringVar(&trimOnError, "on-error", projectconfig.DefaultOnError, "Unreadable or malformed descriptor policy: abort or skip")
	cmd.Flags().StringVar(&trimPublishMarker, "publish-marker", projectconfig.DefaultPublishMarker, "Directory substring marking a published dataset")
	cmd.Flags().BoolVarP(&trimVerbose, "verbose", "v", false, "Print the per-group selection trace to stderr")
}

func trimCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ids, err := collectIdentifiers(cmd.InOrStdin(), args, trimDir)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no identifiers given: pass paths, --dir, or - to read stdin")
	}

	return runTrim(cmd.Context(), cmd, cfg, ids)
}

func collectIdentifiers(stdin io.Reader, args []string, dir string) ([]string, error) {
	var ids []string

	if len(args) == 1 && args[0] == "-" {
		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				ids = append(ids, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading identifiers from stdin: %w", err)
		}
	} else {
		ids = append(ids, args...)
	}

	if dir != "" {
		found, err := discovery.Walk(dir)
		if err != nil {
			return nil, err
		}
		ids = append(ids, found...)
	}
	return ids, nil
}

// applyTrimFlags overlays explicitly set flags onto cfg.
func applyTrimFlags(cmd *cobra.Command, cfg *projectconfig.ProjectConfig) error {
	flags := cmd.Flags()
	if flags.Changed("criteria") {
		cfg.Trim.Criteria = trimCriteria
	}
	if flags.Changed("workers") {
		cfg.Trim.Workers = trimWorkers
	}
	if flags.Changed("on-error") {
		cfg.Trim.OnError = trimOnError
	}
	if flags.Changed("publish-marker") {
		cfg.Trim.PublishMarker = trimPublishMarker
	}
	if flags.Changed("verbose") {
		cfg.Trim.Verbose = &trimVerbose
	}
	return cfg.Validate()
}

func runTrim(ctx context.Context, cmd *cobra.Command, cfg *projectconfig.ProjectConfig, ids []string) error {
	if err := applyTrimFlags(cmd, cfg); err != nil {
		return err
	}

	criteria, err := cfg.CriteriaList()
	if err != nil {
		return err
	}
	verbose := cfg.Trim.Verbose != nil && *cfg.Trim.Verbose

	trimmer := selection.NewTrimmer(
		cdml.NewReader(cdml.WithPublishMarker(cfg.Trim.PublishMarker)),
		selection.WithCriteria(criteria...),
		selection.WithWorkers(cfg.Trim.Workers),
		selection.WithVerbose(verbose),
		selection.WithSkipOnError(cfg.SkipOnError()),
	)

	res, err := trimmer.Trim(ctx, ids)
	if err != nil {
		if id := models.IdentifierOf(err); id != "" {
			return fmt.Errorf("%w\nrerun with --on-error skip to leave out %s", err, id)
		}
		return err
	}

	if verbose {
		if err := selection.WriteTrace(cmd.ErrOrStderr(), res.Trace); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, id := range res.Selected {
		fmt.Fprintln(out, id) //nolint:errcheck
	}

	if len(res.Selected) == 0 {
		return &NoSelectionError{Message: fmt.Sprintf("no descriptor selected from %d identifier(s) using %s (%d skipped)",
			len(ids), joinCriteria(criteria), len(res.Skipped))}
	}
	return nil
}

func joinCriteria(criteria []models.Criterion) string {
	names := make([]string, len(criteria))
	for i, c := range criteria {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}
