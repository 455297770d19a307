// Package selection picks one canonical descriptor file per model and
// realization using a cascade of metadata criteria.
package selection

//go:generate go tool mockgen -destination=mocks_test.go -package=selection . MetadataExtractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/pcmdi/climwrangle/internal/ident"
	"github.com/pcmdi/climwrangle/internal/models"
	"github.com/pcmdi/climwrangle/internal/version"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent metadata extraction.
const DefaultWorkers = 4

// MetadataExtractor reads selection metadata for one identifier.
type MetadataExtractor interface {
	Extract(ctx context.Context, id string) (models.Metadata, error)
}

// Trimmer reduces a list of descriptor identifiers to one per group.
type Trimmer struct {
	extractor MetadataExtractor
	criteria  []models.Criterion
	workers   int
	verbose   bool
	skipBad   bool
}

// TrimmerOption configures a Trimmer.
type TrimmerOption func(*Trimmer)

// WithCriteria sets the cascade order. An empty list keeps the default.
func WithCriteria(criteria ...models.Criterion) TrimmerOption {
	return func(t *Trimmer) {
		if len(criteria) > 0 {
			t.criteria = criteria
		}
	}
}

// WithWorkers bounds the number of concurrent metadata extractions.
func WithWorkers(n int) TrimmerOption {
	return func(t *Trimmer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithVerbose makes Trim fill Result.Trace.
func WithVerbose(verbose bool) TrimmerOption {
	return func(t *Trimmer) {
		t.verbose = verbose
	}
}

// WithSkipOnError switches from fail-fast to skip-and-warn: identifiers that
// are malformed, carry an invalid version label or cannot be read are left
// out and reported in Result.Skipped.
func WithSkipOnError(skip bool) TrimmerOption {
	return func(t *Trimmer) {
		t.skipBad = skip
	}
}

// NewTrimmer creates a Trimmer reading metadata through extractor.
func NewTrimmer(extractor MetadataExtractor, opts ...TrimmerOption) *Trimmer {
	t := &Trimmer{
		extractor: extractor,
		criteria:  models.DefaultCriteria,
		workers:   DefaultWorkers,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Criteria returns the cascade in use.
func (t *Trimmer) Criteria() []models.Criterion {
	return t.criteria
}

// SkippedIdentifier is an identifier left out under the skip policy.
type SkippedIdentifier struct {
	ID  string
	Err error
}

// Result is the outcome of Trim.
type Result struct {
	Selected []string
	// Trace is only filled when the Trimmer is verbose.
	Trace   []GroupOutcome
	Skipped []SkippedIdentifier
}

// Trim builds a record for every identifier and reduces them. Duplicate
// identifiers are collapsed. Records are built fresh on every call.
//
// If ctx is cancelled before all records are built, Trim stops scheduling
// extractions and returns an error wrapping models.ErrCancelled.
func (t *Trimmer) Trim(ctx context.Context, ids []string) (*Result, error) {
	ids = uniqueSorted(ids)

	records, skipped, err := t.buildRecords(ctx, ids)
	if err != nil {
		return nil, err
	}

	red := Reduce(records, t.criteria)
	slog.Debug("Reduced descriptor set", "identifiers", len(ids), "groups", len(red.Groups), "selected", len(red.Selected))

	res := &Result{Selected: red.Selected, Skipped: skipped}
	if t.verbose {
		res.Trace = red.Groups
	}
	return res, nil
}

func (t *Trimmer) buildRecords(ctx context.Context, ids []string) ([]models.Record, []SkippedIdentifier, error) {
	type slot struct {
		rec models.Record
		err error
		ok  bool
	}
	slots := make([]slot, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)

	for i, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := t.buildRecord(gctx, id)
			if err != nil {
				if t.skipBad && isRecordError(err) {
					slots[i].err = err
					return nil
				}
				return err
			}
			slots[i] = slot{rec: rec, ok: true}
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrCancelled, ctxErr)
	}
	if err != nil {
		return nil, nil, err
	}

	records := make([]models.Record, 0, len(ids))
	var skipped []SkippedIdentifier
	for i, s := range slots {
		switch {
		case s.ok:
			records = append(records, s.rec)
		case s.err != nil:
			slog.Warn("Skipping descriptor", "id", ids[i], "error", s.err)
			skipped = append(skipped, SkippedIdentifier{ID: ids[i], Err: s.err})
		}
	}
	return records, skipped, nil
}

func (t *Trimmer) buildRecord(ctx context.Context, id string) (models.Record, error) {
	name, err := ident.Parse(id)
	if err != nil {
		return models.Record{}, err
	}

	weight, err := version.Weight(name.Version)
	if err != nil {
		var formatErr *models.FormatError
		if errors.As(err, &formatErr) {
			formatErr.ID = id
			return models.Record{}, formatErr
		}
		return models.Record{}, fmt.Errorf("identifier %q: %w", id, err)
	}

	meta, err := t.extractor.Extract(ctx, id)
	if err != nil {
		return models.Record{}, err
	}

	slog.Debug("Built descriptor record",
		"id", id,
		"model", name.Model,
		"realization", name.Realization,
		"version", weight,
		"cdate", meta.CreationDate,
		"publish", meta.Published,
		"tpoints", meta.SampleCount)

	return models.NewRecord(id, name.Model, name.Realization, weight, meta), nil
}

func isRecordError(err error) bool {
	var (
		malformed  *models.MalformedIdentifierError
		format     *models.FormatError
		unreadable *models.UnreadableSourceError
	)
	return errors.As(err, &malformed) || errors.As(err, &format) || errors.As(err, &unreadable)
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
