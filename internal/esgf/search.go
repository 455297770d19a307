package esgf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Supported MIP eras.
var eras = []string{"CMIP3", "CMIP5", "CMIP6"}

// facetNames maps search concepts onto the index field names of one era.
type facetNames struct {
	Experiment string
	Variable   string
	Frequency  string
	Table      string
	Model      string
	Member     string
}

var (
	// variant_label is the bare realization; member_id carries a
	// sub-experiment prefix (s1960-r1i1p1f1) for DCPP-style runs.
	cmip6Facets = facetNames{
		Experiment: "experiment_id",
		Variable:   "variable",
		Frequency:  "frequency",
		Table:      "table_id",
		Model:      "source_id",
		Member:     "variant_label",
	}
	legacyFacets = facetNames{
		Experiment: "experiment",
		Variable:   "variable",
		Frequency:  "time_frequency",
		Table:      "cmor_table",
		Model:      "model",
		Member:     "ensemble",
	}
)

func facetsFor(era string) facetNames {
	if strings.EqualFold(era, "CMIP6") {
		return cmip6Facets
	}
	return legacyFacets
}

// SearchParams constrains a dataset search. Comma-separated values are sent as
// alternatives for the same facet.
type SearchParams struct {
	MipEra     string
	Experiment string
	Variable   string
	Frequency  string
	Table      string
	Model      string
	Member     string

	// Latest restricts results to the latest dataset versions. Nil means true.
	Latest *bool
}

// Validate checks that the mandatory facets are present.
func (p SearchParams) Validate() error {
	var errs []error
	if !slices.Contains(eras, strings.ToUpper(p.MipEra)) {
		errs = append(errs, fmt.Errorf("mip era must be one of %s, got %q", strings.Join(eras, ", "), p.MipEra))
	}
	if strings.TrimSpace(p.Experiment) == "" {
		errs = append(errs, errors.New("experiment is required"))
	}
	if strings.TrimSpace(p.Variable) == "" {
		errs = append(errs, errors.New("variable is required"))
	}
	return errors.Join(errs...)
}

func (p SearchParams) values() url.Values {
	f := facetsFor(p.MipEra)
	v := url.Values{}
	v.Set("project", strings.ToUpper(p.MipEra))
	v.Set("type", "Dataset")

	latest := true
	if p.Latest != nil {
		latest = *p.Latest
	}
	v.Set("latest", strconv.FormatBool(latest))

	addFacet(v, f.Experiment, p.Experiment)
	addFacet(v, f.Variable, p.Variable)
	addFacet(v, f.Frequency, p.Frequency)
	addFacet(v, f.Table, p.Table)
	addFacet(v, f.Model, p.Model)
	addFacet(v, f.Member, p.Member)
	return v
}

func addFacet(v url.Values, name, value string) {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			v.Add(name, part)
		}
	}
}

// searchResponse is the subset of the solr+json payload the client reads.
type searchResponse struct {
	Response struct {
		NumFound int              `json:"numFound"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
	FacetCounts struct {
		FacetFields map[string][]any `json:"facet_fields"`
	} `json:"facet_counts"`
}

// AvailableModels returns the sorted names of models holding datasets that
// match p.
func (c *Client) AvailableModels(ctx context.Context, p SearchParams) ([]string, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	facet := facetsFor(p.MipEra).Model
	v := p.values()
	v.Set("facets", facet)
	v.Set("limit", "0")

	var resp searchResponse
	if err := c.search(ctx, v, &resp); err != nil {
		return nil, err
	}

	// facet_fields alternates value and count: ["CESM2", 12, "CanESM5", 3]
	counts := resp.FacetCounts.FacetFields[facet]
	models := make([]string, 0, len(counts)/2)
	for i := 0; i+1 < len(counts); i += 2 {
		name, ok := counts[i].(string)
		if !ok || name == "" {
			continue
		}
		if n, ok := counts[i+1].(float64); ok && n <= 0 {
			continue
		}
		models = append(models, name)
	}
	slices.Sort(models)
	return slices.Compact(models), nil
}

// ModelSet returns the models that hold data for every experiment and
// variable pair. The remaining constraints, including Latest, come from base.
func (c *Client) ModelSet(ctx context.Context, base SearchParams, experiments, variables []string) ([]string, error) {
	if len(experiments) == 0 || len(variables) == 0 {
		return nil, errors.New("at least one experiment and one variable are required")
	}

	var common []string
	first := true
	for _, exp := range experiments {
		for _, variable := range variables {
			p := base
			p.Experiment = exp
			p.Variable = variable

			available, err := c.AvailableModels(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", exp, variable, err)
			}
			if first {
				common = available
				first = false
				continue
			}
			common = slices.DeleteFunc(common, func(m string) bool {
				_, found := slices.BinarySearch(available, m)
				return !found
			})
		}
	}

	slog.Debug("Model set resolved", "era", base.MipEra, "models", len(common))
	return common, nil
}

// MemberMap nests experiment, variable and model down to sorted, unique
// realization labels.
type MemberMap map[string]map[string]map[string][]string

// Models returns the sorted models listed for an experiment and variable.
func (m MemberMap) Models(experiment, variable string) []string {
	byModel := m[experiment][variable]
	models := make([]string, 0, len(byModel))
	for model := range byModel {
		models = append(models, model)
	}
	slices.Sort(models)
	return models
}

func (m MemberMap) add(experiment, variable, model, member string) {
	if m[experiment] == nil {
		m[experiment] = map[string]map[string][]string{}
	}
	if m[experiment][variable] == nil {
		m[experiment][variable] = map[string][]string{}
	}
	m[experiment][variable][model] = append(m[experiment][variable][model], member)
}

// MemberMap pages through every dataset matching p and groups the available
// realizations.
func (c *Client) MemberMap(ctx context.Context, p SearchParams) (MemberMap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := facetsFor(p.MipEra)
	v := p.values()
	v.Set("fields", strings.Join([]string{f.Experiment, f.Variable, f.Model, f.Member}, ","))
	v.Set("limit", strconv.Itoa(PageSize))

	members := MemberMap{}
	for offset := 0; ; {
		v.Set("offset", strconv.Itoa(offset))

		var resp searchResponse
		if err := c.search(ctx, v, &resp); err != nil {
			return nil, err
		}

		for _, doc := range resp.Response.Docs {
			for _, exp := range docStrings(doc, f.Experiment) {
				for _, variable := range docStrings(doc, f.Variable) {
					for _, model := range docStrings(doc, f.Model) {
						for _, member := range docStrings(doc, f.Member) {
							members.add(exp, variable, model, member)
						}
					}
				}
			}
		}

		offset += len(resp.Response.Docs)
		if len(resp.Response.Docs) == 0 || offset >= resp.Response.NumFound {
			break
		}
	}

	for _, byVar := range members {
		for _, byModel := range byVar {
			for model, list := range byModel {
				slices.Sort(list)
				byModel[model] = slices.Compact(list)
			}
		}
	}
	return members, nil
}

// FileRecord locates a single file in the federation.
type FileRecord struct {
	TrackingID  string
	DatasetID   string
	CitationURL string
}

// DatasetVersion returns the version digits of the parent dataset, e.g.
// "20190308" for "CMIP6.CMIP.NCAR.CESM2.historical.r1i1p1f1.Amon.tas.gn.v20190308|esgf-data.ucar.edu".
func (r *FileRecord) DatasetVersion() string {
	id, _, _ := strings.Cut(r.DatasetID, "|")
	last := id[strings.LastIndex(id, ".")+1:]
	return strings.TrimPrefix(last, "v")
}

// FindFile looks up a file by its tracking id.
func (c *Client) FindFile(ctx context.Context, trackingID string) (*FileRecord, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, errors.New("tracking id is required")
	}

	v := url.Values{}
	v.Set("type", "File")
	v.Set("tracking_id", trackingID)
	v.Set("fields", "dataset_id,citation_url,tracking_id")
	v.Set("limit", "1")

	var resp searchResponse
	if err := c.search(ctx, v, &resp); err != nil {
		return nil, err
	}
	if len(resp.Response.Docs) == 0 {
		return nil, fmt.Errorf("tracking id %s: %w", trackingID, ErrNotFound)
	}

	doc := resp.Response.Docs[0]
	rec := &FileRecord{TrackingID: trackingID}
	if ids := docStrings(doc, "dataset_id"); len(ids) > 0 {
		rec.DatasetID = ids[0]
	}
	if urls := docStrings(doc, "citation_url"); len(urls) > 0 {
		rec.CitationURL = urls[0]
	}
	return rec, nil
}

// docStrings reads a field that the index may return as a scalar or a list.
func docStrings(doc map[string]any, field string) []string {
	switch v := doc[field].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
