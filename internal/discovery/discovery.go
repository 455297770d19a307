// Package discovery finds descriptor files on disk, either by expanding the
// archive's directory template or by walking a tree.
package discovery

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pcmdi/climwrangle/internal/models"
)

// DefaultBase is the root of the xclim archive.
const DefaultBase = "/p/user_pub/xclim/"

const wildcard = "*"

// Keys lists the accepted query keys, in template order.
var Keys = []string{
	"base", "mip_era", "activity", "experiment", "realm",
	"frequency", "variable", "model", "realization", "grid_label",
}

// Query holds the template placeholders. Empty fields match anything.
type Query struct {
	Base        string `mapstructure:"base"`
	MipEra      string `mapstructure:"mip_era"`
	Activity    string `mapstructure:"activity"`
	Experiment  string `mapstructure:"experiment"`
	Realm       string `mapstructure:"realm"`
	Frequency   string `mapstructure:"frequency"`
	Variable    string `mapstructure:"variable"`
	Model       string `mapstructure:"model"`
	Realization string `mapstructure:"realization"`
	GridLabel   string `mapstructure:"grid_label"`
}

// QueryFromMap decodes key/value constraints into a Query. Keys are matched
// without regard to case or underscores, so mip_era, mipEra and MIP_ERA are
// equivalent. Unknown keys are rejected.
func QueryFromMap(values map[string]any) (Query, error) {
	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[canonicalKey(k)] = v
	}

	var q Query
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &q,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Query{}, err
	}
	if err := dec.Decode(normalized); err != nil {
		return Query{}, fmt.Errorf("decoding search constraints: %w", err)
	}
	return q, nil
}

func canonicalKey(k string) string {
	squashed := strings.ToLower(strings.ReplaceAll(k, "_", ""))
	for _, key := range Keys {
		if strings.ReplaceAll(key, "_", "") == squashed {
			return key
		}
	}
	return k
}

// Empty reports whether no placeholder was supplied.
func (q Query) Empty() bool {
	return q == Query{}
}

// Pattern expands the directory template:
//
//	{base}/{mip_era}/{activity}/{experiment}/{realm}/{frequency}/{variable}/*.{model}.{realization}.*.{grid_label}.*.xml
//
// Whitespace is removed from every placeholder.
func (q Query) Pattern() string {
	base := stripSpace(q.Base)
	if base == "" {
		base = DefaultBase
	}
	file := fmt.Sprintf("*.%s.%s.*.%s.*.xml", or(q.Model), or(q.Realization), or(q.GridLabel))
	return filepath.Join(base, or(q.MipEra), or(q.Activity), or(q.Experiment),
		or(q.Realm), or(q.Frequency), or(q.Variable), file)
}

func or(v string) string {
	v = stripSpace(v)
	if v == "" {
		return wildcard
	}
	return v
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Find returns the sorted descriptor files matching q. A query without any
// placeholder is refused with *models.NoCriteriaSuppliedError instead of
// scanning the whole archive.
func Find(q Query) ([]string, error) {
	if q.Empty() {
		return nil, &models.NoCriteriaSuppliedError{Accepted: Keys}
	}

	pattern := q.Pattern()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		slog.Info("No descriptor files matched", "pattern", pattern)
		return []string{}, nil
	}

	sort.Strings(matches)
	return matches, nil
}

// Walk returns every descriptor file (*.xml or *.xml.gz) below root.
// Hidden directories are skipped.
func Walk(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root path: %w", err)
	}

	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}

		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}

		if strings.HasSuffix(d.Name(), ".xml") || strings.HasSuffix(d.Name(), ".xml.gz") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory %s: %w", absRoot, err)
	}

	sort.Strings(files)
	return files, nil
}

// FilterKeywords keeps the entries of list containing every '*'-separated
// fragment of key, in order of appearance. FilterKeywords("tom", ...) keeps
// "tom" and "tommy"; "CCSM*r1i1" keeps entries containing both fragments.
func FilterKeywords(key string, list []string) []string {
	out := list
	for _, fragment := range strings.Split(key, "*") {
		var kept []string
		for _, s := range out {
			if strings.Contains(s, fragment) {
				kept = append(kept, s)
			}
		}
		out = kept
	}
	return out
}
