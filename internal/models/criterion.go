package models

import "fmt"

// Criterion names one tie-break rule in the selection cascade.
type Criterion string

const (
	// CriterionCreationDate prefers the most recently created file.
	CriterionCreationDate Criterion = "cdate"
	// CriterionVersion prefers the highest version weight.
	CriterionVersion Criterion = "ver"
	// CriterionSampleCount prefers the file with the most time steps.
	CriterionSampleCount Criterion = "tpoints"
	// CriterionPublished prefers files that were locally republished.
	CriterionPublished Criterion = "publish"
)

// CriterionKind is the comparison rule used by a criterion.
type CriterionKind int

const (
	// KindNumeric keeps the candidates holding the maximum value.
	KindNumeric CriterionKind = iota
	// KindBoolean keeps the candidates whose flag is true.
	KindBoolean
)

// DefaultCriteria is the cascade used when none is configured.
var DefaultCriteria = []Criterion{CriterionCreationDate, CriterionVersion, CriterionSampleCount}

// criterionNames must stay in step with the trim.criteria enum in
// schemas/config.schema.json.
var criterionNames = map[string]Criterion{
	"cdate":           CriterionCreationDate,
	"creationDate":    CriterionCreationDate,
	"ver":             CriterionVersion,
	"versionWeight":   CriterionVersion,
	"tpoints":         CriterionSampleCount,
	"sampleCount":     CriterionSampleCount,
	"publish":         CriterionPublished,
	"publicationFlag": CriterionPublished,
}

// Kind reports how values of the criterion are compared.
func (c Criterion) Kind() CriterionKind {
	if c == CriterionPublished {
		return KindBoolean
	}
	return KindNumeric
}

// Valid reports whether c is one of the known criteria.
func (c Criterion) Valid() bool {
	switch c {
	case CriterionCreationDate, CriterionVersion, CriterionSampleCount, CriterionPublished:
		return true
	}
	return false
}

// Numeric returns the record field compared by a numeric criterion.
func (c Criterion) Numeric(r Record) int64 {
	switch c {
	case CriterionCreationDate:
		return int64(r.CreationDate)
	case CriterionVersion:
		return r.VersionWeight
	case CriterionSampleCount:
		return int64(r.SampleCount)
	}
	return 0
}

// Flag returns the record field compared by a boolean criterion.
func (c Criterion) Flag(r Record) bool {
	if c == CriterionPublished {
		return r.Published
	}
	return false
}

// ParseCriterion accepts the short names (cdate, ver, tpoints, publish) and
// the long field names (creationDate, versionWeight, sampleCount,
// publicationFlag). Names are matched exactly.
func ParseCriterion(s string) (Criterion, error) {
	c, ok := criterionNames[s]
	if !ok {
		return "", fmt.Errorf("unknown criterion %q (valid: cdate, ver, tpoints, publish)", s)
	}
	return c, nil
}

// ParseCriteria parses an ordered cascade. Duplicates are rejected since a
// repeated criterion can never change the outcome.
func ParseCriteria(names []string) ([]Criterion, error) {
	out := make([]Criterion, 0, len(names))
	seen := make(map[Criterion]bool, len(names))
	for _, n := range names {
		c, err := ParseCriterion(n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			return nil, fmt.Errorf("criterion %q listed more than once", c)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
