package selection

import (
	"github.com/pcmdi/climwrangle/internal/models"
)

// FilterByCriterion returns the subset of candidates holding the best value
// for c. Numeric criteria keep every candidate equal to the observed
// maximum. Boolean criteria keep the candidates whose flag is true; the
// target is always true, so when no candidate is flagged the result is empty.
//
// Sets of zero or one candidate are returned unchanged. Input order is
// preserved and ties are kept.
func FilterByCriterion(candidates []models.Record, c models.Criterion) []models.Record {
	if len(candidates) < 2 {
		return candidates
	}

	var kept []models.Record
	switch c.Kind() {
	case models.KindBoolean:
		for _, r := range candidates {
			if c.Flag(r) {
				kept = append(kept, r)
			}
		}
	default:
		best := c.Numeric(candidates[0])
		for _, r := range candidates[1:] {
			if v := c.Numeric(r); v > best {
				best = v
			}
		}
		for _, r := range candidates {
			if c.Numeric(r) == best {
				kept = append(kept, r)
			}
		}
	}
	return kept
}

// Cascade applies each criterion in order, feeding every step's survivors to
// the next. An emptied set stays empty.
func Cascade(candidates []models.Record, criteria []models.Criterion) []models.Record {
	for _, c := range criteria {
		if len(candidates) == 0 {
			break
		}
		candidates = FilterByCriterion(candidates, c)
	}
	return candidates
}
