package selection

import (
	"sort"

	"github.com/pcmdi/climwrangle/internal/models"
)

// GroupOutcome records how one (model, realization) group was resolved.
type GroupOutcome struct {
	Key models.GroupKey `json:"key"`
	// Candidates lists every identifier in the group, in input order.
	Candidates []string `json:"candidates"`
	// Selected is empty when the cascade eliminated every candidate.
	Selected string `json:"selected,omitempty"`
}

// Rejected returns the candidates that were not selected.
func (g GroupOutcome) Rejected() []string {
	var out []string
	for _, id := range g.Candidates {
		if id != g.Selected {
			out = append(out, id)
		}
	}
	return out
}

// Reduction is the result of Reduce.
type Reduction struct {
	// Selected holds one identifier per surviving group, ordered by model
	// then realization.
	Selected []string
	// Groups holds every non-empty group in the same order.
	Groups []GroupOutcome
}

// Reduce narrows records to one identifier per (model, realization) pair.
//
// Groups are visited over the cross product of the sorted distinct models
// and the sorted distinct realizations, which fixes the output order
// independently of the input order. Each group is filtered by the criteria
// in order. When more than one candidate survives the whole cascade, the
// lexicographically smallest identifier is chosen.
func Reduce(records []models.Record, criteria []models.Criterion) Reduction {
	groups := make(map[models.GroupKey][]models.Record)
	modelSet := make(map[string]struct{})
	ripSet := make(map[string]struct{})
	for _, r := range records {
		groups[r.Key()] = append(groups[r.Key()], r)
		modelSet[r.Model] = struct{}{}
		ripSet[r.Realization] = struct{}{}
	}

	var red Reduction
	for _, model := range sortedKeys(modelSet) {
		for _, rip := range sortedKeys(ripSet) {
			key := models.GroupKey{Model: model, Realization: rip}
			group := groups[key]
			if len(group) == 0 {
				continue
			}

			outcome := GroupOutcome{Key: key, Candidates: make([]string, len(group))}
			for i, r := range group {
				outcome.Candidates[i] = r.ID
			}

			survivors := Cascade(group, criteria)
			if len(survivors) > 0 {
				outcome.Selected = firstByID(survivors)
				red.Selected = append(red.Selected, outcome.Selected)
			}
			red.Groups = append(red.Groups, outcome)
		}
	}
	return red
}

func firstByID(records []models.Record) string {
	best := records[0].ID
	for _, r := range records[1:] {
		if r.ID < best {
			best = r.ID
		}
	}
	return best
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
