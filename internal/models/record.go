package models

// Metadata is what a metadata extractor reads from one descriptor file.
type Metadata struct {
	// CreationDate is encoded as YYYYMMDD.
	CreationDate int  `json:"creation_date"`
	Published    bool `json:"published"`
	// SampleCount is the length of the time axis, 0 when there is none.
	SampleCount int `json:"sample_count"`
}

// Record is the enriched view of one descriptor identifier used during a
// single reduction. Records are built once and never modified.
type Record struct {
	ID            string `json:"id"`
	Model         string `json:"model"`
	Realization   string `json:"realization"`
	VersionWeight int64  `json:"version_weight"`
	CreationDate  int    `json:"creation_date"`
	Published     bool   `json:"published"`
	SampleCount   int    `json:"sample_count"`
}

// NewRecord combines the parsed identifier fields with extracted metadata.
func NewRecord(id, model, realization string, weight int64, meta Metadata) Record {
	return Record{
		ID:            id,
		Model:         model,
		Realization:   realization,
		VersionWeight: weight,
		CreationDate:  meta.CreationDate,
		Published:     meta.Published,
		SampleCount:   meta.SampleCount,
	}
}

// GroupKey identifies the group a record belongs to.
type GroupKey struct {
	Model       string `json:"model"`
	Realization string `json:"realization"`
}

// Key returns the record's group key.
func (r Record) Key() GroupKey {
	return GroupKey{Model: r.Model, Realization: r.Realization}
}

func (k GroupKey) String() string {
	return k.Model + "/" + k.Realization
}
