// Package citation assembles a human-readable dataset citation from a file
// tracking id.
package citation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pcmdi/climwrangle/internal/esgf"
)

// Finder resolves files and fetches citation documents.
type Finder interface {
	FindFile(ctx context.Context, trackingID string) (*esgf.FileRecord, error)
	FetchJSON(ctx context.Context, rawURL string, out any) error
}

// Metadata is the subset of a citation document used to build the citation.
type Metadata struct {
	Identifier struct {
		ID   string `json:"id"`
		Type string `json:"identifierType"`
	} `json:"identifier"`
	Creators []struct {
		Name string `json:"creatorName"`
	} `json:"creators"`
	Titles          []string `json:"titles"`
	Publisher       string   `json:"publisher"`
	PublicationYear Year     `json:"publicationYear"`
}

// Year accepts the publication year as either a JSON string or number.
type Year string

// UnmarshalJSON implements json.Unmarshaler.
func (y *Year) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = Year(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("publicationYear: %w", err)
	}
	*y = Year(n.String())
	return nil
}

// Lookup resolves trackingID to its dataset and returns the formatted
// citation.
func Lookup(ctx context.Context, f Finder, trackingID string) (string, error) {
	rec, err := f.FindFile(ctx, trackingID)
	if err != nil {
		return "", err
	}
	if rec.CitationURL == "" {
		return "", fmt.Errorf("tracking id %s has no citation url", trackingID)
	}

	var meta Metadata
	if err := f.FetchJSON(ctx, rec.CitationURL, &meta); err != nil {
		return "", fmt.Errorf("fetching citation: %w", err)
	}
	return Format(meta, rec.DatasetVersion())
}

// Format renders meta as
// "Authors (Year). Title. Version V. Publisher doi: DOI.".
func Format(meta Metadata, version string) (string, error) {
	if len(meta.Titles) == 0 {
		return "", errors.New("citation has no title")
	}

	authors := make([]string, 0, len(meta.Creators))
	for _, c := range meta.Creators {
		if name := strings.TrimSpace(c.Name); name != "" {
			authors = append(authors, name)
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(authors, ", "))
	b.WriteString(" (" + string(meta.PublicationYear) + "). ")
	b.WriteString(strings.TrimSuffix(meta.Titles[0], "."))
	b.WriteString(". Version " + version + ". ")
	b.WriteString(meta.Publisher)
	b.WriteString(" doi: " + meta.Identifier.ID + ".")
	return b.String(), nil
}
