// Package cdml reads the dataset metadata needed for selection from CDML
// spanning files (the xml indexes that describe a multi-file dataset).
package cdml

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/klauspost/compress/gzip"
	"github.com/pcmdi/climwrangle/internal/models"
)

// DefaultPublishMarker is the directory fragment identifying data that was
// locally republished.
const DefaultPublishMarker = "publish"

// MissingCreationDate stands in for files without a creation_date attribute
// (9am Monday 6th March 1989, the start of the archive).
const MissingCreationDate = "1989-03-06T17:00:00Z"

// Reader extracts selection metadata from CDML files on disk.
type Reader struct {
	publishMarker string
}

// Option configures a Reader.
type Option func(*Reader)

// WithPublishMarker overrides the directory fragment that marks a dataset as
// republished. An empty marker is ignored.
func WithPublishMarker(marker string) Option {
	return func(r *Reader) {
		if marker != "" {
			r.publishMarker = marker
		}
	}
}

// NewReader creates a Reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{publishMarker: DefaultPublishMarker}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Extract opens the CDML file at id and reads its metadata. Files ending in
// .gz are decompressed on the fly. Every failure is reported as an
// *models.UnreadableSourceError.
func (r *Reader) Extract(ctx context.Context, id string) (models.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return models.Metadata{}, err
	}

	f, err := os.Open(id)
	if err != nil {
		return models.Metadata{}, &models.UnreadableSourceError{ID: id, Err: err}
	}
	defer f.Close() //nolint:errcheck

	var src io.Reader = f
	if strings.HasSuffix(id, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return models.Metadata{}, &models.UnreadableSourceError{ID: id, Err: err}
		}
		defer zr.Close() //nolint:errcheck
		src = zr
	}

	meta, err := Decode(src, r.publishMarker)
	if err != nil {
		return models.Metadata{}, &models.UnreadableSourceError{ID: id, Err: err}
	}
	return meta, nil
}

type datasetElem struct {
	XMLName xml.Name   `xml:"dataset"`
	Attrs   []xml.Attr `xml:",any,attr"`
	Attr    []attrElem `xml:"attr"`
	Axes    []axisElem `xml:"axis"`
}

type attrElem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type axisElem struct {
	ID     string `xml:"id,attr"`
	Length string `xml:"length,attr"`
}

// attributes merges inline dataset attributes with <attr> children; the
// inline form wins when both are present.
func (d *datasetElem) attributes() map[string]string {
	out := make(map[string]string, len(d.Attrs)+len(d.Attr))
	for _, a := range d.Attr {
		out[a.Name] = strings.TrimSpace(a.Value)
	}
	for _, a := range d.Attrs {
		out[a.Name.Local] = a.Value
	}
	return out
}

// Decode reads one CDML document. marker is the directory fragment that
// marks republished data.
func Decode(src io.Reader, marker string) (models.Metadata, error) {
	var ds datasetElem
	dec := xml.NewDecoder(src)
	dec.Strict = false
	if err := dec.Decode(&ds); err != nil {
		return models.Metadata{}, fmt.Errorf("decoding cdml: %w", err)
	}

	attrs := ds.attributes()

	cdate, err := ParseCreationDate(attrs["creation_date"])
	if err != nil {
		return models.Metadata{}, err
	}

	meta := models.Metadata{
		CreationDate: cdate,
		Published:    marker != "" && strings.Contains(attrs["directory"], marker),
	}

	for _, ax := range ds.Axes {
		if ax.ID != "time" {
			continue
		}
		if ax.Length == "" {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(ax.Length))
		if err != nil {
			return models.Metadata{}, fmt.Errorf("time axis length %q: %w", ax.Length, err)
		}
		meta.SampleCount = n
		break
	}

	return meta, nil
}

// ParseCreationDate converts a creation_date attribute to YYYYMMDD.
//
// Most files carry an ISO timestamp (2012-02-13T00:40:33Z). Some carry the
// output of date(1), e.g. "Thu Aug 11 22:49:09 EST 2011"; only the year is
// kept for those and the result is YYYY0101. An empty value is replaced by
// MissingCreationDate.
func ParseCreationDate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = MissingCreationDate
	}

	var digits string
	if unicode.IsLetter([]rune(s)[0]) {
		fields := strings.Fields(s)
		digits = fields[len(fields)-1] + "0101"
	} else {
		date, _, _ := strings.Cut(s, "T")
		digits = strings.ReplaceAll(date, "-", "")
	}

	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("creation date %q: %w", s, err)
	}
	return v, nil
}
