package cdml

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/pcmdi/climwrangle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inlineDoc = `<?xml version="1.0"?>
<!DOCTYPE dataset SYSTEM "http://www-pcmdi.llnl.gov/software/cdms/cdml.dtd">
<dataset
	creation_date="2012-02-13T00:40:33Z"
	directory="/p/css03/esgf_publish/CMIP5/output1/NCAR/CCSM4/historical/mon/atmos/Amon/r1i1p1/v20160829/tas"
	id="CMIP5.CMIP.historical.NCAR.CCSM4.r1i1p1.mon.tas.atmos.glb-z1-gu.v20160829">
	<axis id="lat" length="192" datatype="Double">[-90. 90.]</axis>
	<axis id="time" length="1872" datatype="Double" units="days since 1850-01-01">[15.5 45.]</axis>
	<variable id="tas" datatype="Float">
		<attr name="creation_date" datatype="String">1999-01-01T00:00:00Z</attr>
	</variable>
</dataset>`

const childAttrDoc = `<?xml version="1.0"?>
<dataset id="legacy">
	<attr name="creation_date" datatype="String">Thu Aug 11 22:49:09 EST 2011</attr>
	<attr name="directory" datatype="String">/cmip5_css02/data/cmip5/output1/CCSM4</attr>
	<axis id="lon" length="288"/>
</dataset>`

func TestDecode_InlineAttributes(t *testing.T) {
	meta, err := Decode(strings.NewReader(inlineDoc), DefaultPublishMarker)
	require.NoError(t, err)

	assert.Equal(t, 20120213, meta.CreationDate)
	assert.True(t, meta.Published)
	assert.Equal(t, 1872, meta.SampleCount)
}

func TestDecode_ChildAttributes(t *testing.T) {
	meta, err := Decode(strings.NewReader(childAttrDoc), DefaultPublishMarker)
	require.NoError(t, err)

	assert.Equal(t, 20110101, meta.CreationDate, "free-text dates keep only the year")
	assert.False(t, meta.Published)
	assert.Equal(t, 0, meta.SampleCount, "no time axis")
}

func TestDecode_MissingCreationDate(t *testing.T) {
	meta, err := Decode(strings.NewReader(`<dataset directory="/x"><axis id="time" length="12"/></dataset>`), DefaultPublishMarker)
	require.NoError(t, err)
	assert.Equal(t, 19890306, meta.CreationDate)
	assert.Equal(t, 12, meta.SampleCount)
}

func TestDecode_CustomMarker(t *testing.T) {
	meta, err := Decode(strings.NewReader(childAttrDoc), "css02")
	require.NoError(t, err)
	assert.True(t, meta.Published)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", "this is not xml"},
		{"wrong root", `<catalog/>`},
		{"bad time length", `<dataset><axis id="time" length="many"/></dataset>`},
		{"bad creation date", `<dataset creation_date="Tuesday"/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc), DefaultPublishMarker)
			require.Error(t, err)
		})
	}
}

func TestParseCreationDate(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2012-02-13T00:40:33Z", 20120213},
		{"2019-08-29", 20190829},
		{"Thu Aug 11 22:49:09 EST 2011", 20110101},
		{"", 19890306},
		{"   ", 19890306},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCreationDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "CMIP5.CMIP.historical.NCAR.CCSM4.r1i1p1.mon.tas.atmos.glb-z1-gu.v20160829.0000000.0.xml")
	require.NoError(t, os.WriteFile(path, []byte(inlineDoc), 0644))

	meta, err := NewReader().Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1872, meta.SampleCount)
}

func TestReader_ExtractGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(inlineDoc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "index.xml.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	meta, err := NewReader(WithPublishMarker("nowhere")).Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 20120213, meta.CreationDate)
	assert.False(t, meta.Published)
}

func TestReader_ExtractUnreadable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.xml")

	_, err := NewReader().Extract(context.Background(), missing)
	require.Error(t, err)

	var unreadable *models.UnreadableSourceError
	require.True(t, errors.As(err, &unreadable))
	assert.Equal(t, missing, unreadable.ID)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReader_ExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader().Extract(ctx, "anything.xml")
	assert.ErrorIs(t, err, context.Canceled)
}
