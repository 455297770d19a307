package ident

import (
	"errors"
	"testing"

	"github.com/pcmdi/climwrangle/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Current(t *testing.T) {
	id := "/p/user_pub/xclim/CMIP6/CMIP/historical/atmos/mon/tas/CMIP6.CMIP.historical.NCAR.CESM2.r1i1p1f1.mon.tas.atmos.glb-z1-gn.v20190308.0000000.0.xml"

	n, err := Parse(id)
	require.NoError(t, err)

	assert.Equal(t, DialectCurrent, n.Dialect)
	assert.Equal(t, "CMIP6", n.MipEra)
	assert.Equal(t, "CMIP", n.Activity)
	assert.Equal(t, "historical", n.Experiment)
	assert.Equal(t, "NCAR", n.Institution)
	assert.Equal(t, "CESM2", n.Model)
	assert.Equal(t, "r1i1p1f1", n.Realization)
	assert.Equal(t, "mon", n.Frequency)
	assert.Equal(t, "tas", n.Variable)
	assert.Equal(t, "atmos", n.Realm)
	assert.Equal(t, "glb-z1-gn", n.Grid)
	assert.Equal(t, "v20190308", n.Version)
}

func TestParse_Legacy(t *testing.T) {
	n, err := Parse("/work/cmip5/historical/atmos/mon/tas/cmip5.ACCESS1-0.historical.r1i1p1.mon.atmos.Amon.tas.ver-1.latest.xml")
	require.NoError(t, err)

	assert.Equal(t, DialectLegacy, n.Dialect)
	assert.Equal(t, "cmip5", n.MipEra)
	assert.Equal(t, "ACCESS1-0", n.Model)
	assert.Equal(t, "r1i1p1", n.Realization)
	assert.Equal(t, "Amon", n.Table)
	assert.Equal(t, "ver-1", n.Version)
	assert.Empty(t, n.Grid)
}

func TestParse_Gzipped(t *testing.T) {
	n, err := Parse("CMIP5.CMIP.historical.NCAR.CCSM4.r1i1p1.mon.tas.atmos.glb-z1-gu.v20160829.0000000.0.xml.gz")
	require.NoError(t, err)
	assert.Equal(t, "CCSM4", n.Model)
}

func TestGroupKey(t *testing.T) {
	model, rip, err := GroupKey("CMIP5.CMIP.historical.NCAR.CCSM4.r2i1p1.mon.tas.atmos.glb-z1-gu.v20160829.0000000.0.xml")
	require.NoError(t, err)
	assert.Equal(t, "CCSM4", model)
	assert.Equal(t, "r2i1p1", rip)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		id     string
		tokens int
	}{
		{"CMIP6.CMIP.historical.xml", 4},
		{"CCSM4", 1},
		{"/data/notes.txt", 2},
		{"CMIP6.CMIP.historical.NCAR.CESM2.r1i1p1f1.mon.tas.atmos.glb-z1-gn.v20190308.0000000.0.nc", 14},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := Parse(tt.id)
			require.Error(t, err)

			var malformed *models.MalformedIdentifierError
			require.True(t, errors.As(err, &malformed))
			assert.Equal(t, tt.id, malformed.ID)
			assert.Equal(t, tt.tokens, malformed.Tokens)
		})
	}
}
