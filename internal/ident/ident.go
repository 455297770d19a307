// Package ident parses descriptor file names into their named fields.
//
// Two naming schemes are recognised. The current scheme is the one written
// by the xclim archive for republished CMIP5 and CMIP6 data:
//
//	CMIP6.CMIP.historical.NCAR.CESM2.r1i1p1f1.mon.tas.atmos.glb-z1-gn.v20190308.0000000.0.xml
//
// The legacy scheme predates it and is still found in older cmip3/cmip5 trees:
//
//	cmip5.CCSM4.historical.r1i1p1.mon.atmos.Amon.tas.ver-1.latest.xml
//
// Either may carry an extra .gz suffix.
package ident

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pcmdi/climwrangle/internal/models"
)

// Dialect names the naming scheme an identifier matched.
type Dialect string

const (
	DialectCurrent Dialect = "current"
	DialectLegacy  Dialect = "legacy"
)

// Name holds the fields decoded from an identifier. Fields that a dialect
// does not carry are left empty.
type Name struct {
	Dialect     Dialect
	MipEra      string
	Activity    string
	Experiment  string
	Institution string
	Model       string
	Realization string
	Frequency   string
	Variable    string
	Realm       string
	Table       string
	Grid        string
	Version     string
}

type schema struct {
	dialect Dialect
	pattern *regexp.Regexp
}

// Ordered: the current scheme is tried first.
var schemas = []schema{
	{
		dialect: DialectCurrent,
		pattern: regexp.MustCompile(`^(?P<era>[^.]+)\.(?P<activity>[^.]+)\.(?P<experiment>[^.]+)\.(?P<institution>[^.]+)\.` +
			`(?P<model>[^.]+)\.(?P<realization>[^.]+)\.(?P<frequency>[^.]+)\.(?P<variable>[^.]+)\.(?P<realm>[^.]+)\.` +
			`(?P<grid>[^.]+)\.(?P<version>[^.]+)\.[^.]+\.[^.]+\.xml(?:\.gz)?$`),
	},
	{
		dialect: DialectLegacy,
		pattern: regexp.MustCompile(`^(?P<era>[^.]+)\.(?P<model>[^.]+)\.(?P<experiment>[^.]+)\.(?P<realization>[^.]+)\.` +
			`(?P<frequency>[^.]+)\.(?P<realm>[^.]+)\.(?P<table>[^.]+)\.(?P<variable>[^.]+)\.(?P<version>[^.]+)\.[^.]+\.xml(?:\.gz)?$`),
	},
}

// Parse decodes the last path segment of id.
func Parse(id string) (Name, error) {
	base := filepath.Base(id)
	for _, s := range schemas {
		m := s.pattern.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		return decode(s, m), nil
	}
	return Name{}, &models.MalformedIdentifierError{
		ID:     id,
		Tokens: len(strings.Split(base, ".")),
		Reason: "name matches neither the current nor the legacy naming scheme",
	}
}

// GroupKey returns the (model, realization) pair of id.
func GroupKey(id string) (model, realization string, err error) {
	n, err := Parse(id)
	if err != nil {
		return "", "", err
	}
	return n.Model, n.Realization, nil
}

func decode(s schema, m []string) Name {
	n := Name{Dialect: s.dialect}
	for i, group := range s.pattern.SubexpNames() {
		if group == "" {
			continue
		}
		v := m[i]
		switch group {
		case "era":
			n.MipEra = v
		case "activity":
			n.Activity = v
		case "experiment":
			n.Experiment = v
		case "institution":
			n.Institution = v
		case "model":
			n.Model = v
		case "realization":
			n.Realization = v
		case "frequency":
			n.Frequency = v
		case "variable":
			n.Variable = v
		case "realm":
			n.Realm = v
		case "table":
			n.Table = v
		case "grid":
			n.Grid = v
		case "version":
			n.Version = v
		}
	}
	return n
}
