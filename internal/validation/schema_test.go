package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcmdi/climwrangle/internal/projectconfig"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `paths:
  base: /p/user_pub/xclim/
trim:
  criteria: [publish, cdate, ver, tpoints]
  workers: 8
  on_error: skip
  publish_marker: publish
  verbose: true
search:
  node_url: https://esgf-node.llnl.gov/esg-search/
  distrib: true
  latest: true
  timeout_seconds: 30
cache:
  enabled: true
  dir: .climwrangle-cache
`

const invalidConfigYAML = `trim:
  criteria: [ver, size]
  workers: 0
  on_error: ignore
search:
  node_url: ftp://example.org
  timeout_seconds: "soon"
extras: true
`

func TestValidateConfigBytes_Valid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(validConfigYAML))
	require.Empty(t, errs, "valid config should have no errors")
}

func TestValidateConfigBytes_Empty(t *testing.T) {
	require.Empty(t, ValidateConfigBytes(nil))
	require.Empty(t, ValidateConfigBytes([]byte("trim:\n  workers: 2\n")))
}

func TestValidateConfigBytes_Invalid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(invalidConfigYAML))
	require.NotEmpty(t, errs, "invalid config should have errors")

	joined := joinErrs(errs)
	for _, want := range []string{
		"/trim/criteria/1",
		"/trim/workers",
		"/trim/on_error",
		"/search/node_url",
		"/search/timeout_seconds",
		"extras",
	} {
		require.Contains(t, joined, want)
	}
}

func TestValidateConfigBytes_DuplicateCriteria(t *testing.T) {
	errs := ValidateConfigBytes([]byte("trim:\n  criteria: [ver, ver]\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, joinErrs(errs), "/trim/criteria")
}

// The schema and the loader must agree on which criteria lists are valid.
func TestValidateConfigBytes_CriteriaMatchLoader(t *testing.T) {
	tests := []struct {
		criteria string
		valid    bool
	}{
		{"[publish, cdate]", true},
		{"[creationDate, versionWeight, sampleCount, publicationFlag]", true},
		{"[]", true},
		{"[version]", false},
		{"[PUBLISH]", false},
		{"[CreationDate]", false},
		{"[size]", false},
		{"[ver, ver]", false},
		{"[ver, versionWeight]", false},
		{"[publish, publicationFlag]", false},
	}

	for _, tt := range tests {
		t.Run(tt.criteria, func(t *testing.T) {
			data := []byte("trim:\n  criteria: " + tt.criteria + "\n")
			path := filepath.Join(t.TempDir(), ".climwrangle.yaml")
			require.NoError(t, os.WriteFile(path, data, 0644))

			_, loadErr := projectconfig.LoadFile(path)
			schemaErrs := ValidateConfigBytes(data)

			if tt.valid {
				require.NoError(t, loadErr)
				require.Empty(t, schemaErrs)
				return
			}
			require.Error(t, loadErr)
			require.NotEmpty(t, schemaErrs)
		})
	}
}

func TestValidateConfigBytes_BadYAML(t *testing.T) {
	errs := ValidateConfigBytes([]byte("trim: [unclosed"))
	require.Len(t, errs, 1)
	require.True(t, strings.HasPrefix(errs[0], "YAML parse error"))
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".climwrangle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0644))

	errs, err := ValidateConfigFile(path)
	require.NoError(t, err)
	require.Empty(t, errs)

	require.NoError(t, os.WriteFile(path, []byte(invalidConfigYAML), 0644))
	errs, err = ValidateConfigFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, errs)
}

func TestValidateConfigFile_NotFound(t *testing.T) {
	_, err := ValidateConfigFile("/nonexistent/.climwrangle.yaml")
	require.Error(t, err)
}

func joinErrs(errs []string) string {
	result := ""
	for _, e := range errs {
		result += e + "\n"
	}
	return result
}
