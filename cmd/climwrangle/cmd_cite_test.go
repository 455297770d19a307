package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pcmdi/climwrangle/internal/esgf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCiteCommand(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tracking_id") != "hdl:21.14100/abc" {
			fmt.Fprint(w, `{"response":{"numFound":0,"docs":[]}}`)
			return
		}
		fmt.Fprintf(w, `{"response":{"numFound":1,"docs":[{
			"dataset_id":"CMIP6.CMIP.NCAR.CESM2.historical.r1i1p1f1.Amon.tas.gn.v20190308|esgf-data.ucar.edu",
			"citation_url":["%s/cite.json"]}]}}`, server.URL)
	})
	mux.HandleFunc("/cite.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"identifier":{"id":"10.22033/ESGF/CMIP6.7627"},
			"creators":[{"creatorName":"Danabasoglu, Gokhan"}],
			"titles":["NCAR CESM2 model output prepared for CMIP6 CMIP historical"],
			"publisher":"Earth System Grid Federation","publicationYear":2019}`)
	})

	stdout, _, err := runCLI(t, "", "cite", "--node", server.URL, "hdl:21.14100/abc")
	require.NoError(t, err)
	assert.Equal(t,
		"Danabasoglu, Gokhan (2019). NCAR CESM2 model output prepared for CMIP6 CMIP historical. "+
			"Version 20190308. Earth System Grid Federation doi: 10.22033/ESGF/CMIP6.7627.",
		strings.TrimSpace(stdout))

	_, _, err = runCLI(t, "", "cite", "--node", server.URL, "hdl:21.14100/missing")
	require.ErrorIs(t, err, esgf.ErrNotFound)
	assert.Contains(t, err.Error(), "citing hdl:21.14100/missing")

	_, _, err = runCLI(t, "", "cite")
	assert.Error(t, err)
}
