// Package projectconfig provides the ProjectConfig struct and loader for
// .climwrangle.yaml configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pcmdi/climwrangle/internal/cdml"
	"github.com/pcmdi/climwrangle/internal/discovery"
	"github.com/pcmdi/climwrangle/internal/esgf"
	"github.com/pcmdi/climwrangle/internal/models"
	"github.com/pcmdi/climwrangle/internal/selection"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".climwrangle.yaml"

// Default values for project configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultBase = discovery.DefaultBase

	DefaultWorkers       = selection.DefaultWorkers
	DefaultOnError       = OnErrorAbort
	DefaultPublishMarker = cdml.DefaultPublishMarker

	DefaultNodeURL        = esgf.DefaultNodeURL
	DefaultSearchTimeout  = 60
	DefaultSearchDistrib  = true
	DefaultSearchLatest   = true
	DefaultCacheDir       = ".climwrangle-cache"
	DefaultCacheEnabled   = false
	DefaultVerboseTrimLog = false
)

// Error policies for record building.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// PathsConfig holds archive locations.
type PathsConfig struct {
	Base string `yaml:"base,omitempty"`
}

// TrimConfig holds the selection cascade settings.
type TrimConfig struct {
	Criteria      []string `yaml:"criteria,omitempty"`
	Workers       int      `yaml:"workers,omitempty"`
	OnError       string   `yaml:"on_error,omitempty"`
	PublishMarker string   `yaml:"publish_marker,omitempty"`
	Verbose       *bool    `yaml:"verbose,omitempty"`
}

// SearchConfig holds ESGF search settings.
type SearchConfig struct {
	NodeURL        string `yaml:"node_url,omitempty"`
	Distrib        *bool  `yaml:"distrib,omitempty"`
	Latest         *bool  `yaml:"latest,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

// CacheConfig holds search response cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .climwrangle.yaml.
type ProjectConfig struct {
	Paths  PathsConfig  `yaml:"paths,omitempty"`
	Trim   TrimConfig   `yaml:"trim,omitempty"`
	Search SearchConfig `yaml:"search,omitempty"`
	Cache  CacheConfig  `yaml:"cache,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	criteria := make([]string, len(models.DefaultCriteria))
	for i, c := range models.DefaultCriteria {
		criteria[i] = string(c)
	}

	return &ProjectConfig{
		Paths: PathsConfig{
			Base: DefaultBase,
		},
		Trim: TrimConfig{
			Criteria:      criteria,
			Workers:       DefaultWorkers,
			OnError:       DefaultOnError,
			PublishMarker: DefaultPublishMarker,
			Verbose:       boolPtr(DefaultVerboseTrimLog),
		},
		Search: SearchConfig{
			NodeURL:        DefaultNodeURL,
			Distrib:        boolPtr(DefaultSearchDistrib),
			Latest:         boolPtr(DefaultSearchLatest),
			TimeoutSeconds: DefaultSearchTimeout,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(DefaultCacheEnabled),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds .climwrangle.yaml by walking up from startDir (max 10 levels),
// unmarshals it, fills in missing fields with defaults and validates the
// result. If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	return parse(cfg, data, FileName)
}

// LoadFile reads the config file at path, fills in missing fields with
// defaults and validates the result. Unlike Load, a missing file is an error.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return parse(New(), data, path)
}

func parse(cfg *ProjectConfig, data []byte, name string) (*ProjectConfig, error) {
	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	mergeConfig(cfg, &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return cfg, nil
}

// Validate checks every field that has a restricted domain.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if _, err := c.CriteriaList(); err != nil {
		errs = append(errs, fmt.Errorf("trim.criteria: %w", err))
	}
	if c.Trim.Workers <= 0 {
		errs = append(errs, fmt.Errorf("trim.workers must be positive, got %d", c.Trim.Workers))
	}
	if c.Trim.OnError != OnErrorAbort && c.Trim.OnError != OnErrorSkip {
		errs = append(errs, fmt.Errorf("trim.on_error must be %q or %q, got %q", OnErrorAbort, OnErrorSkip, c.Trim.OnError))
	}
	if u, err := url.Parse(c.Search.NodeURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("search.node_url must be an http(s) URL, got %q", c.Search.NodeURL))
	}
	if c.Search.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("search.timeout_seconds must be positive, got %d", c.Search.TimeoutSeconds))
	}

	return errors.Join(errs...)
}

// CriteriaList parses the configured cascade.
func (c *ProjectConfig) CriteriaList() ([]models.Criterion, error) {
	return models.ParseCriteria(c.Trim.Criteria)
}

// SkipOnError reports whether record-building failures are skipped.
func (c *ProjectConfig) SkipOnError() bool {
	return c.Trim.OnError == OnErrorSkip
}

// findConfigFile walks up from dir looking for the config file (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates
// real I/O errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Base != "" {
		dst.Paths.Base = src.Paths.Base
	}

	// Trim
	if len(src.Trim.Criteria) > 0 {
		dst.Trim.Criteria = src.Trim.Criteria
	}
	if src.Trim.Workers != 0 {
		dst.Trim.Workers = src.Trim.Workers
	}
	if src.Trim.OnError != "" {
		dst.Trim.OnError = src.Trim.OnError
	}
	if src.Trim.PublishMarker != "" {
		dst.Trim.PublishMarker = src.Trim.PublishMarker
	}
	if src.Trim.Verbose != nil {
		dst.Trim.Verbose = src.Trim.Verbose
	}

	// Search
	if src.Search.NodeURL != "" {
		dst.Search.NodeURL = src.Search.NodeURL
	}
	if src.Search.Distrib != nil {
		dst.Search.Distrib = src.Search.Distrib
	}
	if src.Search.Latest != nil {
		dst.Search.Latest = src.Search.Latest
	}
	if src.Search.TimeoutSeconds != 0 {
		dst.Search.TimeoutSeconds = src.Search.TimeoutSeconds
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

func boolPtr(b bool) *bool {
	return &b
}
