package config

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/kilianp07/sweep/core/extract"
	"github.com/kilianp07/sweep/core/ledger"
)

// SolverConfig locates the solver and the metric used as run cost.
type SolverConfig struct {
	Command        string   `json:"command"`
	Args           []string `json:"args"`
	WorkDir        string   `json:"work_dir"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	CostMeasure    string   `json:"cost_measure"`
}

func (c *SolverConfig) SetDefaults() {
	if c.Command == "" {
		c.Command = "nmrdpp"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.CostMeasure == "" {
		c.CostMeasure = extract.TotalTime
	}
}

func (c SolverConfig) Validate() error {
	if c.Command == "" {
		return fmt.Errorf("solver.command is required")
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("solver.timeout_seconds must not be negative")
	}
	return nil
}

// Timeout is zero when runs are unbounded.
func (c SolverConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Dir        string `json:"dir"`
	Enabled    bool   `json:"enabled"`
	CachedOnly bool   `json:"cached_only"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "data"
	}
}

func (c CacheConfig) Validate() error {
	if c.CachedOnly && !c.Enabled {
		return fmt.Errorf("cache.cached_only requires the cache to be enabled")
	}
	return nil
}

// RunConfig holds the scheduler switches.
type RunConfig struct {
	StopOnError bool `json:"stop_on_error"`
	Verbose     bool `json:"verbose"`
}

// Estimator backends.
const (
	BackendNative = "native"
	BackendOctave = "octave"
)

// EstimatorConfig selects where curve fits are computed.
type EstimatorConfig struct {
	Backend    string `json:"backend"`
	OctavePath string `json:"octave_path"`
}

func (c *EstimatorConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendNative
	}
}

func (c EstimatorConfig) Validate() error {
	if c.Backend != BackendNative && c.Backend != BackendOctave {
		return fmt.Errorf("unknown estimator backend %s", c.Backend)
	}
	return nil
}

// Table file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// TablesConfig controls how result tables are written.
type TablesConfig struct {
	Dir         string   `json:"dir"`
	Format      string   `json:"format"`
	Delimiter   string   `json:"delimiter"`
	Placeholder string   `json:"placeholder"`
	Header      bool     `json:"header"`
	Measures    []string `json:"measures"`
	Options     []string `json:"options"`
}

func (c *TablesConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "points"
	}
	if c.Format == "" {
		c.Format = FormatCSV
	}
	if c.Delimiter == "" {
		c.Delimiter = ","
	}
	if c.Placeholder == "" {
		c.Placeholder = "-"
	}
	if len(c.Measures) == 0 {
		c.Measures = []string{extract.TotalTime}
	}
}

func (c TablesConfig) Validate() error {
	if !slices.Contains([]string{FormatCSV, FormatJSON}, c.Format) {
		return fmt.Errorf("unknown tables.format %s", c.Format)
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("tables.delimiter must be a single character")
	}
	return nil
}

// DelimiterRune returns the delimiter as a rune.
func (c TablesConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// LedgerConfig defines where the run history is stored.
type LedgerConfig struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *LedgerConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = ledger.BackendJSONL
	}
	if c.Path == "" {
		c.Path = "runs.jsonl"
	}
}

// Validate checks mandatory fields.
func (c LedgerConfig) Validate() error {
	if c.Backend != ledger.BackendJSONL && c.Backend != ledger.BackendSQLite {
		return fmt.Errorf("unknown ledger backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	return nil
}
