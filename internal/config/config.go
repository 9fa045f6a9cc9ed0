// Package config loads glidebill's run configuration document: the
// single structured document spec.md §6 describes (event_files,
// flight_files, nda_files, ..., row_csv_name_template). Loaded the way
// the teacher's internal/config/billing.go loads BillingConfig: viper.New,
// SetConfigType, ReadInConfig, UnmarshalKey. Unlike the teacher, no
// fsnotify hot-reload is wired — a batch run is one process lifetime.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RunConfig is glidebill's run configuration, the recognized keys of
// spec.md §6.
type RunConfig struct {
	EventFiles         []string `mapstructure:"event_files"`
	FlightFiles        []string `mapstructure:"flight_files"`
	NDAFiles           []string `mapstructure:"nda_files"`
	BirthDateFiles     []string `mapstructure:"birth_date_files"`
	CourseMemberFiles  []string `mapstructure:"course_member_files"`
	ValidIDFiles       []string `mapstructure:"valid_id_files"`
	NoInvoicingPrefix  []string `mapstructure:"no_invoicing_prefix"`
	InvoiceDate        string   `mapstructure:"invoice_date"`
	ContextFileIn      string   `mapstructure:"context_file_in"`
	ContextFileOut     string   `mapstructure:"context_file_out"`
	OutDir             string   `mapstructure:"out_dir"`
	Description        string   `mapstructure:"description"`
	InvoiceFormat      string   `mapstructure:"invoice_format"`
	TotalCSVName       string   `mapstructure:"total_csv_name"`
	RowCSVNameTemplate string   `mapstructure:"row_csv_name_template"`

	// baseDir is the config file's directory; every relative path above
	// resolves against it, per spec.md §6.
	baseDir string
}

// ErrMissingRequiredKey is a ConfigError per spec.md §7.
var ErrMissingRequiredKey = errors.New("config: missing required key")

// ErrInvalidRowTemplate is a ConfigError: row_csv_name_template must
// contain exactly one %s/%d verb for the ledger year.
var ErrInvalidRowTemplate = errors.New("config: row_csv_name_template must contain one %s/%d verb")

// Load reads the run configuration document at path (YAML or JSON,
// inferred from its extension) and resolves relative paths against its
// directory. An optional .env file is loaded first, the same
// godotenv.Load() call config.Load() makes in the teacher.
func Load(path string) (RunConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return RunConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg RunConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.baseDir = filepath.Dir(absPath(path))

	if err := cfg.validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

func (c RunConfig) validate() error {
	if len(c.EventFiles) == 0 && len(c.FlightFiles) == 0 && len(c.NDAFiles) == 0 {
		return fmt.Errorf("%w: at least one of event_files, flight_files, nda_files", ErrMissingRequiredKey)
	}
	if strings.TrimSpace(c.OutDir) == "" {
		return fmt.Errorf("%w: out_dir", ErrMissingRequiredKey)
	}
	if strings.TrimSpace(c.InvoiceDate) == "" {
		return fmt.Errorf("%w: invoice_date", ErrMissingRequiredKey)
	}
	if c.RowCSVNameTemplate != "" && !hasExactlyOneYearVerb(c.RowCSVNameTemplate) {
		return ErrInvalidRowTemplate
	}
	return nil
}

// hasExactlyOneYearVerb reports whether template contains exactly one
// "%s" or "%d" token and no other "%" character — the only shape
// internal/writer's RowsCSVWriter substitutes the ledger year into.
func hasExactlyOneYearVerb(template string) bool {
	verbs := strings.Count(template, "%s") + strings.Count(template, "%d")
	if verbs != 1 {
		return false
	}
	return strings.Count(template, "%") == 1
}

// Resolve resolves a path relative to the config file's directory, unless
// it is already absolute.
func (c RunConfig) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}

// ResolveAll resolves every path in paths.
func (c RunConfig) ResolveAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = c.Resolve(p)
	}
	return out
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
