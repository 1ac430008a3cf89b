// Package config loads analysis settings for the agreement command from a
// JSON file. Every field is optional; flags given on the command line win.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/domain/model"
	"github.com/nao1215/agreement/report"
)

// maxFileSize bounds the config file (1MB).
const maxFileSize = 1 * 1024 * 1024

// Config mirrors the command line flags. A nil field means "not set".
type Config struct {
	// Analysis
	Data        *string `json:"data,omitempty"`
	XLSForm     *string `json:"xlsform,omitempty"`
	GroupColumn *string `json:"group_column,omitempty"`
	First       *string `json:"first,omitempty"`
	Last        *string `json:"last,omitempty"`
	Separator   *string `json:"separator,omitempty"` // ":" or "-"
	Scoring     *string `json:"scoring,omitempty"`   // "modal" or "unanimous"

	// Loading
	MissingTokens []string `json:"missing_tokens,omitempty"`
	Sheet         *string  `json:"sheet,omitempty"`

	// Output
	Export      *string `json:"export,omitempty"`
	Format      *string `json:"format,omitempty"`
	Compression *string `json:"compression,omitempty"`
	Columns     *bool   `json:"columns,omitempty"`
	Chart       *string `json:"chart,omitempty"`
	DB          *string `json:"db,omitempty"`
}

// Empty returns a Config with all fields unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a .json file of at most 1MB and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != model.ExtJSON {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Separator != nil {
		if _, err := parseSeparator(*c.Separator); err != nil {
			return err
		}
	}
	if c.Scoring != nil {
		if _, err := agreement.ParseScoring(*c.Scoring); err != nil {
			return err
		}
	}
	if c.Format != nil {
		if _, err := report.ParseOutputFormat(*c.Format); err != nil {
			return err
		}
	}
	if c.Compression != nil {
		ct, ok := model.ParseCompressionType(*c.Compression)
		if !ok {
			return fmt.Errorf("unknown compression %q", *c.Compression)
		}
		if ct == model.CompressionBZ2 {
			return fmt.Errorf("bz2 compression cannot be written")
		}
	}
	return nil
}

func parseSeparator(s string) (rune, error) {
	switch s {
	case "", string(model.DefaultSeparator):
		return model.DefaultSeparator, nil
	case string(model.AlternateSeparator):
		return model.AlternateSeparator, nil
	default:
		return 0, fmt.Errorf("%w: %q", agreement.ErrInvalidSeparator, s)
	}
}

func stringOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

// GetData returns the dataset path or "".
func (c *Config) GetData() string { return stringOr(c.Data, "") }

// GetXLSForm returns the form path or "".
func (c *Config) GetXLSForm() string { return stringOr(c.XLSForm, "") }

// GetGroupColumn returns the group column or "".
func (c *Config) GetGroupColumn() string { return stringOr(c.GroupColumn, "") }

// GetFirst returns the first mask column or "".
func (c *Config) GetFirst() string { return stringOr(c.First, "") }

// GetLast returns the last mask column or "".
func (c *Config) GetLast() string { return stringOr(c.Last, "") }

// GetSheet returns the XLSX sheet or "".
func (c *Config) GetSheet() string { return stringOr(c.Sheet, "") }

// GetExport returns the export path or "".
func (c *Config) GetExport() string { return stringOr(c.Export, "") }

// GetChart returns the chart path or "".
func (c *Config) GetChart() string { return stringOr(c.Chart, "") }

// GetDB returns the run history database path or "".
func (c *Config) GetDB() string { return stringOr(c.DB, "") }

// GetSeparator returns the group separator, ':' by default.
func (c *Config) GetSeparator() rune {
	sep, err := parseSeparator(stringOr(c.Separator, ""))
	if err != nil {
		return model.DefaultSeparator
	}
	return sep
}

// GetScoring returns the scoring, modal by default.
func (c *Config) GetScoring() agreement.Scoring {
	s, err := agreement.ParseScoring(stringOr(c.Scoring, ""))
	if err != nil {
		return agreement.ScoringModal
	}
	return s
}

// GetMissingTokens returns the missing tokens, or the defaults when unset.
func (c *Config) GetMissingTokens() []string {
	if c.MissingTokens == nil {
		return model.DefaultMissingTokens
	}
	return c.MissingTokens
}

// GetFormat returns the export format. When unset it follows the export path
// extension, then CSV.
func (c *Config) GetFormat() report.OutputFormat {
	if c.Format != nil {
		if f, err := report.ParseOutputFormat(*c.Format); err == nil {
			return f
		}
	}
	if export := c.GetExport(); export != "" {
		ext := filepath.Ext(model.RemoveCompressionExtension(export))
		if f, err := report.ParseOutputFormat(ext); err == nil {
			return f
		}
	}
	return report.OutputFormatCSV
}

// GetCompression returns the export compression. When unset it follows the
// export path extension.
func (c *Config) GetCompression() model.CompressionType {
	if c.Compression != nil {
		if ct, ok := model.ParseCompressionType(*c.Compression); ok {
			return ct
		}
	}
	return model.DetectCompressionType(c.GetExport())
}

// GetColumns reports whether per-column rows are exported.
func (c *Config) GetColumns() bool {
	return c.Columns != nil && *c.Columns
}

// ExportOptions builds report options from the output settings.
func (c *Config) ExportOptions() report.ExportOptions {
	return report.NewExportOptions().
		WithFormat(c.GetFormat()).
		WithCompression(c.GetCompression()).
		WithColumns(c.GetColumns())
}

// LoadOptions builds loader options from the loading settings.
func (c *Config) LoadOptions() agreement.LoadOptions {
	return agreement.NewLoadOptions().
		WithMissingTokens(c.GetMissingTokens()...).
		WithSheet(c.GetSheet())
}

// Merge copies every field set in other over c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	mergeString := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	mergeString(&c.Data, other.Data)
	mergeString(&c.XLSForm, other.XLSForm)
	mergeString(&c.GroupColumn, other.GroupColumn)
	mergeString(&c.First, other.First)
	mergeString(&c.Last, other.Last)
	mergeString(&c.Separator, other.Separator)
	mergeString(&c.Scoring, other.Scoring)
	mergeString(&c.Sheet, other.Sheet)
	mergeString(&c.Export, other.Export)
	mergeString(&c.Format, other.Format)
	mergeString(&c.Compression, other.Compression)
	mergeString(&c.Chart, other.Chart)
	mergeString(&c.DB, other.DB)
	if other.MissingTokens != nil {
		c.MissingTokens = other.MissingTokens
	}
	if other.Columns != nil {
		c.Columns = other.Columns
	}
}
