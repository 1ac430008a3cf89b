package report

import (
	"fmt"
	"strings"

	"github.com/nao1215/agreement/domain/model"
)

// OutputFormat represents the export file format
type OutputFormat int

const (
	// OutputFormatCSV represents CSV output format
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV
	// OutputFormatLTSV represents LTSV output format
	OutputFormatLTSV
	// OutputFormatJSON represents a JSON array of objects
	OutputFormatJSON
	// OutputFormatXLSX represents an Excel workbook with one sheet
	OutputFormatXLSX
	// OutputFormatParquet represents a Parquet file
	OutputFormatParquet
)

// String returns the string representation of OutputFormat
func (f OutputFormat) String() string {
	switch f {
	case OutputFormatTSV:
		return "tsv"
	case OutputFormatLTSV:
		return "ltsv"
	case OutputFormatJSON:
		return "json"
	case OutputFormatXLSX:
		return "xlsx"
	case OutputFormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Extension returns the file extension for the format
func (f OutputFormat) Extension() string {
	switch f {
	case OutputFormatTSV:
		return model.ExtTSV
	case OutputFormatLTSV:
		return model.ExtLTSV
	case OutputFormatJSON:
		return model.ExtJSON
	case OutputFormatXLSX:
		return model.ExtXLSX
	case OutputFormatParquet:
		return model.ExtParquet
	default:
		return model.ExtCSV
	}
}

// ParseOutputFormat maps a format name such as "tsv" to an OutputFormat.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "", "csv":
		return OutputFormatCSV, nil
	case "tsv":
		return OutputFormatTSV, nil
	case "ltsv":
		return OutputFormatLTSV, nil
	case "json":
		return OutputFormatJSON, nil
	case "xlsx":
		return OutputFormatXLSX, nil
	case "parquet":
		return OutputFormatParquet, nil
	default:
		return OutputFormatCSV, fmt.Errorf("report: unknown output format %q", name)
	}
}

// ExportOptions configures how agreement results are exported.
//
// Example:
//
//	options := report.NewExportOptions().
//		WithFormat(report.OutputFormatTSV).
//		WithCompression(model.CompressionGZ).
//		WithColumns(true)
type ExportOptions struct {
	// Format specifies the output file format
	Format OutputFormat
	// Compression specifies the compression type
	Compression model.CompressionType
	// Columns exports one row per group and masked column instead of one row per group
	Columns bool
}

// NewExportOptions creates default export options (CSV, no compression, one row per group).
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      OutputFormatCSV,
		Compression: model.CompressionNone,
	}
}

// WithFormat sets the output file format.
func (o ExportOptions) WithFormat(format OutputFormat) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to the output. Bzip2 cannot be written.
func (o ExportOptions) WithCompression(compression model.CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// WithColumns switches to per-column detail rows.
func (o ExportOptions) WithColumns(columns bool) ExportOptions {
	o.Columns = columns
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
