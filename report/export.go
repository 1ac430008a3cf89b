package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/domain/model"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoDataset is returned when there is nothing to export.
	ErrNoDataset = errors.New("report: no dataset to export")

	// ErrInvalidLabel is returned when a column name cannot be written as an
	// LTSV label because it is empty or contains ':', a tab or a line break. Grouped form
	// columns such as "household:age" hit this; export them as CSV, TSV,
	// JSON, XLSX or Parquet instead.
	ErrInvalidLabel = errors.New("report: column name is not a valid LTSV label")
)

// Export writes the dataset's agreement results to path.
//
// Example usage:
//
//	options := report.NewExportOptions().
//		WithFormat(report.OutputFormatXLSX)
//	err := report.Export("agreement.xlsx", dataset, options)
func Export(path string, d *agreement.Dataset, opts ExportOptions) error {
	if d == nil {
		return ErrNoDataset
	}
	return exportSheet(path, resultSheet(d, opts), opts)
}

// ExportTable writes any table, such as a disagreement view, to path.
func ExportTable(path string, t *model.Table, opts ExportOptions) error {
	if t == nil {
		return ErrNoDataset
	}
	return exportSheet(path, tableSheet(t), opts)
}

// Write writes the dataset's agreement results to w.
func Write(w io.Writer, d *agreement.Dataset, opts ExportOptions) error {
	if d == nil {
		return ErrNoDataset
	}
	return writeCompressed(w, resultSheet(d, opts), opts)
}

// WriteTable writes any table to w.
func WriteTable(w io.Writer, t *model.Table, opts ExportOptions) error {
	if t == nil {
		return ErrNoDataset
	}
	return writeCompressed(w, tableSheet(t), opts)
}

func resultSheet(d *agreement.Dataset, opts ExportOptions) *sheet {
	if opts.Columns {
		return columnSheet(d)
	}
	return summarySheet(d)
}

func exportSheet(path string, s *sheet, opts ExportOptions) (err error) {
	if err := checkLabels(s, opts.Format, path); err != nil {
		return err
	}
	w, cleanup, err := agreement.CreateWriterForFile(path, opts.Compression)
	if err != nil {
		return agreement.NewErrorContext("export", path).Error(err)
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = agreement.NewErrorContext("export", path).Error(cerr)
		}
	}()

	if err := writeSheet(w, s, opts.Format); err != nil {
		return agreement.NewErrorContext("export", path).WithDetails(opts.Format.String()).Error(err)
	}
	return nil
}

func writeCompressed(w io.Writer, s *sheet, opts ExportOptions) error {
	if err := checkLabels(s, opts.Format, ""); err != nil {
		return err
	}
	cw, cleanup, err := agreement.NewCompressionHandler(opts.Compression).CreateWriter(w)
	if err != nil {
		return err
	}
	if err := writeSheet(cw, s, opts.Format); err != nil {
		_ = cleanup()
		return err
	}
	return cleanup()
}

func writeSheet(w io.Writer, s *sheet, format OutputFormat) error {
	switch format {
	case OutputFormatCSV:
		return writeDelimited(w, s, ',')
	case OutputFormatTSV:
		return writeDelimited(w, s, '\t')
	case OutputFormatLTSV:
		return writeLTSV(w, s)
	case OutputFormatJSON:
		return writeJSON(w, s)
	case OutputFormatXLSX:
		return writeXLSX(w, s)
	case OutputFormatParquet:
		return writeParquet(w, s)
	default:
		return fmt.Errorf("report: unsupported output format: %v", format)
	}
}

func writeDelimited(w io.Writer, s *sheet, delimiter rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delimiter
	if err := writer.WriteAll(s.records()); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.name, err)
	}
	return nil
}

// checkLabels rejects headers that would not read back as the same LTSV labels.
func checkLabels(s *sheet, format OutputFormat, path string) error {
	if format != OutputFormatLTSV {
		return nil
	}
	for _, name := range s.header {
		if name == "" || strings.ContainsAny(name, ":\t\r\n") {
			return agreement.NewErrorContext("export", path).
				WithColumn(name).
				WithDetails(format.String()).
				Error(ErrInvalidLabel)
		}
	}
	return nil
}

// ltsvEscaper keeps values on one line and out of the label separator.
var ltsvEscaper = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func writeLTSV(w io.Writer, s *sheet) error {
	var sb strings.Builder
	for _, row := range s.rows {
		sb.Reset()
		for i, v := range row {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(s.header[i])
			sb.WriteByte(':')
			sb.WriteString(ltsvEscaper.Replace(formatCell(v)))
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, s *sheet) error {
	objects := make([]map[string]any, 0, len(s.rows))
	for _, row := range s.rows {
		obj := make(map[string]any, len(row))
		for i, v := range row {
			obj[s.header[i]] = v
		}
		objects = append(objects, obj)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(objects)
}

func writeXLSX(w io.Writer, s *sheet) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	name := xlsxSheetName(s.name)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}

	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for r, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := append([]any(nil), row...)
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

// xlsxSheetName fits Excel's 31 character sheet name limit.
func xlsxSheetName(name string) string {
	name = strings.NewReplacer(":", "_", "/", "_", "\\", "_", "?", "_", "*", "_", "[", "_", "]", "_").Replace(name)
	if name == "" {
		return "Sheet1"
	}
	if len(name) > 31 {
		return name[:31]
	}
	return name
}

// nopWriteCloser stops the parquet writer from closing the caller's writer.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func writeParquet(w io.Writer, s *sheet) error {
	fields := make([]arrow.Field, len(s.header))
	for i, name := range s.header {
		fields[i] = arrow.Field{Name: name, Type: arrowType(s.kinds[i]), Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	for _, row := range s.rows {
		for i, v := range row {
			appendCell(builder.Field(i), s.kinds[i], v)
		}
	}
	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(schema, nopWriteCloser{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet record: %w", err)
	}
	return writer.Close()
}

func arrowType(kind cellKind) arrow.DataType {
	switch kind {
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func appendCell(b array.Builder, kind cellKind, v any) {
	if v == nil {
		b.AppendNull()
		return
	}
	switch kind {
	case kindInt:
		b.(*array.Int64Builder).Append(int64(v.(int)))
	case kindFloat:
		b.(*array.Float64Builder).Append(v.(float64))
	case kindBool:
		b.(*array.BooleanBuilder).Append(v.(bool))
	default:
		b.(*array.StringBuilder).Append(formatCell(v))
	}
}
