package agreement

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/nao1215/agreement/domain/model"
	"github.com/xuri/excelize/v2"
)

// File format delimiters
const (
	// csvDelimiter is the delimiter for CSV files
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV files
	tsvDelimiter = '\t'
)

// cancelCheckInterval is how many rows are read between context checks.
const cancelCheckInterval = 1024

// LoadOptions controls how a dataset file becomes a table.
type LoadOptions struct {
	// MissingTokens are cell contents read as missing answers
	MissingTokens []string
	// Sheet selects the XLSX worksheet; empty means the first sheet
	Sheet string
}

// NewLoadOptions creates LoadOptions with the default missing tokens.
func NewLoadOptions() LoadOptions {
	return LoadOptions{MissingTokens: model.DefaultMissingTokens}
}

// WithMissingTokens replaces the tokens read as missing. The empty cell is always missing.
func (o LoadOptions) WithMissingTokens(tokens ...string) LoadOptions {
	o.MissingTokens = tokens
	return o
}

// WithSheet selects the XLSX worksheet to read.
func (o LoadOptions) WithSheet(name string) LoadOptions {
	o.Sheet = name
	return o
}

func loadOptions(opts []LoadOptions) LoadOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return NewLoadOptions()
}

// LoadTable reads a CSV, TSV, LTSV, XLSX or Parquet file, optionally
// compressed with gzip, bzip2, xz or zstd, into a table. Column types are
// inferred: columns whose answers all parse as numbers hold numbers, all
// others hold text.
func LoadTable(ctx context.Context, path string, opts ...LoadOptions) (*model.Table, error) {
	ec := NewErrorContext("load table", path)

	fileType, compression := model.DetectFileType(path)
	if fileType == model.FileTypeUnsupported {
		return nil, ec.Error(ErrUnsupportedFormat)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ec.Error(ErrFileNotFound)
		}
		return nil, ec.Error(err)
	}
	defer f.Close()

	table, err := LoadTableFromReader(ctx, f, fileType, compression, model.TableFromFilePath(path), opts...)
	if err != nil {
		return nil, ec.Error(err)
	}
	return table, nil
}

// LoadTableFromReader reads a dataset of the given format from r.
func LoadTableFromReader(
	ctx context.Context,
	r io.Reader,
	fileType model.FileType,
	compression model.CompressionType,
	name string,
	opts ...LoadOptions,
) (*model.Table, error) {
	options := loadOptions(opts)

	reader, cleanup, err := NewCompressionHandler(compression).CreateReader(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cleanup() // Ignore close error in cleanup
	}()

	var (
		header  model.Header
		records []model.Record
	)
	switch fileType {
	case model.FileTypeCSV:
		header, records, err = parseDelimited(ctx, reader, csvDelimiter)
	case model.FileTypeTSV:
		header, records, err = parseDelimited(ctx, reader, tsvDelimiter)
	case model.FileTypeLTSV:
		header, records, err = parseLTSV(ctx, reader)
	case model.FileTypeXLSX:
		header, records, err = parseXLSX(reader, options.Sheet)
	case model.FileTypeParquet:
		header, records, err = parseParquet(ctx, reader)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		return nil, ErrEmptyData
	}
	if err := validateColumnNames(header); err != nil {
		return nil, err
	}

	return model.NewTableFromRecords(name, header, records, model.NewMissingSet(options.MissingTokens)), nil
}

// validateColumnNames checks for duplicate column names and returns error if found.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool, len(columns))
	for _, col := range columns {
		trimmedCol := strings.TrimSpace(col)
		if columnsSeen[trimmedCol] {
			return NewErrorContext("validate header", "").WithColumn(col).Error(model.ErrDuplicateColumnName)
		}
		columnsSeen[trimmedCol] = true
	}
	return nil
}

// parseDelimited reads CSV or TSV. Rows may be ragged; the table pads them.
func parseDelimited(ctx context.Context, r io.Reader, delimiter rune) (model.Header, []model.Record, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	first, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyData
	}
	if err != nil {
		return nil, nil, err
	}
	header := model.NewHeader(first)

	var records []model.Record
	for i := 0; ; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		records = append(records, model.NewRecord(record))
	}
	return header, records, nil
}

// parseLTSV reads label:value pairs. Columns are ordered by first appearance.
func parseLTSV(ctx context.Context, r io.Reader) (model.Header, []model.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var header model.Header
	position := make(map[string]int)
	var rows []map[string]string

	for i := 0; scanner.Scan(); i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		row := make(map[string]string)
		for _, pair := range strings.Split(line, "\t") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			if _, ok := position[key]; !ok {
				position[key] = len(header)
				header = append(header, key)
			}
			row[key] = strings.TrimSpace(kv[1])
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyData
	}

	records := make([]model.Record, len(rows))
	for i, row := range rows {
		record := make(model.Record, len(header))
		for key, value := range row {
			record[position[key]] = value
		}
		records[i] = record
	}
	return header, records, nil
}

// parseXLSX reads one worksheet; the first row is the header.
func parseXLSX(r io.Reader, sheet string) (model.Header, []model.Record, error) {
	xlsxFile, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = xlsxFile.Close() // Ignore close error
	}()

	if sheet == "" {
		sheets := xlsxFile.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, ErrEmptyData
		}
		sheet = sheets[0]
	}

	rows, err := xlsxFile.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyData
	}

	header := model.NewHeader(rows[0])
	records := make([]model.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, model.NewRecord(row))
	}
	return header, records, nil
}

// parseParquet reads every row group. Parquet needs random access, so the
// whole stream is buffered.
func parseParquet(ctx context.Context, r io.Reader) (model.Header, []model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, nil, ErrEmptyData
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	schema := table.Schema()
	header := make(model.Header, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()

	var records []model.Record
	for tableReader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		batch := tableReader.Record()
		for i := 0; i < int(batch.NumRows()); i++ {
			record := make(model.Record, batch.NumCols())
			for j, col := range batch.Columns() {
				if col.IsNull(i) {
					continue
				}
				record[j] = col.ValueStr(i)
			}
			records = append(records, record)
		}
	}
	if err := tableReader.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading table records: %w", err)
	}
	return header, records, nil
}
