package agreement

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/agreement/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "group,name,age\n1,Alice,30\n1,Alicia,30\n2,Bob,41\n2,Robert,40\n"

// checkSampleTable asserts the shape every sample fixture shares.
func checkSampleTable(t *testing.T, table *model.Table) {
	t.Helper()
	assert.Equal(t, model.Header{"group", "name", "age"}, table.Header())
	require.Equal(t, 4, table.Len())

	ages, err := table.Column("age")
	require.NoError(t, err)
	f, ok := ages[0].Float()
	require.True(t, ok, "age should be numeric")
	assert.Equal(t, 30.0, f)

	names, err := table.Column("name")
	require.NoError(t, err)
	assert.Equal(t, "Robert", names[3].String())
}

func writeFile(t *testing.T, path string, data []byte) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestLoadTable_Formats(t *testing.T) {
	t.Parallel()

	t.Run("csv", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.csv"), []byte(sampleCSV))
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "survey", table.Name())
		checkSampleTable(t, table)
	})

	t.Run("tsv", func(t *testing.T) {
		t.Parallel()
		data := strings.ReplaceAll(sampleCSV, ",", "\t")
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.tsv"), []byte(data))
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)
		checkSampleTable(t, table)
	})

	t.Run("ltsv", func(t *testing.T) {
		t.Parallel()
		data := "group:1\tname:Alice\tage:30\n" +
			"group:1\tname:Alicia\tage:30\n" +
			"\n" +
			"group:2\tname:Bob\tage:41\n" +
			"group:2\tname:Robert\tage:40\n"
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.ltsv"), []byte(data))
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)
		checkSampleTable(t, table)
	})

	t.Run("xlsx", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "survey.xlsx")
		writeXLSX(t, path, "Sheet1", sampleRows())
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)
		checkSampleTable(t, table)
	})

	t.Run("xlsx named sheet", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "survey.xlsx")
		writeXLSX(t, path, "answers", sampleRows())
		table, err := LoadTable(context.Background(), path, NewLoadOptions().WithSheet("answers"))
		require.NoError(t, err)
		checkSampleTable(t, table)

		_, err = LoadTable(context.Background(), path, NewLoadOptions().WithSheet("missing"))
		require.Error(t, err)
	})

	t.Run("parquet", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.parquet"), sampleParquet(t))
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)
		checkSampleTable(t, table)
	})
}

func TestLoadTable_Compressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		compress func(t *testing.T, data []byte) []byte
	}{
		{name: "gzip", file: "survey.csv.gz", compress: gzipBytes},
		{name: "xz", file: "survey.csv.xz", compress: xzBytes},
		{name: "zstd", file: "survey.csv.zst", compress: zstdBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, filepath.Join(t.TempDir(), tt.file), tt.compress(t, []byte(sampleCSV)))
			table, err := LoadTable(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, "survey", table.Name())
			checkSampleTable(t, table)
		})
	}
}

func TestLoadTable_MissingValues(t *testing.T) {
	t.Parallel()

	data := "group,answer,score\n1,NA,1\n1,,N/A\n2,n/a,3\n"
	path := writeFile(t, filepath.Join(t.TempDir(), "missing.csv"), []byte(data))

	t.Run("default tokens", func(t *testing.T) {
		t.Parallel()
		table, err := LoadTable(context.Background(), path)
		require.NoError(t, err)

		answers, err := table.Column("answer")
		require.NoError(t, err)
		assert.True(t, answers[0].IsMissing())
		assert.True(t, answers[1].IsMissing())
		assert.Equal(t, "n/a", answers[2].String(), "only listed tokens are missing")

		scores, err := table.Column("score")
		require.NoError(t, err)
		assert.True(t, scores[1].IsMissing())
		_, ok := scores[2].Float()
		assert.True(t, ok)
	})

	t.Run("custom tokens", func(t *testing.T) {
		t.Parallel()
		table, err := LoadTable(context.Background(), path, NewLoadOptions().WithMissingTokens("n/a"))
		require.NoError(t, err)

		answers, err := table.Column("answer")
		require.NoError(t, err)
		assert.Equal(t, "NA", answers[0].String())
		assert.True(t, answers[1].IsMissing())
		assert.True(t, answers[2].IsMissing())
	})
}

func TestLoadTable_Errors(t *testing.T) {
	t.Parallel()

	t.Run("file not found", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "none.csv"))
		assert.True(t, errors.Is(err, ErrFileNotFound))
	})

	t.Run("unsupported extension", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.txt"), []byte(sampleCSV))
		_, err := LoadTable(context.Background(), path)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "empty.csv"), nil)
		_, err := LoadTable(context.Background(), path)
		assert.True(t, errors.Is(err, ErrEmptyData))
	})

	t.Run("duplicate columns", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, filepath.Join(t.TempDir(), "dup.csv"), []byte("a,b,a\n1,2,3\n"))
		_, err := LoadTable(context.Background(), path)
		assert.True(t, errors.Is(err, model.ErrDuplicateColumnName))
		assert.Contains(t, err.Error(), "column: a")
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		path := writeFile(t, filepath.Join(t.TempDir(), "survey.csv"), []byte(sampleCSV))
		_, err := LoadTable(ctx, path)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestLoadTableFromReader(t *testing.T) {
	t.Parallel()

	t.Run("ragged rows are padded", func(t *testing.T) {
		t.Parallel()
		data := "group,a,b\n1,x\n1,x,y,z\n"
		table, err := LoadTableFromReader(context.Background(), strings.NewReader(data),
			model.FileTypeCSV, model.CompressionNone, "ragged")
		require.NoError(t, err)
		require.Equal(t, 2, table.Len())
		assert.Len(t, table.Rows()[0], 3)
		assert.True(t, table.Rows()[0][2].IsMissing())
		assert.Equal(t, "y", table.Rows()[1][2].String())
	})

	t.Run("compressed reader", func(t *testing.T) {
		t.Parallel()
		table, err := LoadTableFromReader(context.Background(), bytes.NewReader(gzipBytes(t, []byte(sampleCSV))),
			model.FileTypeCSV, model.CompressionGZ, "survey")
		require.NoError(t, err)
		checkSampleTable(t, table)
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTableFromReader(context.Background(), strings.NewReader(sampleCSV),
			model.FileTypeUnsupported, model.CompressionNone, "survey")
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})
}

func sampleRows() [][]string {
	return [][]string{
		{"group", "name", "age"},
		{"1", "Alice", "30"},
		{"1", "Alicia", "30"},
		{"2", "Bob", "41"},
		{"2", "Robert", "40"},
	}
}

func writeXLSX(t *testing.T, path, sheet string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// sampleParquet encodes the sample rows with an integer group, a string
// name and an integer age column.
func sampleParquet(t *testing.T) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "group", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "age", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	builder.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 1, 2, 2}, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues([]string{"Alice", "Alicia", "Bob", "Robert"}, nil)
	builder.Field(2).(*array.Int64Builder).AppendValues([]int64{30, 30, 41, 40}, nil)
	record := builder.NewRecord()
	defer record.Release()

	var buf bytes.Buffer
	writer, err := pqarrow.NewFileWriter(schema, &buf, nil, pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, writer.Write(record))
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func xzBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}
