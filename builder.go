package agreement

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/nao1215/agreement/domain/model"
)

// Builder configures an agreement analysis of one dataset.
//
// The typical usage pattern is:
//
//	dataset, err := agreement.NewBuilder().
//		AddPath("submissions.csv").
//		WithForm("form.xlsx").
//		GroupBy("group_id").
//		Between("q1", "q40").
//		Analyze(ctx)
//
// Analyze calls Build when it has not been called yet.
type Builder struct {
	// path is the dataset file
	path string
	// reader is an alternative in-memory dataset source. Its bytes are kept in
	// readerData after the first load so Analyze can run again.
	reader            io.Reader
	readerData        []byte
	readerName        string
	readerType        model.FileType
	readerCompression model.CompressionType
	// sources counts AddPath and AddReader calls
	sources int

	formPath   string
	formFields []model.FormField

	groupColumn string
	first       string
	last        string
	separator   rune
	scoring     Scoring

	loadOptions LoadOptions
	logger      *slog.Logger
	built       bool
}

// NewBuilder creates a new analysis builder.
func NewBuilder() *Builder {
	return &Builder{
		separator:   model.DefaultSeparator,
		scoring:     ScoringModal,
		loadOptions: NewLoadOptions(),
		logger:      slog.New(slog.DiscardHandler),
	}
}

// AddPath sets the dataset file. Supported: .csv, .tsv, .ltsv, .xlsx,
// .parquet, optionally compressed with .gz, .bz2, .xz or .zst.
func (b *Builder) AddPath(path string) *Builder {
	b.path = path
	b.sources++
	b.built = false
	return b
}

// AddReader sets an in-memory dataset source. The reader is drained once by
// the first Analyze and buffered, so later calls see the same data.
func (b *Builder) AddReader(reader io.Reader, tableName string, fileType model.FileType, compression model.CompressionType) *Builder {
	b.reader = reader
	b.readerData = nil
	b.readerName = tableName
	b.readerType = fileType
	b.readerCompression = compression
	b.sources++
	b.built = false
	return b
}

// WithForm reads the XlsForm at path and uses it to drop non-answerable columns.
func (b *Builder) WithForm(path string) *Builder {
	b.formPath = path
	b.built = false
	return b
}

// WithFormFields uses already parsed form fields instead of an XlsForm file.
func (b *Builder) WithFormFields(fields []model.FormField) *Builder {
	b.formFields = fields
	b.built = false
	return b
}

// GroupBy sets the group column. Without it every row is in one group.
func (b *Builder) GroupBy(column string) *Builder {
	b.groupColumn = column
	return b
}

// Between bounds the compared columns. Empty names mean the table edges.
func (b *Builder) Between(first, last string) *Builder {
	b.first = first
	b.last = last
	return b
}

// WithSeparator sets the group prefix separator, ':' (default) or '-'.
func (b *Builder) WithSeparator(sep rune) *Builder {
	b.separator = sep
	b.built = false
	return b
}

// WithScoring selects the column scoring.
func (b *Builder) WithScoring(s Scoring) *Builder {
	b.scoring = s
	return b
}

// WithLoadOptions sets how the dataset file is read.
func (b *Builder) WithLoadOptions(opts LoadOptions) *Builder {
	b.loadOptions = opts
	return b
}

// WithLogger sets the logger for load and analysis progress. Nil restores the silent default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b.logger = logger
	return b
}

// Build validates the configured inputs and returns the same builder.
func (b *Builder) Build(_ context.Context) (*Builder, error) {
	v := newValidator()

	switch {
	case b.sources == 0:
		return nil, errors.New("a dataset path or reader must be provided")
	case b.sources > 1:
		return nil, errors.New("exactly one dataset path or reader must be provided")
	}

	if b.reader != nil || b.path == "" {
		var source any = b.reader
		if b.readerData != nil {
			source = bytes.NewReader(b.readerData)
		}
		if err := v.validateReader(source, b.readerName, b.readerType); err != nil {
			return nil, err
		}
	} else if err := v.validatePath(b.path, model.IsSupportedFile); err != nil {
		return nil, err
	}

	if b.formPath != "" {
		if err := v.validatePath(b.formPath, isFormFile); err != nil {
			return nil, NewErrorContext("validate form", b.formPath).Error(err)
		}
	}
	if err := v.validateSeparator(b.separator); err != nil {
		return nil, err
	}

	b.built = true
	return b, nil
}

// Analyze loads the dataset and form, resolves the column mask and computes
// the agreement of every group.
func (b *Builder) Analyze(ctx context.Context) (*Dataset, error) {
	if !b.built {
		if _, err := b.Build(ctx); err != nil {
			return nil, err
		}
	}

	table, err := b.loadTable(ctx)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("table loaded",
		slog.String("table", table.Name()),
		slog.Int("rows", table.Len()),
		slog.Int("columns", len(table.Header())))

	form := b.formFields
	if b.formPath != "" {
		form, err = LoadForm(b.formPath)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("form loaded", slog.String("path", b.formPath), slog.Int("fields", len(form)))
	}

	dataset, err := Analyze(table, AnalyzeOptions{
		GroupColumn: b.groupColumn,
		First:       b.first,
		Last:        b.last,
		Form:        form,
		Separator:   b.separator,
		Scoring:     b.scoring,
	})
	if err != nil {
		return nil, err
	}

	b.logger.Debug("mask resolved", slog.Int("columns", len(dataset.Mask)), slog.Any("mask", dataset.Mask))
	for _, g := range dataset.Groups {
		b.logger.Debug("group analyzed",
			slog.String("group", g.GroupID.String()),
			slog.Int("size", g.Size),
			slog.Int("comparisons", g.Comparisons),
			slog.Float64("total_agreement", g.TotalAgreement))
	}
	if n := len(dataset.Unaccounted); n > 0 {
		b.logger.Warn("rows without a group identifier were skipped",
			slog.String("group_column", b.groupColumn), slog.Int("rows", n))
	}
	return dataset, nil
}

func (b *Builder) loadTable(ctx context.Context) (*model.Table, error) {
	if b.reader != nil {
		if b.readerData == nil {
			data, err := io.ReadAll(b.reader)
			if err != nil {
				return nil, NewErrorContext("load table", "").WithDetails(b.readerName).Error(err)
			}
			b.readerData = data
		}
		table, err := LoadTableFromReader(ctx, bytes.NewReader(b.readerData), b.readerType, b.readerCompression, b.readerName, b.loadOptions)
		if err != nil {
			return nil, NewErrorContext("load table", "").WithDetails(b.readerName).Error(err)
		}
		return table, nil
	}
	return LoadTable(ctx, b.path, b.loadOptions)
}
