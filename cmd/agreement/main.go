// Command agreement reports how consistently the members of each group answered
// the same survey questions.
//
// Usage:
//
//	agreement [flags] DATAFILE
//
// The data file is a submissions export (.csv, .tsv, .ltsv, .xlsx or .parquet,
// optionally compressed). Flags override values read from -config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/internal/config"
	"github.com/nao1215/agreement/report"
	"github.com/nao1215/agreement/store"
)

// Exit codes.
const (
	exitOK     = 0
	exitUsage  = 1
	exitInput  = 2
	exitColumn = 3
)

// usageError marks errors caused by the command line or config file.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("agreement", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: agreement [flags] DATAFILE")
		fs.PrintDefaults()
	}

	var (
		xlsform     string
		groupColumn string
		first       string
		last        string
	)
	fs.StringVar(&xlsform, "x", "", "XlsForm (.xlsx) used to drop columns that are not answers")
	fs.StringVar(&xlsform, "xlsform", "", "same as -x")
	fs.StringVar(&groupColumn, "g", "", "column whose value identifies the group of a row")
	fs.StringVar(&groupColumn, "group_column", "", "same as -g")
	fs.StringVar(&first, "f", "", "first column to compare")
	fs.StringVar(&first, "first", "", "same as -f")
	fs.StringVar(&last, "l", "", "last column to compare")
	fs.StringVar(&last, "last", "", "same as -l")
	dashSeparator := fs.Bool("s", false, "form groups are separated by '-' instead of ':'")
	scoring := fs.String("scoring", "", "column scoring: modal (default) or unanimous; use unanimous for the all-or-nothing totals of older agreement reports")
	missing := fs.String("missing", "", "comma separated cell values read as missing answers")
	sheet := fs.String("sheet", "", "worksheet to read from an .xlsx data file")
	configPath := fs.String("config", "", "JSON configuration file")
	export := fs.String("export", "", "write results to this file")
	format := fs.String("format", "", "export format: csv, tsv, ltsv, json, xlsx or parquet")
	compress := fs.String("compress", "", "export compression: none, gz, xz or zstd")
	columns := fs.Bool("columns", false, "export one row per group and column instead of per group")
	chart := fs.String("chart", "", "write a bar chart of group totals (.html or .png)")
	dbPath := fs.String("db", "", "SQLite database that keeps a history of runs")
	history := fs.Bool("history", false, "list the runs stored in -db and exit")
	verbose := fs.Bool("v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	flagCfg := config.Empty()
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "x", "xlsform":
			flagCfg.XLSForm = &v
		case "g", "group_column":
			flagCfg.GroupColumn = &v
		case "f", "first":
			flagCfg.First = &v
		case "l", "last":
			flagCfg.Last = &v
		case "s":
			sep := ":"
			if *dashSeparator {
				sep = "-"
			}
			flagCfg.Separator = &sep
		case "scoring":
			flagCfg.Scoring = scoring
		case "missing":
			flagCfg.MissingTokens = splitTokens(*missing)
		case "sheet":
			flagCfg.Sheet = sheet
		case "export":
			flagCfg.Export = export
		case "format":
			flagCfg.Format = format
		case "compress":
			flagCfg.Compression = compress
		case "columns":
			flagCfg.Columns = columns
		case "chart":
			flagCfg.Chart = chart
		case "db":
			flagCfg.DB = dbPath
		}
	})

	cfg := config.Empty()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return fail(logger, &usageError{err: err})
		}
		cfg = loaded
	}
	cfg.Merge(flagCfg)
	if err := cfg.Validate(); err != nil {
		return fail(logger, &usageError{err: err})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *history {
		return exitWith(logger, listRuns(ctx, stdout, cfg, logger))
	}

	switch fs.NArg() {
	case 0:
		if cfg.GetData() == "" {
			fs.Usage()
			return fail(logger, usagef("a data file is required"))
		}
	case 1:
		data := fs.Arg(0)
		cfg.Data = &data
	default:
		return fail(logger, usagef("expected one data file, got %d", fs.NArg()))
	}

	return exitWith(logger, analyze(ctx, stdout, cfg, logger))
}

func analyze(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	chartWriter, err := chartWriterFor(cfg.GetChart())
	if err != nil {
		return err
	}

	dataset, err := agreement.NewBuilder().
		AddPath(cfg.GetData()).
		WithForm(cfg.GetXLSForm()).
		GroupBy(cfg.GetGroupColumn()).
		Between(cfg.GetFirst(), cfg.GetLast()).
		WithSeparator(cfg.GetSeparator()).
		WithScoring(cfg.GetScoring()).
		WithLoadOptions(cfg.LoadOptions()).
		WithLogger(logger).
		Analyze(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteDatasetSummary(stdout, dataset); err != nil {
		return err
	}

	if path := cfg.GetExport(); path != "" {
		if err := report.Export(path, dataset, cfg.ExportOptions()); err != nil {
			return err
		}
		logger.Info("results exported", slog.String("path", path), slog.String("format", cfg.GetFormat().String()))
	}

	if path := cfg.GetChart(); path != "" {
		if err := writeFile(path, func(w io.Writer) error {
			return chartWriter(w, dataset.Groups)
		}); err != nil {
			return err
		}
		logger.Info("chart written", slog.String("path", path))
	}

	if path := cfg.GetDB(); path != "" {
		s, err := store.Open(ctx, path, store.WithLogger(logger))
		if err != nil {
			return err
		}
		defer s.Close()
		runID, err := s.SaveDataset(ctx, cfg.GetData(), dataset)
		if err != nil {
			return err
		}
		logger.Info("run saved", slog.String("db", path), slog.String("run_id", runID))
	}
	return nil
}

func listRuns(ctx context.Context, stdout io.Writer, cfg *config.Config, logger *slog.Logger) error {
	path := cfg.GetDB()
	if path == "" {
		return usagef("-history needs -db")
	}
	s, err := store.Open(ctx, path, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(ctx)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(stdout, "%s\t%s\t%s\tgroup_column=%s\tscoring=%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), r.Source, r.GroupColumn, r.Scoring); err != nil {
			return err
		}
	}
	return nil
}

type chartFunc func(io.Writer, []agreement.GroupSummary) error

func chartWriterFor(path string) (chartFunc, error) {
	if path == "" {
		return nil, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return report.WriteBarChartHTML, nil
	case ".png":
		return report.WriteBarChartPNG, nil
	default:
		return nil, usagef("chart path must end in .html or .png: %s", path)
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return write(f)
}

func splitTokens(s string) []string {
	tokens := strings.Split(s, ",")
	for i := range tokens {
		tokens[i] = strings.TrimSpace(tokens[i])
	}
	return tokens
}

func exitWith(logger *slog.Logger, err error) int {
	if err == nil {
		return exitOK
	}
	return fail(logger, err)
}

func fail(logger *slog.Logger, err error) int {
	logger.Error("agreement failed", slog.Any("error", err))
	return exitCode(err)
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, agreement.ErrColumnNotFound), errors.Is(err, agreement.ErrInvalidRange):
		return exitColumn
	case errors.As(err, &usage), errors.Is(err, agreement.ErrInvalidSeparator):
		return exitUsage
	default:
		return exitInput
	}
}
