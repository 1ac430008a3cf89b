// Package store keeps a history of agreement runs in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/nao1215/agreement"
	"github.com/nao1215/agreement/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("store: run not found")

// Store is a SQLite backed run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migration messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Run is one stored analysis.
type Run struct {
	ID          string
	Source      string
	GroupColumn string
	Scoring     string
	Mask        []string
	Unaccounted int
	CreatedAt   time.Time
	// Groups is filled by Store.Run, not by Store.Runs
	Groups []GroupResult
}

// GroupResult is the stored summary of one group.
type GroupResult struct {
	Position       int
	GroupID        string
	GroupKind      string
	Size           int
	Comparisons    int
	TotalAgreement float64
}

// Defined reports whether the group had at least one point of comparison.
func (g GroupResult) Defined() bool {
	return g.Comparisons > 0
}

// ColumnResult is the stored agreement of one group on one column.
type ColumnResult struct {
	Column     string
	Observed   int
	Missing    int
	ModalCount int
	Rate       float64
	// Answer is empty when no single answer was most frequent
	Answer    string
	Tied      bool
	Unanimous bool
}

// Open opens (creating if needed) the database at path and applies pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrateUp(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp runs all pending migrations up to the latest version.
func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed: that would close the shared database handle.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (s *Store) Version() (uint, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: s.logger}
	return m, nil
}

// migrateLogger implements migrate.Logger on top of slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// SaveDataset stores a dataset's results in one transaction and returns the new run ID.
func (s *Store) SaveDataset(ctx context.Context, source string, d *agreement.Dataset) (string, error) {
	if d == nil {
		return "", errors.New("store: nil dataset")
	}
	mask, err := json.Marshal(d.Mask)
	if err != nil {
		return "", err
	}
	scoring := agreement.ScoringModal.String()
	if len(d.Groups) > 0 {
		scoring = d.Groups[0].Scoring.String()
	}

	runID := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, group_column, scoring, mask, unaccounted, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, source, d.GroupColumn, scoring, string(mask), len(d.Unaccounted),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	groupStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO group_results (run_id, position, group_id, group_kind, size, comparisons, total_agreement)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer groupStmt.Close()

	columnStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO column_results (run_id, position, column_name, observed, missing, modal_count, rate, answer, tied, unanimous)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer columnStmt.Close()

	for pos, g := range d.Groups {
		if _, err := groupStmt.ExecContext(ctx,
			runID, pos, nullableValue(g.GroupID), g.GroupID.Kind().String(),
			g.Size, g.Comparisons, g.TotalAgreement,
		); err != nil {
			return "", fmt.Errorf("failed to insert group %d: %w", pos, err)
		}
		for _, c := range g.Columns {
			if _, err := columnStmt.ExecContext(ctx,
				runID, pos, c.Column, c.Observed, c.Missing, c.ModalCount, c.Rate,
				nullableValue(c.Answer), c.Tied, c.Unanimous,
			); err != nil {
				return "", fmt.Errorf("failed to insert column %s of group %d: %w", c.Column, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug("run saved", slog.String("run_id", runID), slog.Int("groups", len(d.Groups)))
	return runID, nil
}

func nullableValue(v model.Value) sql.NullString {
	if v.IsMissing() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

const runColumns = `run_id, source, group_column, scoring, mask, unaccounted, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r         Run
		mask      string
		createdAt string
	)
	if err := row.Scan(&r.ID, &r.Source, &r.GroupColumn, &r.Scoring, &mask, &r.Unaccounted, &createdAt); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(mask), &r.Mask); err != nil {
		return Run{}, fmt.Errorf("corrupt mask for run %s: %w", r.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("corrupt timestamp for run %s: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}

// Runs lists stored runs, newest first, without their group results.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns one run with its group results in output order.
func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, group_id, group_kind, size, comparisons, total_agreement
		 FROM group_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			g  GroupResult
			id sql.NullString
		)
		if err := rows.Scan(&g.Position, &id, &g.GroupKind, &g.Size, &g.Comparisons, &g.TotalAgreement); err != nil {
			return Run{}, err
		}
		g.GroupID = id.String
		r.Groups = append(r.Groups, g)
	}
	return r, rows.Err()
}

// ColumnResults returns the per-column agreement of the group at position in a run.
func (s *Store) ColumnResults(ctx context.Context, runID string, position int) ([]ColumnResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, observed, missing, modal_count, rate, answer, tied, unanimous
		 FROM column_results WHERE run_id = ? AND position = ? ORDER BY rowid`, runID, position)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ColumnResult
	for rows.Next() {
		var (
			c      ColumnResult
			answer sql.NullString
		)
		if err := rows.Scan(&c.Column, &c.Observed, &c.Missing, &c.ModalCount, &c.Rate, &answer, &c.Tied, &c.Unanimous); err != nil {
			return nil, err
		}
		c.Answer = answer.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its results.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
