// Package store persists classification runs to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rg0now/wd-pollution-survey/pkg/models"
)

// batchSize bounds the rows per INSERT, keeping statements well under the
// PostgreSQL limit of 65535 bind parameters.
const batchSize = 5000

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store writes verdict tables keyed by run and Gaia source ID.
type Store struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// Open connects to the database at dsn and verifies the connection within
// timeout.
func Open(ctx context.Context, dsn, table string, timeout time.Duration, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s, err := New(db, table, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s.logger.Info("database connection established", "table", table)
	return s, nil
}

// New wraps an open database handle.
func New(db *sql.DB, table string, logger *slog.Logger) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		table:  table,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureTable creates the verdict table if it does not exist.
func (s *Store) EnsureTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL(s.table)); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
	run_id     uuid        NOT NULL,
	gaia_id    bigint      NOT NULL,
	verdict    smallint    NOT NULL CHECK (verdict IN (-1, 0, 1)),
	created_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, gaia_id)
)`
}

// SaveResults upserts results under runID in a single transaction.
func (s *Store) SaveResults(ctx context.Context, runID uuid.UUID, results []models.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(results); start += batchSize {
		end := min(start+batchSize, len(results))

		query, args, err := insertQuery(s.table, runID, results[start:end])
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert verdicts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit verdicts: %w", err)
	}

	s.logger.Info("verdicts stored", "run_id", runID, "objects", len(results))
	return nil
}

func insertQuery(table string, runID uuid.UUID, results []models.Result) (string, []any, error) {
	b := psql.Insert(table).Columns("run_id", "gaia_id", "verdict")
	for _, r := range results {
		b = b.Values(runID, int64(r.ID), r.Verdict.Code())
	}
	return b.Suffix("ON CONFLICT (run_id, gaia_id) DO UPDATE SET verdict = EXCLUDED.verdict").ToSql()
}

// Results returns the stored verdicts of a run ordered by Gaia source ID.
func (s *Store) Results(ctx context.Context, runID uuid.UUID) ([]models.Result, error) {
	query, args, err := selectQuery(s.table, runID)
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var id int64
		var code int
		if err := rows.Scan(&id, &code); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		v, err := models.VerdictFromCode(code)
		if err != nil {
			return nil, err
		}
		results = append(results, models.Result{RunID: runID, ID: models.ID(id), Verdict: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

func selectQuery(table string, runID uuid.UUID) (string, []any, error) {
	return psql.Select("gaia_id", "verdict").
		From(table).
		Where(sq.Eq{"run_id": runID.String()}).
		OrderBy("gaia_id").
		ToSql()
}
