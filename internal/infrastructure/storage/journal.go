package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

const journalTable = "outcome_journal"

// Journal persists workflow results into SQLite or Postgres.
type Journal struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
}

var _ ports.Journal = (*Journal)(nil)

// Open connects to the DSN and ensures the schema exists.
// postgres:// and postgresql:// select lib/pq; sqlite:// or a bare path select SQLite.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	driver, source, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create journal directory: %w", err)
			}
		}
		source += "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s journal: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	j := NewJournal(db, driver)
	if err := j.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return j, nil
}

// NewJournal wraps an existing *sql.DB; driver picks the placeholder style.
func NewJournal(db *sql.DB, driver string) *Journal {
	var format sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		format = sq.Dollar
	}
	return &Journal{
		db:      db,
		driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}
}

func resolveDSN(dsn string) (driver, source string, err error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("journal dsn is empty")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("unsupported journal dsn scheme: %s", dsn)
	default:
		return "sqlite3", dsn, nil
	}
}

func (j *Journal) initSchema(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if j.driver == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + journalTable + ` (
			id ` + idColumn + `,
			run_id TEXT NOT NULL,
			title TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			new_revid BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcome_journal_title ON ` + journalTable + `(title)`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one entry. A zero CreatedAt is stamped with the current time.
func (j *Journal) Record(ctx context.Context, entry domain.JournalEntry) error {
	if j.db == nil {
		return nil
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query, args, err := j.builder.
		Insert(journalTable).
		Columns("run_id", "title", "outcome", "detail", "new_revid", "created_at").
		Values(entry.RunID, entry.Title, string(entry.Outcome), entry.Detail, entry.NewRevID, entry.CreatedAt.UnixMilli()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build journal insert: %w", err)
	}

	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	query, args, err := j.builder.
		Select("id", "run_id", "title", "outcome", "detail", "new_revid", "created_at").
		From(journalTable).
		OrderBy("id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build journal select: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			entry   domain.JournalEntry
			outcome string
			created int64
		)
		if err := rows.Scan(&entry.ID, &entry.RunID, &entry.Title, &outcome, &entry.Detail, &entry.NewRevID, &created); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entry.Outcome = domain.Outcome(outcome)
		entry.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return entries, nil
}

// Ping checks the connection for the status endpoint.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (j *Journal) Close() error {
	return j.db.Close()
}
