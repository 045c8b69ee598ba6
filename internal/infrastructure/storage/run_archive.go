package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsNarrator/internal/domain"
	"NewsNarrator/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS news_runs (
    id          TEXT PRIMARY KEY,
    company     TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    finished_at TIMESTAMPTZ NOT NULL,
    discovered  INTEGER NOT NULL,
    failed      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS news_articles (
    run_id          TEXT NOT NULL REFERENCES news_runs(id) ON DELETE CASCADE,
    position        INTEGER NOT NULL,
    url             TEXT NOT NULL,
    title           TEXT NOT NULL,
    authors         TEXT[] NOT NULL,
    publish_date    TEXT NOT NULL,
    summary         TEXT NOT NULL,
    full_text       TEXT NOT NULL,
    sentiment       TEXT NOT NULL,
    sentiment_score DOUBLE PRECISION NOT NULL,
    topics          TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRunArchive persists finished runs and their records into Postgres.
type PostgresRunArchive struct {
	db *sql.DB
}

var _ ports.RunArchive = (*PostgresRunArchive)(nil)

// NewPostgresRunArchive wires a sql.DB implementation.
func NewPostgresRunArchive(db *sql.DB) *PostgresRunArchive {
	return &PostgresRunArchive{db: db}
}

// OpenPostgres opens a lib/pq connection pool and verifies it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the archive tables when missing.
func (r *PostgresRunArchive) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveRun writes the run header and all records in one transaction.
func (r *PostgresRunArchive) SaveRun(ctx context.Context, run domain.Run) error {
	if r.db == nil {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Insert("news_runs").
		Columns("id", "company", "started_at", "finished_at", "discovered", "failed").
		Values(run.ID, run.Company, run.StartedAt, run.FinishedAt, run.Discovered, run.Failed).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Records) > 0 {
		insert := psql.Insert("news_articles").Columns(
			"run_id", "position", "url", "title", "authors", "publish_date",
			"summary", "full_text", "sentiment", "sentiment_score", "topics",
		)
		for i, rec := range run.Records {
			// A nil StringArray is stored as NULL.
			authors := pq.StringArray{}
			authors = append(authors, rec.Authors...)
			insert = insert.Values(
				run.ID, i, rec.URL, rec.Title, authors, rec.PublishDate,
				rec.Summary, rec.FullText, string(rec.Sentiment), rec.SentimentScore, rec.Topics,
			)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return fmt.Errorf("build article insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// LoadRun returns a run with its records in original order.
func (r *PostgresRunArchive) LoadRun(ctx context.Context, id string) (domain.Run, error) {
	if r.db == nil {
		return domain.Run{}, domain.ErrRunNotFound
	}

	query, args, err := psql.Select("id", "company", "started_at", "finished_at", "discovered", "failed").
		From("news_runs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Run{}, fmt.Errorf("build run select: %w", err)
	}

	var run domain.Run
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&run.ID, &run.Company, &run.StartedAt, &run.FinishedAt, &run.Discovered, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Run{}, domain.ErrRunNotFound
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("query run: %w", err)
	}

	records, err := r.loadRecords(ctx, id)
	if err != nil {
		return domain.Run{}, err
	}
	run.Records = records
	return run, nil
}

func (r *PostgresRunArchive) loadRecords(ctx context.Context, runID string) (domain.ResultSet, error) {
	query, args, err := psql.Select(
		"url", "title", "authors", "publish_date", "summary",
		"full_text", "sentiment", "sentiment_score", "topics",
	).
		From("news_articles").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	records := domain.ResultSet{}
	for rows.Next() {
		var (
			rec       domain.ArticleRecord
			authors   pq.StringArray
			sentiment string
		)
		if err := rows.Scan(&rec.URL, &rec.Title, &authors, &rec.PublishDate, &rec.Summary,
			&rec.FullText, &sentiment, &rec.SentimentScore, &rec.Topics); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if len(authors) > 0 {
			rec.Authors = domain.Authors(authors)
		}
		rec.Sentiment = domain.Sentiment(sentiment)
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return records, nil
}
