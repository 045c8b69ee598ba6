package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsNarrator/internal/domain"
)

func TestDiskAudioStoreSaveOpen(t *testing.T) {
	t.Parallel()

	store, err := NewDiskAudioStore(t.TempDir())
	require.NoError(t, err)

	key := domain.NewAudioKey("run-1", "Acme", 0)
	full, err := store.Save(context.Background(), key, []byte("mp3"))
	require.NoError(t, err)
	assert.FileExists(t, full)
	assert.Equal(t, "acme_article_0.mp3", filepath.Base(full))

	rc, err := store.Open(key.Path())
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "mp3", string(data))
}

func TestDiskAudioStoreRejectsEscapes(t *testing.T) {
	t.Parallel()

	store, err := NewDiskAudioStore(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../secret.mp3", "/etc/passwd", "", "run/../../x.mp3"} {
		_, err := store.Open(p)
		assert.True(t, errors.Is(err, ErrInvalidAudioPath), p)
	}
}

func TestDiskAudioStoreSweep(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewDiskAudioStore(root)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = store.Save(ctx, domain.NewAudioKey("old-run", "Acme", 0), []byte("a"))
	require.NoError(t, err)
	_, err = store.Save(ctx, domain.NewAudioKey("new-run", "Acme", 0), []byte("b"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	oldDir := filepath.Join(root, "old-run")
	require.NoError(t, os.Chtimes(filepath.Join(oldDir, "acme_article_0.mp3"), past, past))
	require.NoError(t, os.Chtimes(oldDir, past, past))

	removed, err := store.Sweep(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, oldDir)
	assert.DirExists(t, filepath.Join(root, "new-run"))
}

func sampleRun() domain.Run {
	started := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	return domain.Run{
		ID:         "run-1",
		Company:    "Acme",
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Discovered: 2,
		Failed:     1,
		Records: domain.ResultSet{{
			Title:          "Acme Reports Record Profit",
			Authors:        domain.Authors{"Jane Roe"},
			PublishDate:    "2025-03-14",
			Summary:        "Acme grew.",
			FullText:       "Acme reported record profit.",
			URL:            "https://www.nytimes.com/2025/03/14/business/acme.html",
			Sentiment:      domain.SentimentPositive,
			SentimentScore: 0.9,
			Topics:         "Acme",
		}},
	}
}

func TestPostgresRunArchiveSaveRun(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	run := sampleRun()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO news_runs (id,company,started_at,finished_at,discovered,failed) VALUES ($1,$2,$3,$4,$5,$6)")).
		WithArgs(run.ID, run.Company, run.StartedAt, run.FinishedAt, run.Discovered, run.Failed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO news_articles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresRunArchive(db).SaveRun(context.Background(), run))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunArchiveSaveRunRollsBack(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO news_runs").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = NewPostgresRunArchive(db).SaveRun(context.Background(), sampleRun())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunArchiveLoadRun(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	want := sampleRun()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, company, started_at, finished_at, discovered, failed FROM news_runs WHERE id = $1")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "company", "started_at", "finished_at", "discovered", "failed"}).
			AddRow(want.ID, want.Company, want.StartedAt, want.FinishedAt, want.Discovered, want.Failed))

	rec := want.Records[0]
	mock.ExpectQuery(regexp.QuoteMeta("FROM news_articles WHERE run_id = $1 ORDER BY position")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"url", "title", "authors", "publish_date", "summary", "full_text", "sentiment", "sentiment_score", "topics"}).
			AddRow(rec.URL, rec.Title, `{"Jane Roe"}`, rec.PublishDate, rec.Summary, rec.FullText, "Positive", rec.SentimentScore, rec.Topics))

	got, err := NewPostgresRunArchive(db).LoadRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRunArchiveLoadRunMissing(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM news_runs").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewPostgresRunArchive(db).LoadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
