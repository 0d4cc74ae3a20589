package migration

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaText(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`SELECT sql FROM sqlite_master WHERE sql IS NOT NULL ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		require.NoError(t, rows.Scan(&s))
		out = append(out, s)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestRunner_IdempotentAcrossRuns(t *testing.T) {
	db := openMemory(t)
	r := NewRunner(nil)

	first, err := r.Run(context.Background(), db)
	require.NoError(t, err)
	assert.Len(t, first.ColumnsAdded, len(columns))
	after1 := schemaText(t, db)

	for i := 0; i < 3; i++ {
		rep, err := r.Run(context.Background(), db)
		require.NoError(t, err)
		assert.Empty(t, rep.ColumnsAdded)
	}
	assert.Equal(t, after1, schemaText(t, db))
}

func TestRunner_SkipsExistingColumns(t *testing.T) {
	db := openMemory(t)
	_, err := db.Exec(`CREATE TABLE jobs (id INTEGER PRIMARY KEY, title TEXT NOT NULL, company TEXT NOT NULL, url TEXT UNIQUE NOT NULL, status TEXT, first_seen_at TEXT, featured INTEGER DEFAULT 0)`)
	require.NoError(t, err)

	rep, err := NewRunner(nil).Run(context.Background(), db)
	require.NoError(t, err)
	assert.NotContains(t, rep.ColumnsAdded, "jobs.featured")
	assert.Contains(t, rep.ColumnsAdded, "jobs.verified")
}

func TestRunner_AddsSessionKindToOlderDatabase(t *testing.T) {
	db := openMemory(t)
	_, err := db.Exec(`CREATE TABLE employer_sessions (id INTEGER PRIMARY KEY AUTOINCREMENT, employer_id INTEGER NOT NULL, token TEXT UNIQUE NOT NULL, expires_at TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO employer_sessions (employer_id, token, expires_at) VALUES (1, 'old-token', '2099-01-01T00:00:00Z')`)
	require.NoError(t, err)

	rep, err := NewRunner(nil).Run(context.Background(), db)
	require.NoError(t, err)
	assert.Contains(t, rep.ColumnsAdded, "employer_sessions.kind")

	var kind string
	require.NoError(t, db.QueryRow(`SELECT kind FROM employer_sessions WHERE token = 'old-token'`).Scan(&kind))
	assert.Equal(t, "session", kind)
}

func testRunner() Runner {
	return Runner{
		Tables:  []Statement{{Name: "jobs", SQL: `CREATE TABLE IF NOT EXISTS jobs (id INTEGER)`}},
		Columns: []Column{{Table: "jobs", Name: "featured", Decl: "INTEGER DEFAULT 0"}},
	}
}

func TestRunner_PropagatesAlterFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS jobs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM pragma_table_info(?)`)).
		WithArgs("jobs").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("id"))
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "jobs" ADD COLUMN "featured" INTEGER DEFAULT 0`)).
		WillReturnError(errors.New("disk I/O error"))

	_, err = testRunner().Run(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add column jobs.featured")
	assert.Contains(t, err.Error(), "disk I/O error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_PropagatesInspectFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS jobs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM pragma_table_info(?)`)).
		WithArgs("jobs").
		WillReturnError(errors.New("database is locked"))

	_, err = testRunner().Run(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inspect table jobs")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_ColumnAlreadyPresentIssuesNoAlter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS jobs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name FROM pragma_table_info(?)`)).
		WithArgs("jobs").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("id").AddRow("featured"))

	rep, err := testRunner().Run(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, rep.ColumnsAdded)
	require.NoError(t, mock.ExpectationsWereMet())
}
