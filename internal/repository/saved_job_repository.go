package repository

import (
	"context"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/job"

	"github.com/cockroachdb/errors"
)

type SavedJobRepository interface {
	URLs(ctx context.Context, candidateID int64) ([]string, error)
	Save(ctx context.Context, candidateID int64, jobURL string) (bool, error)
	Unsave(ctx context.Context, candidateID int64, jobURL string) (bool, error)
	Jobs(ctx context.Context, candidateID int64) ([]job.Job, error)
	Count(ctx context.Context, candidateID int64) (int, error)
}

type SQLiteSavedJobRepository struct {
	db database.DB
}

func NewSavedJobRepository(db database.DB) *SQLiteSavedJobRepository {
	return &SQLiteSavedJobRepository{db: db}
}

func (r *SQLiteSavedJobRepository) URLs(ctx context.Context, candidateID int64) ([]string, error) {
	rs, err := r.db.Query(ctx,
		`SELECT job_url FROM candidate_saved_jobs WHERE candidate_id = ? ORDER BY saved_at DESC, id DESC`,
		candidateID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list saved urls")
	}
	out := make([]string, 0, rs.Len())
	for _, row := range rs.Rows() {
		out = append(out, row.String("job_url"))
	}
	return out, nil
}

// Save is idempotent; it reports whether a new row was written.
func (r *SQLiteSavedJobRepository) Save(ctx context.Context, candidateID int64, jobURL string) (bool, error) {
	res, err := r.db.Exec(ctx, database.Durable,
		`INSERT OR IGNORE INTO candidate_saved_jobs (candidate_id, job_url, saved_at) VALUES (?, ?, datetime('now'))`,
		candidateID, jobURL,
	)
	if err != nil {
		return false, errors.Wrap(err, "save job")
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLiteSavedJobRepository) Unsave(ctx context.Context, candidateID int64, jobURL string) (bool, error) {
	res, err := r.db.Exec(ctx, database.Durable,
		`DELETE FROM candidate_saved_jobs WHERE candidate_id = ? AND job_url = ?`,
		candidateID, jobURL,
	)
	if err != nil {
		return false, errors.Wrap(err, "unsave job")
	}
	return res.RowsAffected > 0, nil
}

// Jobs returns saved jobs that still exist in the catalog, newest save first.
func (r *SQLiteSavedJobRepository) Jobs(ctx context.Context, candidateID int64) ([]job.Job, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+`
		 FROM candidate_saved_jobs s
		 JOIN jobs j ON j.url = s.job_url`+enrichmentJoin+`
		 WHERE s.candidate_id = ?
		 ORDER BY s.saved_at DESC, s.id DESC`,
		candidateID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list saved jobs")
	}
	return mapJobs(rs)
}

func (r *SQLiteSavedJobRepository) Count(ctx context.Context, candidateID int64) (int, error) {
	rs, err := r.db.Query(ctx,
		`SELECT COUNT(*) AS total FROM candidate_saved_jobs WHERE candidate_id = ?`, candidateID)
	if err != nil {
		return 0, errors.Wrap(err, "count saved jobs")
	}
	row, _ := rs.First()
	return row.Int("total"), nil
}
