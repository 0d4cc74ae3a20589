package repository

import (
	"context"

	"fdeworld/internal/database"

	"github.com/cockroachdb/errors"
)

type SourceSummary struct {
	Source      string  `json:"source"`
	OpenJobs    int     `json:"open_jobs"`
	LastScraped *string `json:"last_scraped_at"`
}

type CatalogSummary struct {
	OpenJobs           int             `json:"open_jobs"`
	ClosedJobs         int             `json:"closed_jobs"`
	Candidates         int             `json:"candidates"`
	Employers          int             `json:"employers"`
	PendingSubmissions int             `json:"pending_submissions"`
	Sources            []SourceSummary `json:"sources"`
}

type CatalogStatusRepository interface {
	Summary(ctx context.Context) (CatalogSummary, error)
}

type SQLiteCatalogStatusRepository struct {
	db database.DB
}

func NewCatalogStatusRepository(db database.DB) *SQLiteCatalogStatusRepository {
	return &SQLiteCatalogStatusRepository{db: db}
}

func (r *SQLiteCatalogStatusRepository) Summary(ctx context.Context) (CatalogSummary, error) {
	var out CatalogSummary

	rs, err := r.db.Query(ctx,
		`SELECT
			(SELECT COUNT(*) FROM jobs WHERE status = 'open') AS open_jobs,
			(SELECT COUNT(*) FROM jobs WHERE status = 'closed') AS closed_jobs,
			(SELECT COUNT(*) FROM candidates) AS candidates,
			(SELECT COUNT(*) FROM employers) AS employers,
			(SELECT COUNT(*) FROM employer_submissions WHERE status = 'pending') AS pending_submissions`,
	)
	if err != nil {
		return CatalogSummary{}, errors.Wrap(err, "catalog counts")
	}
	if row, ok := rs.First(); ok {
		out.OpenJobs = row.Int("open_jobs")
		out.ClosedJobs = row.Int("closed_jobs")
		out.Candidates = row.Int("candidates")
		out.Employers = row.Int("employers")
		out.PendingSubmissions = row.Int("pending_submissions")
	}

	rs, err = r.db.Query(ctx,
		`SELECT COALESCE(source, '') AS source, COUNT(*) AS open_jobs, MAX(scraped_at) AS last_scraped
		 FROM jobs
		 WHERE status = 'open'
		 GROUP BY COALESCE(source, '')
		 ORDER BY open_jobs DESC, source ASC`,
	)
	if err != nil {
		return CatalogSummary{}, errors.Wrap(err, "source summary")
	}
	out.Sources = make([]SourceSummary, 0, rs.Len())
	for _, row := range rs.Rows() {
		out.Sources = append(out.Sources, SourceSummary{
			Source:      row.String("source"),
			OpenJobs:    row.Int("open_jobs"),
			LastScraped: row.NullString("last_scraped"),
		})
	}
	return out, nil
}
