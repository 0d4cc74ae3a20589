package repository

import (
	"context"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/search"

	"github.com/cockroachdb/errors"
)

// jobSelect lists every column mapJob reads. Enrichment comes from a LEFT
// JOIN, so its columns may all be NULL.
const jobSelect = `
	j.id, j.title, j.company, j.location, j.url, j.source,
	j.posted_date, j.scraped_at, j.description_snippet,
	j.is_remote, j.salary_range, j.status, j.first_seen_at,
	j.last_seen_at, j.country, j.company_url,
	j.featured, j.verified, j.salary_min, j.salary_max, j.salary_currency,
	ce.funding_stage, ce.total_raised, ce.last_funded_date,
	ce.employee_count, ce.industries, ce.description AS enrichment_description, ce.domain`

// enrichmentJoin matches company_enrichment by lowercased company name, the
// only link the scraper provides. Names that collide resolve to the first
// enrichment row so each job appears once.
const enrichmentJoin = `
	LEFT JOIN company_enrichment ce ON ce.rowid = (
		SELECT ce2.rowid FROM company_enrichment ce2
		WHERE lower(ce2.company_name) = lower(j.company)
		ORDER BY ce2.rowid LIMIT 1
	)`

var jobColumns = []string{
	"id", "title", "company", "location", "url", "source",
	"posted_date", "scraped_at", "description_snippet",
	"is_remote", "salary_range", "status", "first_seen_at",
	"last_seen_at", "country", "company_url",
	"featured", "verified", "salary_min", "salary_max", "salary_currency",
	"funding_stage", "total_raised", "last_funded_date",
	"employee_count", "industries", "enrichment_description", "domain",
}

type JobQueryRepository interface {
	Search(ctx context.Context, pred search.Predicate, sort search.Sort, page search.Pagination) (job.Page, error)
}

type SQLiteJobQueryRepository struct {
	db database.DB
}

func NewJobQueryRepository(db database.DB) *SQLiteJobQueryRepository {
	return &SQLiteJobQueryRepository{db: db}
}

// Search runs the count query then the page query over one predicate.
func (r *SQLiteJobQueryRepository) Search(ctx context.Context, pred search.Predicate, sort search.Sort, page search.Pagination) (job.Page, error) {
	if pred.MatchesNothing {
		return job.Page{Jobs: []job.Job{}, Total: 0}, nil
	}
	p := page.Clamp()

	countRS, err := r.db.Query(ctx,
		`SELECT COUNT(DISTINCT j.id) AS total FROM jobs j`+enrichmentJoin+` WHERE `+pred.Where,
		pred.Args...,
	)
	if err != nil {
		return job.Page{}, errors.Wrap(err, "count jobs")
	}
	total := 0
	if row, ok := countRS.First(); ok {
		total = row.Int("total")
	}

	args := make([]any, 0, len(pred.Args)+2)
	args = append(args, pred.Args...)
	args = append(args, p.Limit, p.Offset())

	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+
			` WHERE `+pred.Where+
			` ORDER BY `+search.OrderBy(sort)+
			` LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return job.Page{}, errors.Wrap(err, "list jobs")
	}

	jobs, err := mapJobs(rs)
	if err != nil {
		return job.Page{}, err
	}
	return job.Page{Jobs: jobs, Total: total}, nil
}

func mapJobs(rs *database.ResultSet) ([]job.Job, error) {
	out := make([]job.Job, 0, rs.Len())
	if rs.Len() == 0 {
		return out, nil
	}
	if err := rs.Require(jobColumns...); err != nil {
		return nil, errors.Wrap(err, "map jobs")
	}
	for _, row := range rs.Rows() {
		out = append(out, mapJob(row))
	}
	return out, nil
}

func mapJob(row database.Row) job.Job {
	status := row.String("status")
	if status == "" {
		status = job.StatusOpen
	}
	return job.Job{
		ID:                 row.Int64("id"),
		Title:              row.String("title"),
		Company:            row.String("company"),
		Location:           row.NullString("location"),
		URL:                row.String("url"),
		Source:             row.NullString("source"),
		PostedDate:         row.NullString("posted_date"),
		ScrapedAt:          row.NullString("scraped_at"),
		DescriptionSnippet: row.NullString("description_snippet"),
		IsRemote:           row.Bool("is_remote"),
		SalaryRange:        row.NullString("salary_range"),
		Status:             status,
		FirstSeenAt:        row.NullString("first_seen_at"),
		LastSeenAt:         row.NullString("last_seen_at"),
		Country:            row.NullString("country"),
		CompanyURL:         row.NullString("company_url"),
		Featured:           row.Bool("featured"),
		Verified:           row.Bool("verified"),
		SalaryMin:          row.NullInt64("salary_min"),
		SalaryMax:          row.NullInt64("salary_max"),
		SalaryCurrency:     row.NullString("salary_currency"),
		Enrichment: job.Enrichment{
			FundingStage:   row.NullString("funding_stage"),
			TotalRaised:    row.NullString("total_raised"),
			LastFundedDate: row.NullString("last_funded_date"),
			EmployeeCount:  row.NullString("employee_count"),
			Industries:     row.NullString("industries"),
			Description:    row.NullString("enrichment_description"),
			Domain:         row.NullString("domain"),
		},
	}
}
