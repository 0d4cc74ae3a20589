package repository

import (
	"context"
	"net/url"
	"strings"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/search"

	"github.com/cockroachdb/errors"
)

type AdminJobQuery struct {
	Search string
	Status string
	Source string
	Page   int
	Limit  int
}

const (
	AdminDefaultLimit = 50
	AdminMaxLimit     = 100
)

func (q AdminJobQuery) clamp() AdminJobQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = AdminDefaultLimit
	}
	if q.Limit > AdminMaxLimit {
		q.Limit = AdminMaxLimit
	}
	return q
}

type JobRepository interface {
	GetByURL(ctx context.Context, url string) (job.Job, error)
	GetByID(ctx context.Context, id int64) (job.Job, error)
	GetOrCreateByURL(ctx context.Context, d job.Draft) (id int64, wasDuplicate bool, err error)
	Stats(ctx context.Context) (job.Stats, error)
	CountsByRole(ctx context.Context) ([]job.RoleCount, error)
	Companies(ctx context.Context) ([]job.CompanyCount, error)
	Recent(ctx context.Context, limit int) ([]job.Job, error)
	Featured(ctx context.Context, limit int) ([]job.Job, error)
	AdminSearch(ctx context.Context, q AdminJobQuery) (job.Page, error)
	Update(ctx context.Context, id int64, u job.Update) (bool, error)
	Close(ctx context.Context, id int64) (bool, error)
	Purge(ctx context.Context, id int64) (bool, error)
}

type SQLiteJobRepository struct {
	db database.DB
}

func NewJobRepository(db database.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

func (r *SQLiteJobRepository) GetByURL(ctx context.Context, jobURL string) (job.Job, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+` WHERE j.url = ? LIMIT 1`,
		jobURL,
	)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "get job by url")
	}
	return firstJob(rs)
}

func (r *SQLiteJobRepository) GetByID(ctx context.Context, id int64) (job.Job, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+` WHERE j.id = ? LIMIT 1`,
		id,
	)
	if err != nil {
		return job.Job{}, errors.Wrap(err, "get job by id")
	}
	return firstJob(rs)
}

func firstJob(rs *database.ResultSet) (job.Job, error) {
	jobs, err := mapJobs(rs)
	if err != nil {
		return job.Job{}, err
	}
	if len(jobs) == 0 {
		return job.Job{}, job.ErrNotFound
	}
	return jobs[0], nil
}

// GetOrCreateByURL never creates a second row for a known URL.
func (r *SQLiteJobRepository) GetOrCreateByURL(ctx context.Context, d job.Draft) (int64, bool, error) {
	var (
		id        int64
		duplicate bool
	)
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		var err error
		id, duplicate, err = getOrCreateJobTx(ctx, tx, d)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return id, duplicate, nil
}

func getOrCreateJobTx(ctx context.Context, tx database.Tx, d job.Draft) (int64, bool, error) {
	rs, err := tx.Query(ctx, `SELECT id FROM jobs WHERE url = ? LIMIT 1`, d.URL)
	if err != nil {
		return 0, false, errors.Wrap(err, "lookup job url")
	}
	if row, ok := rs.First(); ok {
		return row.Int64("id"), true, nil
	}

	title := strings.TrimSpace(d.Title)
	company := strings.TrimSpace(d.Company)
	host := hostOf(d.URL)
	if title == "" {
		title = host
	}
	if company == "" {
		company = host
	}
	source := strings.TrimSpace(d.Source)
	if source == "" {
		source = "employer"
	}

	res, err := tx.Exec(ctx,
		`INSERT INTO jobs (title, company, location, url, source, description_snippet, status, first_seen_at, last_seen_at, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'open', datetime('now'), datetime('now'), datetime('now'))`,
		title, company, nullIfEmpty(d.Location), d.URL, source, nullIfEmpty(d.Description),
	)
	if err != nil {
		return 0, false, errors.Wrap(err, "insert job")
	}
	return res.LastInsertID, false, nil
}

func (r *SQLiteJobRepository) Stats(ctx context.Context) (job.Stats, error) {
	rs, err := r.db.Query(ctx,
		`SELECT COUNT(*) AS total_jobs,
		        COUNT(DISTINCT company) AS total_companies,
		        COUNT(DISTINCT source) AS total_sources
		 FROM jobs WHERE status = 'open'`,
	)
	if err != nil {
		return job.Stats{}, errors.Wrap(err, "job stats")
	}
	row, ok := rs.First()
	if !ok {
		return job.Stats{}, nil
	}
	return job.Stats{
		TotalJobs:      row.Int("total_jobs"),
		TotalCompanies: row.Int("total_companies"),
		TotalSources:   row.Int("total_sources"),
	}, nil
}

// CountsByRole counts open jobs per role with the same keyword predicate the
// search uses, in one pass.
func (r *SQLiteJobRepository) CountsByRole(ctx context.Context) ([]job.RoleCount, error) {
	sums := make([]string, 0, len(search.RoleOrder))
	var args []any
	for _, key := range search.RoleOrder {
		cond, kwArgs, ok := search.RoleCondition(key)
		if !ok {
			cond = "0 = 1"
		}
		sums = append(sums, "SUM(CASE WHEN "+cond+" THEN 1 ELSE 0 END) AS "+quoteIdent(key))
		args = append(args, kwArgs...)
	}

	rs, err := r.db.Query(ctx,
		`SELECT `+strings.Join(sums, ", ")+` FROM jobs j WHERE j.status = 'open'`,
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "count jobs by role")
	}

	row, _ := rs.First()
	out := make([]job.RoleCount, 0, len(search.RoleOrder))
	for _, key := range search.RoleOrder {
		out = append(out, job.RoleCount{Key: key, Label: search.RoleLabels[key], Count: row.Int(key)})
	}
	return out, nil
}

func (r *SQLiteJobRepository) Companies(ctx context.Context) ([]job.CompanyCount, error) {
	rs, err := r.db.Query(ctx,
		`SELECT company, COUNT(*) AS count FROM jobs
		 WHERE status = 'open'
		 GROUP BY company
		 ORDER BY count DESC, company ASC`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list companies")
	}
	out := make([]job.CompanyCount, 0, rs.Len())
	for _, row := range rs.Rows() {
		out = append(out, job.CompanyCount{Company: row.String("company"), Count: row.Int("count")})
	}
	return out, nil
}

func (r *SQLiteJobRepository) Recent(ctx context.Context, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 6
	}
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+`
		 WHERE j.status = 'open'
		 ORDER BY `+search.OrderBy(search.SortPosted)+`
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "recent jobs")
	}
	return mapJobs(rs)
}

func (r *SQLiteJobRepository) Featured(ctx context.Context, limit int) ([]job.Job, error) {
	if limit <= 0 {
		limit = 4
	}
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+`
		 WHERE j.status = 'open' AND j.featured = 1
		 ORDER BY `+search.OrderBy(search.SortPosted)+`
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "featured jobs")
	}
	return mapJobs(rs)
}

func (r *SQLiteJobRepository) AdminSearch(ctx context.Context, q AdminJobQuery) (job.Page, error) {
	q = q.clamp()

	conds := []string{"1 = 1"}
	var args []any
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		like := "%" + s + "%"
		conds = append(conds, "(lower(j.title) LIKE ? OR lower(j.company) LIKE ? OR lower(j.url) LIKE ?)")
		args = append(args, like, like, like)
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		conds = append(conds, "j.status = ?")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Source); s != "" {
		conds = append(conds, "j.source = ?")
		args = append(args, s)
	}
	where := strings.Join(conds, " AND ")

	countRS, err := r.db.Query(ctx, `SELECT COUNT(*) AS total FROM jobs j WHERE `+where, args...)
	if err != nil {
		return job.Page{}, errors.Wrap(err, "count admin jobs")
	}
	total := 0
	if row, ok := countRS.First(); ok {
		total = row.Int("total")
	}

	pageArgs := append(append([]any{}, args...), q.Limit, (q.Page-1)*q.Limit)
	rs, err := r.db.Query(ctx,
		`SELECT`+jobSelect+` FROM jobs j`+enrichmentJoin+`
		 WHERE `+where+`
		 ORDER BY j.id DESC
		 LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return job.Page{}, errors.Wrap(err, "list admin jobs")
	}
	jobs, err := mapJobs(rs)
	if err != nil {
		return job.Page{}, err
	}
	return job.Page{Jobs: jobs, Total: total}, nil
}

// Update applies the non-nil fields of u. Admin edits are lazy writes.
func (r *SQLiteJobRepository) Update(ctx context.Context, id int64, u job.Update) (bool, error) {
	if u.IsEmpty() {
		return false, nil
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if u.Title != nil {
		set("title", *u.Title)
	}
	if u.Company != nil {
		set("company", *u.Company)
	}
	if u.Location != nil {
		set("location", *u.Location)
	}
	if u.SalaryMin != nil {
		set("salary_min", *u.SalaryMin)
	}
	if u.SalaryMax != nil {
		set("salary_max", *u.SalaryMax)
	}
	if u.SalaryCurrency != nil {
		set("salary_currency", *u.SalaryCurrency)
	}
	if u.URL != nil {
		set("url", *u.URL)
	}
	if u.Status != nil {
		set("status", *u.Status)
	}
	if u.PostedDate != nil {
		set("posted_date", *u.PostedDate)
	}
	if u.Featured != nil {
		set("featured", boolInt(*u.Featured))
	}
	args = append(args, id)

	res, err := r.db.Exec(ctx, database.Lazy,
		`UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, job.ErrDuplicateURL
		}
		return false, errors.Wrap(err, "update job")
	}
	return res.RowsAffected > 0, nil
}

// Close is the soft delete: the row stays but leaves every listing.
func (r *SQLiteJobRepository) Close(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, database.Durable,
		`UPDATE jobs SET status = 'closed', last_seen_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "close job")
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLiteJobRepository) Purge(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.Exec(ctx, database.Durable, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "purge job")
	}
	return res.RowsAffected > 0, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}
