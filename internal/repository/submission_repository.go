package repository

import (
	"context"
	"strings"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/employer"
	"fdeworld/internal/domain/job"

	"github.com/cockroachdb/errors"
)

const submissionSelect = `
	s.id, s.employer_id, s.job_url, s.scraped_title, s.scraped_company,
	s.scraped_location, s.scraped_description, s.job_id, s.status,
	s.created_at, s.reviewed_at,
	e.name AS employer_name, e.email AS employer_email, e.company_name AS employer_company`

var submissionColumns = []string{
	"id", "employer_id", "job_url", "scraped_title", "scraped_company",
	"scraped_location", "scraped_description", "job_id", "status",
	"created_at", "reviewed_at", "employer_name", "employer_email", "employer_company",
}

type SubmissionRepository interface {
	Create(ctx context.Context, ns employer.NewSubmission) (int64, error)
	GetByID(ctx context.Context, id int64) (employer.Submission, error)
	ListByEmployer(ctx context.Context, employerID int64) ([]employer.Submission, error)
	ListByStatus(ctx context.Context, status employer.Status) ([]employer.Submission, error)
	Decide(ctx context.Context, id int64, to employer.Status) (employer.Submission, error)
}

type SQLiteSubmissionRepository struct {
	db database.DB
}

func NewSubmissionRepository(db database.DB) *SQLiteSubmissionRepository {
	return &SQLiteSubmissionRepository{db: db}
}

func (r *SQLiteSubmissionRepository) Create(ctx context.Context, ns employer.NewSubmission) (int64, error) {
	var jobID any
	if ns.JobID != nil {
		jobID = *ns.JobID
	}
	res, err := r.db.Exec(ctx, database.Durable,
		`INSERT INTO employer_submissions
			(employer_id, job_url, scraped_title, scraped_company, scraped_location, scraped_description, job_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', datetime('now'))`,
		ns.EmployerID, ns.JobURL, nullIfEmpty(ns.Title), nullIfEmpty(ns.Company),
		nullIfEmpty(ns.Location), nullIfEmpty(ns.Description), jobID,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert submission")
	}
	return res.LastInsertID, nil
}

func (r *SQLiteSubmissionRepository) GetByID(ctx context.Context, id int64) (employer.Submission, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+submissionSelect+` FROM employer_submissions s
		 LEFT JOIN employers e ON e.id = s.employer_id
		 WHERE s.id = ?`, id)
	if err != nil {
		return employer.Submission{}, errors.Wrap(err, "get submission")
	}
	return firstSubmission(rs)
}

func (r *SQLiteSubmissionRepository) ListByEmployer(ctx context.Context, employerID int64) ([]employer.Submission, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+submissionSelect+` FROM employer_submissions s
		 LEFT JOIN employers e ON e.id = s.employer_id
		 WHERE s.employer_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`, employerID)
	if err != nil {
		return nil, errors.Wrap(err, "list employer submissions")
	}
	return mapSubmissions(rs)
}

func (r *SQLiteSubmissionRepository) ListByStatus(ctx context.Context, status employer.Status) ([]employer.Submission, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+submissionSelect+` FROM employer_submissions s
		 LEFT JOIN employers e ON e.id = s.employer_id
		 WHERE s.status = ?
		 ORDER BY s.created_at ASC, s.id ASC`, string(status))
	if err != nil {
		return nil, errors.Wrap(err, "list submissions")
	}
	return mapSubmissions(rs)
}

// Decide moves a pending submission to approved or rejected. Approval
// creates the job when the submission has none and marks it verified.
func (r *SQLiteSubmissionRepository) Decide(ctx context.Context, id int64, to employer.Status) (employer.Submission, error) {
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		rs, err := tx.Query(ctx,
			`SELECT`+submissionSelect+` FROM employer_submissions s
			 LEFT JOIN employers e ON e.id = s.employer_id
			 WHERE s.id = ?`, id)
		if err != nil {
			return errors.Wrap(err, "load submission")
		}
		sub, err := firstSubmission(rs)
		if err != nil {
			return err
		}
		if !employer.IsTransitionAllowed(sub.Status, to) {
			return errors.Wrapf(employer.ErrInvalidTransition, "%s -> %s", sub.Status, to)
		}

		var jobID any
		if to == employer.StatusApproved {
			var jid int64
			if sub.JobID != nil {
				jid = *sub.JobID
			} else {
				jid, _, err = getOrCreateJobTx(ctx, tx, job.Draft{
					URL:         sub.JobURL,
					Title:       deref(sub.ScrapedTitle),
					Company:     firstNonEmpty(deref(sub.ScrapedCompany), deref(sub.EmployerCompany)),
					Location:    deref(sub.ScrapedLocation),
					Description: deref(sub.ScrapedDescription),
					Source:      "employer",
				})
				if err != nil {
					return err
				}
			}
			if _, err := tx.Exec(ctx, `UPDATE jobs SET verified = 1 WHERE id = ?`, jid); err != nil {
				return errors.Wrap(err, "verify job")
			}
			jobID = jid
		} else if sub.JobID != nil {
			jobID = *sub.JobID
		}

		_, err = tx.Exec(ctx,
			`UPDATE employer_submissions SET status = ?, job_id = ?, reviewed_at = datetime('now') WHERE id = ?`,
			string(to), jobID, sub.ID,
		)
		return errors.Wrap(err, "update submission")
	})
	if err != nil {
		return employer.Submission{}, err
	}
	return r.GetByID(ctx, id)
}

func firstSubmission(rs *database.ResultSet) (employer.Submission, error) {
	out, err := mapSubmissions(rs)
	if err != nil {
		return employer.Submission{}, err
	}
	if len(out) == 0 {
		return employer.Submission{}, employer.ErrSubmissionNotFound
	}
	return out[0], nil
}

func mapSubmissions(rs *database.ResultSet) ([]employer.Submission, error) {
	out := make([]employer.Submission, 0, rs.Len())
	if rs.Len() == 0 {
		return out, nil
	}
	if err := rs.Require(submissionColumns...); err != nil {
		return nil, errors.Wrap(err, "map submissions")
	}
	for _, row := range rs.Rows() {
		status, err := employer.ParseStatus(row.String("status"))
		if err != nil {
			status = employer.StatusPending
		}
		out = append(out, employer.Submission{
			ID:                 row.Int64("id"),
			EmployerID:         row.Int64("employer_id"),
			JobURL:             row.String("job_url"),
			ScrapedTitle:       row.NullString("scraped_title"),
			ScrapedCompany:     row.NullString("scraped_company"),
			ScrapedLocation:    row.NullString("scraped_location"),
			ScrapedDescription: row.NullString("scraped_description"),
			JobID:              row.NullInt64("job_id"),
			Status:             status,
			CreatedAt:          row.NullString("created_at"),
			ReviewedAt:         row.NullString("reviewed_at"),
			EmployerName:       row.NullString("employer_name"),
			EmployerEmail:      row.NullString("employer_email"),
			EmployerCompany:    row.NullString("employer_company"),
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
