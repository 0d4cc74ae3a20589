package repository

import (
	"context"
	"strings"
	"time"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/candidate"

	"github.com/cockroachdb/errors"
)

const candidateSelect = `
	id, email, name, surname, role_types, location, remote_pref, status,
	alert_freq, verified, linkedin_url, linkedin_verified, avatar_url,
	cv_filename, cv_path, current_role, current_company, years_experience,
	skills, open_to_work, work_auth, notice_period, salary_min,
	salary_currency, created_at, last_active_at`

var candidateColumns = []string{
	"id", "email", "name", "surname", "role_types", "location", "remote_pref", "status",
	"alert_freq", "verified", "linkedin_url", "linkedin_verified", "avatar_url",
	"cv_filename", "cv_path", "current_role", "current_company", "years_experience",
	"skills", "open_to_work", "work_auth", "notice_period", "salary_min",
	"salary_currency", "created_at", "last_active_at",
}

type CandidateRepository interface {
	Upsert(ctx context.Context, s candidate.Signup) (candidate.Candidate, error)
	GetByID(ctx context.Context, id int64) (candidate.Candidate, error)
	GetByEmail(ctx context.Context, email string) (candidate.Candidate, error)
	IssueToken(ctx context.Context, id int64, token string, expiresAt time.Time) error
	ConsumeToken(ctx context.Context, token string) (candidate.Candidate, error)
	Update(ctx context.Context, id int64, p candidate.Patch) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, page, limit int) ([]candidate.Candidate, int, error)
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

type SQLiteCandidateRepository struct {
	db  database.DB
	now func() time.Time
}

func NewCandidateRepository(db database.DB) *SQLiteCandidateRepository {
	return &SQLiteCandidateRepository{db: db, now: time.Now}
}

// Upsert keeps one row per email. An existing row gets the new name and
// roles; linkedin and cv fields only change when supplied.
func (r *SQLiteCandidateRepository) Upsert(ctx context.Context, s candidate.Signup) (candidate.Candidate, error) {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	var id int64

	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		rs, err := tx.Query(ctx, `SELECT id FROM candidates WHERE email = ?`, email)
		if err != nil {
			return errors.Wrap(err, "lookup candidate")
		}
		if row, ok := rs.First(); ok {
			id = row.Int64("id")
			_, err = tx.Exec(ctx,
				`UPDATE candidates SET
					name = ?,
					surname = COALESCE(?, surname),
					role_types = ?,
					location = COALESCE(?, location),
					linkedin_url = COALESCE(?, linkedin_url),
					cv_filename = COALESCE(?, cv_filename),
					cv_path = COALESCE(?, cv_path),
					last_active_at = datetime('now')
				 WHERE id = ?`,
				nullIfEmpty(s.Name), nullIfEmpty(s.Surname), encodeList(s.RoleTypes), nullIfEmpty(s.Location),
				nullIfEmpty(s.LinkedinURL), nullIfEmpty(s.CVFilename), nullIfEmpty(s.CVPath), id,
			)
			return errors.Wrap(err, "update candidate")
		}

		res, err := tx.Exec(ctx,
			`INSERT INTO candidates (email, name, surname, role_types, location, linkedin_url, cv_filename, cv_path, created_at, last_active_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))`,
			email, nullIfEmpty(s.Name), nullIfEmpty(s.Surname), encodeList(s.RoleTypes), nullIfEmpty(s.Location),
			nullIfEmpty(s.LinkedinURL), nullIfEmpty(s.CVFilename), nullIfEmpty(s.CVPath),
		)
		if err != nil {
			return errors.Wrap(err, "insert candidate")
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return candidate.Candidate{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteCandidateRepository) GetByID(ctx context.Context, id int64) (candidate.Candidate, error) {
	rs, err := r.db.Query(ctx, `SELECT`+candidateSelect+` FROM candidates WHERE id = ?`, id)
	if err != nil {
		return candidate.Candidate{}, errors.Wrap(err, "get candidate")
	}
	return firstCandidate(rs)
}

func (r *SQLiteCandidateRepository) GetByEmail(ctx context.Context, email string) (candidate.Candidate, error) {
	rs, err := r.db.Query(ctx,
		`SELECT`+candidateSelect+` FROM candidates WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return candidate.Candidate{}, errors.Wrap(err, "get candidate by email")
	}
	return firstCandidate(rs)
}

func (r *SQLiteCandidateRepository) IssueToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	res, err := r.db.Exec(ctx, database.Durable,
		`UPDATE candidates SET verification_token = ?, token_expires_at = ? WHERE id = ?`,
		token, expiresAt.UTC().Format(sqlTime), id,
	)
	if err != nil {
		return errors.Wrap(err, "issue token")
	}
	if res.RowsAffected == 0 {
		return candidate.ErrNotFound
	}
	return nil
}

// ConsumeToken verifies the candidate owning an unexpired token and clears
// it, so a token works once.
func (r *SQLiteCandidateRepository) ConsumeToken(ctx context.Context, token string) (candidate.Candidate, error) {
	if strings.TrimSpace(token) == "" {
		return candidate.Candidate{}, candidate.ErrTokenInvalid
	}
	var id int64
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		rs, err := tx.Query(ctx,
			`SELECT id FROM candidates WHERE verification_token = ? AND token_expires_at > ?`,
			token, r.now().UTC().Format(sqlTime),
		)
		if err != nil {
			return errors.Wrap(err, "lookup token")
		}
		row, ok := rs.First()
		if !ok {
			return candidate.ErrTokenInvalid
		}
		id = row.Int64("id")
		_, err = tx.Exec(ctx,
			`UPDATE candidates SET verified = 1, verification_token = NULL, token_expires_at = NULL,
				last_active_at = datetime('now')
			 WHERE id = ?`,
			id,
		)
		return errors.Wrap(err, "verify candidate")
	})
	if err != nil {
		return candidate.Candidate{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteCandidateRepository) Update(ctx context.Context, id int64, p candidate.Patch) (bool, error) {
	if p.IsEmpty() {
		return false, nil
	}
	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	setString := func(col string, v *string) {
		if v != nil {
			set(col, *v)
		}
	}
	setList := func(col string, v *[]string) {
		if v != nil {
			set(col, encodeList(*v))
		}
	}

	setString("name", p.Name)
	setString("surname", p.Surname)
	setList("role_types", p.RoleTypes)
	setString("remote_pref", p.RemotePref)
	setString("alert_freq", p.AlertFreq)
	setString("current_role", p.CurrentRole)
	setString("current_company", p.CurrentCompany)
	setString("years_experience", p.YearsExperience)
	setList("skills", p.Skills)
	if p.OpenToWork != nil {
		set("open_to_work", boolInt(*p.OpenToWork))
	}
	setString("location", p.Location)
	setList("work_auth", p.WorkAuth)
	setString("notice_period", p.NoticePeriod)
	if p.SalaryMin != nil {
		set("salary_min", *p.SalaryMin)
	}
	setString("salary_currency", p.SalaryCurrency)
	setString("linkedin_url", p.LinkedinURL)

	sets = append(sets, "last_active_at = datetime('now')")
	args = append(args, id)

	res, err := r.db.Exec(ctx, database.Lazy,
		`UPDATE candidates SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return false, errors.Wrap(err, "update candidate")
	}
	return res.RowsAffected > 0, nil
}

// Delete removes the candidate and their saved jobs together.
func (r *SQLiteCandidateRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM candidate_saved_jobs WHERE candidate_id = ?`, id); err != nil {
			return errors.Wrap(err, "delete saved jobs")
		}
		res, err := tx.Exec(ctx, `DELETE FROM candidates WHERE id = ?`, id)
		if err != nil {
			return errors.Wrap(err, "delete candidate")
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

func (r *SQLiteCandidateRepository) List(ctx context.Context, page, limit int) ([]candidate.Candidate, int, error) {
	q := AdminJobQuery{Page: page, Limit: limit}.clamp()

	countRS, err := r.db.Query(ctx, `SELECT COUNT(*) AS total FROM candidates`)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count candidates")
	}
	total := 0
	if row, ok := countRS.First(); ok {
		total = row.Int("total")
	}

	rs, err := r.db.Query(ctx,
		`SELECT`+candidateSelect+` FROM candidates ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		q.Limit, (q.Page-1)*q.Limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list candidates")
	}
	out, err := mapCandidates(rs)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *SQLiteCandidateRepository) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, database.Lazy,
		`UPDATE candidates SET verification_token = NULL, token_expires_at = NULL
		 WHERE verification_token IS NOT NULL AND token_expires_at <= ?`,
		r.now().UTC().Format(sqlTime),
	)
	if err != nil {
		return 0, errors.Wrap(err, "purge candidate tokens")
	}
	return res.RowsAffected, nil
}

func firstCandidate(rs *database.ResultSet) (candidate.Candidate, error) {
	out, err := mapCandidates(rs)
	if err != nil {
		return candidate.Candidate{}, err
	}
	if len(out) == 0 {
		return candidate.Candidate{}, candidate.ErrNotFound
	}
	return out[0], nil
}

func mapCandidates(rs *database.ResultSet) ([]candidate.Candidate, error) {
	out := make([]candidate.Candidate, 0, rs.Len())
	if rs.Len() == 0 {
		return out, nil
	}
	if err := rs.Require(candidateColumns...); err != nil {
		return nil, errors.Wrap(err, "map candidates")
	}
	for _, row := range rs.Rows() {
		out = append(out, candidate.Candidate{
			ID:               row.Int64("id"),
			Email:            row.String("email"),
			Name:             row.NullString("name"),
			Surname:          row.NullString("surname"),
			RoleTypes:        decodeList(row.NullString("role_types")),
			Location:         row.NullString("location"),
			RemotePref:       row.NullString("remote_pref"),
			Status:           defaultString(row.String("status"), "open"),
			AlertFreq:        defaultString(row.String("alert_freq"), "weekly"),
			Verified:         row.Bool("verified"),
			LinkedinURL:      row.NullString("linkedin_url"),
			LinkedinVerified: row.Bool("linkedin_verified"),
			AvatarURL:        row.NullString("avatar_url"),
			CVFilename:       row.NullString("cv_filename"),
			CVPath:           row.NullString("cv_path"),
			CurrentRole:      row.NullString("current_role"),
			CurrentCompany:   row.NullString("current_company"),
			YearsExperience:  row.NullString("years_experience"),
			Skills:           decodeList(row.NullString("skills")),
			OpenToWork:       row.Value("open_to_work") == nil || row.Bool("open_to_work"),
			WorkAuth:         decodeList(row.NullString("work_auth")),
			NoticePeriod:     row.NullString("notice_period"),
			SalaryMin:        row.NullInt64("salary_min"),
			SalaryCurrency:   row.NullString("salary_currency"),
			CreatedAt:        row.NullString("created_at"),
			LastActiveAt:     row.NullString("last_active_at"),
		})
	}
	return out, nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
