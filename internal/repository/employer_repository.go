package repository

import (
	"context"
	"strings"
	"time"

	"fdeworld/internal/database"
	"fdeworld/internal/domain/employer"

	"github.com/cockroachdb/errors"
)

type EmployerRepository interface {
	GetOrCreate(ctx context.Context, email, name, company string) (employer.Employer, error)
	GetByID(ctx context.Context, id int64) (employer.Employer, error)
	CreateSession(ctx context.Context, employerID int64, token, kind string, expiresAt time.Time) error
	ConsumeMagicLink(ctx context.Context, token string) (employer.Employer, error)
	SessionEmployer(ctx context.Context, token string) (employer.Employer, error)
	DeleteSession(ctx context.Context, token string) error
	TouchLogin(ctx context.Context, id int64) error
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type SQLiteEmployerRepository struct {
	db  database.DB
	now func() time.Time
}

func NewEmployerRepository(db database.DB) *SQLiteEmployerRepository {
	return &SQLiteEmployerRepository{db: db, now: time.Now}
}

func (r *SQLiteEmployerRepository) GetOrCreate(ctx context.Context, email, name, company string) (employer.Employer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id int64
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		rs, err := tx.Query(ctx, `SELECT id FROM employers WHERE email = ?`, email)
		if err != nil {
			return errors.Wrap(err, "lookup employer")
		}
		if row, ok := rs.First(); ok {
			id = row.Int64("id")
			return nil
		}
		res, err := tx.Exec(ctx,
			`INSERT INTO employers (email, name, company_name, created_at) VALUES (?, ?, ?, datetime('now'))`,
			email, strings.TrimSpace(name), strings.TrimSpace(company),
		)
		if err != nil {
			return errors.Wrap(err, "insert employer")
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return employer.Employer{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteEmployerRepository) GetByID(ctx context.Context, id int64) (employer.Employer, error) {
	rs, err := r.db.Query(ctx,
		`SELECT id, email, name, company_name, created_at, last_login_at FROM employers WHERE id = ?`, id)
	if err != nil {
		return employer.Employer{}, errors.Wrap(err, "get employer")
	}
	return firstEmployer(rs)
}

func (r *SQLiteEmployerRepository) CreateSession(ctx context.Context, employerID int64, token, kind string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, database.Durable,
		`INSERT INTO employer_sessions (employer_id, token, kind, expires_at, created_at) VALUES (?, ?, ?, ?, datetime('now'))`,
		employerID, token, kind, expiresAt.UTC().Format(sqlTime),
	)
	return errors.Wrap(err, "create employer session")
}

// ConsumeMagicLink deletes an unexpired magic-link token and returns its
// employer. Unknown, expired and already used tokens are all
// ErrSessionInvalid.
func (r *SQLiteEmployerRepository) ConsumeMagicLink(ctx context.Context, token string) (employer.Employer, error) {
	if strings.TrimSpace(token) == "" {
		return employer.Employer{}, employer.ErrSessionInvalid
	}
	var id int64
	err := r.db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		rs, err := tx.Query(ctx,
			`SELECT employer_id FROM employer_sessions WHERE token = ? AND kind = ? AND expires_at > ?`,
			token, employer.KindMagicLink, r.now().UTC().Format(sqlTime),
		)
		if err != nil {
			return errors.Wrap(err, "lookup magic link")
		}
		row, ok := rs.First()
		if !ok {
			return employer.ErrSessionInvalid
		}
		id = row.Int64("employer_id")
		_, err = tx.Exec(ctx, `DELETE FROM employer_sessions WHERE token = ?`, token)
		return errors.Wrap(err, "consume magic link")
	})
	if err != nil {
		return employer.Employer{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteEmployerRepository) SessionEmployer(ctx context.Context, token string) (employer.Employer, error) {
	rs, err := r.db.Query(ctx,
		`SELECT e.id, e.email, e.name, e.company_name, e.created_at, e.last_login_at
		 FROM employer_sessions s
		 JOIN employers e ON e.id = s.employer_id
		 WHERE s.token = ? AND s.kind = ? AND s.expires_at > ?`,
		token, employer.KindSession, r.now().UTC().Format(sqlTime),
	)
	if err != nil {
		return employer.Employer{}, errors.Wrap(err, "lookup employer session")
	}
	e, err := firstEmployer(rs)
	if errors.Is(err, employer.ErrNotFound) {
		return employer.Employer{}, employer.ErrSessionInvalid
	}
	return e, err
}

func (r *SQLiteEmployerRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, database.Durable, `DELETE FROM employer_sessions WHERE token = ?`, token)
	return errors.Wrap(err, "delete employer session")
}

func (r *SQLiteEmployerRepository) TouchLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, database.Lazy,
		`UPDATE employers SET last_login_at = datetime('now') WHERE id = ?`, id)
	return errors.Wrap(err, "stamp employer login")
}

func (r *SQLiteEmployerRepository) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, database.Lazy,
		`DELETE FROM employer_sessions WHERE expires_at <= ?`, r.now().UTC().Format(sqlTime))
	if err != nil {
		return 0, errors.Wrap(err, "purge employer sessions")
	}
	return res.RowsAffected, nil
}

func firstEmployer(rs *database.ResultSet) (employer.Employer, error) {
	row, ok := rs.First()
	if !ok {
		return employer.Employer{}, employer.ErrNotFound
	}
	if err := rs.Require("id", "email", "name", "company_name", "created_at", "last_login_at"); err != nil {
		return employer.Employer{}, errors.Wrap(err, "map employer")
	}
	return employer.Employer{
		ID:          row.Int64("id"),
		Email:       row.String("email"),
		Name:        row.String("name"),
		CompanyName: row.String("company_name"),
		CreatedAt:   row.NullString("created_at"),
		LastLoginAt: row.NullString("last_login_at"),
	}, nil
}
