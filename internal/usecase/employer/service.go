package employer

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"fdeworld/internal/domain/employer"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/pkg/token"
	"fdeworld/internal/repository"
	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Scraped descriptions are stored truncated to this many characters.
const descriptionLimit = 1000

type SignupInput struct {
	Name        string
	Email       string
	CompanyName string
}

type SubmitResult struct {
	SubmissionID int64   `json:"submission_id"`
	WasDuplicate bool    `json:"was_duplicate"`
	ScrapedTitle *string `json:"scraped_title"`
}

type Session struct {
	Employer employer.Employer
	Token    string
}

type Service struct {
	employers   repository.EmployerRepository
	submissions repository.SubmissionRepository
	jobs        repository.JobRepository
	details     usecase.DetailFetcher
	sessions    jwt.Service
	mailer      usecase.Mailer
	cache       usecase.SearchCache
	notifier    usecase.JobsNotifier
	baseURL     string
	log         *zap.SugaredLogger
	now         func() time.Time
	newToken    func() (string, error)
}

func NewService(
	employers repository.EmployerRepository,
	submissions repository.SubmissionRepository,
	jobs repository.JobRepository,
	details usecase.DetailFetcher,
	sessions jwt.Service,
	mailer usecase.Mailer,
	cache usecase.SearchCache,
	notifier usecase.JobsNotifier,
	baseURL string,
	logger *zap.SugaredLogger,
) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		employers:   employers,
		submissions: submissions,
		jobs:        jobs,
		details:     details,
		sessions:    sessions,
		mailer:      mailer,
		cache:       cache,
		notifier:    notifier,
		baseURL:     strings.TrimRight(baseURL, "/"),
		log:         logger,
		now:         time.Now,
		newToken:    token.New,
	}
}

// Signup gets or creates the employer and mails a one hour magic link.
func (s *Service) Signup(ctx context.Context, in SignupInput) error {
	name := strings.TrimSpace(in.Name)
	company := strings.TrimSpace(in.CompanyName)
	email := usecase.NormalizeEmail(in.Email)
	if name == "" || company == "" || !usecase.IsValidEmail(email) {
		return usecase.ErrInvalidInput
	}

	e, err := s.employers.GetOrCreate(ctx, email, name, company)
	if err != nil {
		s.log.Errorw("[Employer] signup failed", "error", err)
		return usecase.ErrInternal
	}

	tok, err := s.newToken()
	if err != nil {
		return usecase.ErrInternal
	}
	if err := s.employers.CreateSession(ctx, e.ID, tok, employer.KindMagicLink, s.now().Add(employer.MagicLinkTTL)); err != nil {
		s.log.Errorw("[Employer] magic link failed", "employer_id", e.ID, "error", err)
		return usecase.ErrInternal
	}

	if s.mailer != nil {
		link := s.baseURL + "/api/employer/auth?token=" + url.QueryEscape(tok)
		if err := s.mailer.SendEmployerLink(ctx, e.Email, name, link); err != nil {
			s.log.Warnw("[Employer] magic link mail failed", "employer_id", e.ID, "error", err)
		}
	}
	return nil
}

// Authenticate trades a magic link for a 30 day session. The returned
// token is a signed session naming the stored session row.
func (s *Service) Authenticate(ctx context.Context, magic string) (Session, error) {
	magic = strings.TrimSpace(magic)
	if magic == "" {
		return Session{}, usecase.ErrInvalidInput
	}
	e, err := s.employers.ConsumeMagicLink(ctx, magic)
	if err != nil {
		if errors.Is(err, employer.ErrSessionInvalid) {
			return Session{}, usecase.ErrUnauthorized
		}
		s.log.Errorw("[Employer] magic link lookup failed", "error", err)
		return Session{}, usecase.ErrInternal
	}

	sid, err := s.newToken()
	if err != nil {
		return Session{}, usecase.ErrInternal
	}
	if err := s.employers.CreateSession(ctx, e.ID, sid, employer.KindSession, s.now().Add(employer.SessionTTL)); err != nil {
		s.log.Errorw("[Employer] session create failed", "employer_id", e.ID, "error", err)
		return Session{}, usecase.ErrInternal
	}
	if err := s.employers.TouchLogin(ctx, e.ID); err != nil {
		s.log.Warnw("[Employer] last login stamp failed", "employer_id", e.ID, "error", err)
	}

	signed, err := s.sessions.Issue(jwt.RoleEmployer, e.ID, e.Email, sid)
	if err != nil {
		return Session{}, usecase.ErrInternal
	}
	return Session{Employer: e, Token: signed}, nil
}

// Resolve maps a validated session claim to its employer. Revoked or
// expired session rows are unauthorized even with a valid signature.
func (s *Service) Resolve(ctx context.Context, sessionID string) (employer.Employer, error) {
	if sessionID == "" {
		return employer.Employer{}, usecase.ErrUnauthorized
	}
	e, err := s.employers.SessionEmployer(ctx, sessionID)
	if err != nil {
		if errors.Is(err, employer.ErrSessionInvalid) {
			return employer.Employer{}, usecase.ErrUnauthorized
		}
		return employer.Employer{}, usecase.ErrInternal
	}
	return e, nil
}

func (s *Service) Signout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.employers.DeleteSession(ctx, sessionID); err != nil {
		return usecase.ErrInternal
	}
	return nil
}

func (s *Service) Me(ctx context.Context, id int64) (employer.Employer, error) {
	e, err := s.employers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, employer.ErrNotFound) {
			return employer.Employer{}, usecase.ErrNotFound
		}
		return employer.Employer{}, usecase.ErrInternal
	}
	return e, nil
}

// SubmitJob records a posting URL for moderation. The detail fetch is best
// effort; a known URL reuses its job row and reports was_duplicate. A new
// job row is listed immediately, so cached searches are dropped.
func (s *Service) SubmitJob(ctx context.Context, employerID int64, rawURL string) (SubmitResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if !usecase.IsHTTPURL(rawURL) {
		return SubmitResult{}, usecase.ErrInvalidInput
	}

	e, err := s.employers.GetByID(ctx, employerID)
	if err != nil {
		if errors.Is(err, employer.ErrNotFound) {
			return SubmitResult{}, usecase.ErrUnauthorized
		}
		return SubmitResult{}, usecase.ErrInternal
	}

	var title, description string
	if s.details != nil {
		d, err := s.details.Fetch(ctx, rawURL, "")
		if err != nil {
			s.log.Warnw("[Employer] detail fetch failed", "url", rawURL, "error", err)
		} else {
			title = strings.TrimSpace(d.Title)
			description = truncateRunes(strings.TrimSpace(d.Text), descriptionLimit)
		}
	}

	jobID, dup, err := s.jobs.GetOrCreateByURL(ctx, job.Draft{
		URL:         rawURL,
		Title:       title,
		Company:     e.CompanyName,
		Description: description,
		Source:      "employer",
	})
	if err != nil {
		s.log.Errorw("[Employer] job create failed", "url", rawURL, "error", err)
		return SubmitResult{}, usecase.ErrInternal
	}
	if !dup {
		usecase.JobsChanged(ctx, s.cache, s.notifier, s.log, "employer_submission")
	}

	subID, err := s.submissions.Create(ctx, employer.NewSubmission{
		EmployerID:  employerID,
		JobURL:      rawURL,
		Title:       title,
		Company:     e.CompanyName,
		Description: description,
		JobID:       &jobID,
	})
	if err != nil {
		s.log.Errorw("[Employer] submission create failed", "url", rawURL, "error", err)
		return SubmitResult{}, usecase.ErrInternal
	}

	if s.mailer != nil {
		shown := title
		if shown == "" {
			shown = rawURL
		}
		if err := s.mailer.NotifyAdminSubmission(ctx, e.CompanyName, shown, rawURL, subID); err != nil {
			s.log.Warnw("[Employer] admin notification failed", "submission_id", subID, "error", err)
		}
	}

	out := SubmitResult{SubmissionID: subID, WasDuplicate: dup}
	if title != "" {
		out.ScrapedTitle = &title
	}
	return out, nil
}

func (s *Service) Submissions(ctx context.Context, employerID int64) ([]employer.Submission, error) {
	out, err := s.submissions.ListByEmployer(ctx, employerID)
	if err != nil {
		return nil, usecase.ErrInternal
	}
	return out, nil
}

// PurgeExpiredSessions drops expired magic links and sessions.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.employers.PurgeExpiredSessions(ctx)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
