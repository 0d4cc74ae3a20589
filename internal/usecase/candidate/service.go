package candidate

import (
	"context"
	"net/url"
	"strings"
	"time"

	"fdeworld/internal/domain/candidate"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/pkg/token"
	"fdeworld/internal/repository"
	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type SignupInput struct {
	Email       string
	Name        string
	Surname     string
	RoleTypes   []string
	LinkedinURL string
	Location    string
	CVFilename  string
	CVPath      string
}

type Account struct {
	candidate.Candidate
	SavedCount int `json:"savedCount"`
}

type Service struct {
	candidates repository.CandidateRepository
	saved      repository.SavedJobRepository
	sessions   jwt.Service
	mailer     usecase.Mailer
	baseURL    string
	log        *zap.SugaredLogger
	now        func() time.Time
	newToken   func() (string, error)
}

func NewService(candidates repository.CandidateRepository, saved repository.SavedJobRepository, sessions jwt.Service, mailer usecase.Mailer, baseURL string, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		candidates: candidates,
		saved:      saved,
		sessions:   sessions,
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger,
		now:        time.Now,
		newToken:   token.New,
	}
}

// Signup upserts the candidate by email and mails a fresh sign-in link.
// A LinkedIn URL or a CV reference is required.
func (s *Service) Signup(ctx context.Context, in SignupInput) error {
	email := usecase.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || !usecase.IsValidEmail(email) {
		return usecase.ErrInvalidInput
	}
	if strings.TrimSpace(in.LinkedinURL) == "" && strings.TrimSpace(in.CVPath) == "" {
		return usecase.ErrInvalidInput
	}

	c, err := s.candidates.Upsert(ctx, candidate.Signup{
		Email:       email,
		Name:        name,
		Surname:     strings.TrimSpace(in.Surname),
		RoleTypes:   cleanList(in.RoleTypes),
		LinkedinURL: strings.TrimSpace(in.LinkedinURL),
		Location:    strings.TrimSpace(in.Location),
		CVFilename:  strings.TrimSpace(in.CVFilename),
		CVPath:      strings.TrimSpace(in.CVPath),
	})
	if err != nil {
		s.log.Errorw("[Auth] candidate upsert failed", "error", err)
		return usecase.ErrInternal
	}
	return s.sendLink(ctx, c, name)
}

// Signin re-issues a link for a known email. Unknown emails succeed too so
// the endpoint does not reveal who is registered.
func (s *Service) Signin(ctx context.Context, email string) error {
	email = usecase.NormalizeEmail(email)
	if !usecase.IsValidEmail(email) {
		return usecase.ErrInvalidInput
	}
	c, err := s.candidates.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			return nil
		}
		s.log.Errorw("[Auth] candidate lookup failed", "error", err)
		return usecase.ErrInternal
	}
	name := "there"
	if c.Name != nil && *c.Name != "" {
		name = *c.Name
	}
	return s.sendLink(ctx, c, name)
}

func (s *Service) sendLink(ctx context.Context, c candidate.Candidate, name string) error {
	tok, err := s.newToken()
	if err != nil {
		return usecase.ErrInternal
	}
	if err := s.candidates.IssueToken(ctx, c.ID, tok, s.now().Add(candidate.VerificationTTL)); err != nil {
		s.log.Errorw("[Auth] issue token failed", "candidate_id", c.ID, "error", err)
		return usecase.ErrInternal
	}
	if s.mailer != nil {
		link := s.baseURL + "/api/auth/verify?token=" + url.QueryEscape(tok)
		if err := s.mailer.SendCandidateLink(ctx, c.Email, name, link); err != nil {
			s.log.Warnw("[Auth] magic link mail failed", "candidate_id", c.ID, "error", err)
		}
	}
	return nil
}

// Verify consumes a sign-in token and returns the candidate with a session
// token.
func (s *Service) Verify(ctx context.Context, tok string) (candidate.Candidate, string, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return candidate.Candidate{}, "", usecase.ErrInvalidInput
	}
	c, err := s.candidates.ConsumeToken(ctx, tok)
	if err != nil {
		if errors.Is(err, candidate.ErrTokenInvalid) {
			return candidate.Candidate{}, "", usecase.ErrUnauthorized
		}
		s.log.Errorw("[Auth] verify failed", "error", err)
		return candidate.Candidate{}, "", usecase.ErrInternal
	}
	session, err := s.IssueSession(c)
	if err != nil {
		return candidate.Candidate{}, "", err
	}
	return c, session, nil
}

func (s *Service) IssueSession(c candidate.Candidate) (string, error) {
	session, err := s.sessions.Issue(jwt.RoleCandidate, c.ID, c.Email, "")
	if err != nil {
		s.log.Errorw("[Auth] session issue failed", "candidate_id", c.ID, "error", err)
		return "", usecase.ErrInternal
	}
	return session, nil
}

// EnsureForEmail returns the candidate for email, creating a bare row when
// none exists. Employers get a candidate identity this way.
func (s *Service) EnsureForEmail(ctx context.Context, email, name string) (candidate.Candidate, error) {
	email = usecase.NormalizeEmail(email)
	c, err := s.candidates.GetByEmail(ctx, email)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, candidate.ErrNotFound) {
		return candidate.Candidate{}, usecase.ErrInternal
	}
	c, err = s.candidates.Upsert(ctx, candidate.Signup{Email: email, Name: name})
	if err != nil {
		return candidate.Candidate{}, usecase.ErrInternal
	}
	return c, nil
}

func (s *Service) Account(ctx context.Context, id int64) (Account, error) {
	c, err := s.candidates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			return Account{}, usecase.ErrNotFound
		}
		return Account{}, usecase.ErrInternal
	}
	n, err := s.saved.Count(ctx, id)
	if err != nil {
		return Account{}, usecase.ErrInternal
	}
	return Account{Candidate: c, SavedCount: n}, nil
}

func (s *Service) UpdateAccount(ctx context.Context, id int64, p candidate.Patch) error {
	if p.SalaryMin != nil && *p.SalaryMin < 0 {
		return usecase.ErrInvalidInput
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return usecase.ErrInvalidInput
	}
	if p.RoleTypes != nil {
		cleaned := cleanList(*p.RoleTypes)
		p.RoleTypes = &cleaned
	}
	if p.Skills != nil {
		cleaned := cleanList(*p.Skills)
		p.Skills = &cleaned
	}
	if p.WorkAuth != nil {
		cleaned := cleanList(*p.WorkAuth)
		p.WorkAuth = &cleaned
	}
	if p.IsEmpty() {
		return nil
	}
	ok, err := s.candidates.Update(ctx, id, p)
	if err != nil {
		s.log.Errorw("[Account] update failed", "candidate_id", id, "error", err)
		return usecase.ErrInternal
	}
	if !ok {
		return usecase.ErrNotFound
	}
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	ok, err := s.candidates.Delete(ctx, id)
	if err != nil {
		s.log.Errorw("[Account] delete failed", "candidate_id", id, "error", err)
		return usecase.ErrInternal
	}
	if !ok {
		return usecase.ErrNotFound
	}
	return nil
}

func (s *Service) SavedURLs(ctx context.Context, id int64) ([]string, error) {
	out, err := s.saved.URLs(ctx, id)
	if err != nil {
		return nil, usecase.ErrInternal
	}
	return out, nil
}

func (s *Service) Save(ctx context.Context, id int64, jobURL string) error {
	jobURL = strings.TrimSpace(jobURL)
	if jobURL == "" {
		return usecase.ErrInvalidInput
	}
	if _, err := s.saved.Save(ctx, id, jobURL); err != nil {
		s.log.Errorw("[Saved] save failed", "candidate_id", id, "error", err)
		return usecase.ErrInternal
	}
	return nil
}

func (s *Service) Unsave(ctx context.Context, id int64, jobURL string) error {
	jobURL = strings.TrimSpace(jobURL)
	if jobURL == "" {
		return usecase.ErrInvalidInput
	}
	if _, err := s.saved.Unsave(ctx, id, jobURL); err != nil {
		s.log.Errorw("[Saved] unsave failed", "candidate_id", id, "error", err)
		return usecase.ErrInternal
	}
	return nil
}

func (s *Service) SavedJobs(ctx context.Context, id int64) ([]job.Job, error) {
	out, err := s.saved.Jobs(ctx, id)
	if err != nil {
		s.log.Errorw("[Saved] list failed", "candidate_id", id, "error", err)
		return nil, usecase.ErrInternal
	}
	return out, nil
}

// PurgeExpiredTokens clears stale sign-in tokens.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.candidates.PurgeExpiredTokens(ctx)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
