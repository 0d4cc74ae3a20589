package admin

import (
	"context"
	"strings"

	"fdeworld/internal/database/sqlite"
	"fdeworld/internal/domain/candidate"
	"fdeworld/internal/domain/employer"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/repository"
	"fdeworld/internal/usecase"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type JobPage struct {
	Jobs  []job.Job `json:"jobs"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type CandidatePage struct {
	Candidates []candidate.Candidate `json:"candidates"`
	Total      int                   `json:"total"`
	Page       int                   `json:"page"`
	Limit      int                   `json:"limit"`
}

type Importer interface {
	ImportTables(ctx context.Context, payload []byte, tables []string) (sqlite.ImportReport, error)
}

type Service struct {
	jobs        repository.JobRepository
	candidates  repository.CandidateRepository
	submissions repository.SubmissionRepository
	importer    Importer
	cache       usecase.SearchCache
	notifier    usecase.JobsNotifier
	log         *zap.SugaredLogger
}

func NewService(
	jobs repository.JobRepository,
	candidates repository.CandidateRepository,
	submissions repository.SubmissionRepository,
	importer Importer,
	cache usecase.SearchCache,
	notifier usecase.JobsNotifier,
	logger *zap.SugaredLogger,
) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		jobs:        jobs,
		candidates:  candidates,
		submissions: submissions,
		importer:    importer,
		cache:       cache,
		notifier:    notifier,
		log:         logger,
	}
}

func (s *Service) ListJobs(ctx context.Context, q repository.AdminJobQuery) (JobPage, error) {
	if q.Page < 0 || q.Limit < 0 || q.Limit > repository.AdminMaxLimit {
		return JobPage{}, usecase.ErrInvalidInput
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = repository.AdminDefaultLimit
	}
	page, err := s.jobs.AdminSearch(ctx, q)
	if err != nil {
		s.log.Errorw("[Admin] job list failed", "error", err)
		return JobPage{}, usecase.ErrInternal
	}
	return JobPage{Jobs: page.Jobs, Total: page.Total, Page: q.Page, Limit: q.Limit}, nil
}

func (s *Service) UpdateJob(ctx context.Context, id int64, u job.Update) (job.Job, error) {
	if id <= 0 || u.IsEmpty() {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if u.Status != nil && *u.Status != job.StatusOpen && *u.Status != job.StatusClosed {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if u.URL != nil && !usecase.IsHTTPURL(*u.URL) {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if u.Company != nil && strings.TrimSpace(*u.Company) == "" {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if (u.SalaryMin != nil && *u.SalaryMin < 0) || (u.SalaryMax != nil && *u.SalaryMax < 0) {
		return job.Job{}, usecase.ErrInvalidInput
	}
	if u.SalaryMin != nil && u.SalaryMax != nil && *u.SalaryMin > *u.SalaryMax {
		return job.Job{}, usecase.ErrInvalidInput
	}

	ok, err := s.jobs.Update(ctx, id, u)
	if err != nil {
		if errors.Is(err, job.ErrDuplicateURL) {
			return job.Job{}, usecase.ErrConflict
		}
		s.log.Errorw("[Admin] job update failed", "job_id", id, "error", err)
		return job.Job{}, usecase.ErrInternal
	}
	if !ok {
		return job.Job{}, usecase.ErrNotFound
	}
	s.jobsChanged(ctx, "job_updated")

	j, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return job.Job{}, usecase.ErrInternal
	}
	return j, nil
}

// DeleteJob closes the job, or removes the row when hard is set.
func (s *Service) DeleteJob(ctx context.Context, id int64, hard bool) error {
	if id <= 0 {
		return usecase.ErrInvalidInput
	}
	var (
		ok  bool
		err error
	)
	if hard {
		ok, err = s.jobs.Purge(ctx, id)
	} else {
		ok, err = s.jobs.Close(ctx, id)
	}
	if err != nil {
		s.log.Errorw("[Admin] job delete failed", "job_id", id, "hard", hard, "error", err)
		return usecase.ErrInternal
	}
	if !ok {
		return usecase.ErrNotFound
	}
	s.jobsChanged(ctx, "job_deleted")
	return nil
}

func (s *Service) Candidates(ctx context.Context, page, limit int) (CandidatePage, error) {
	if page < 0 || limit < 0 || limit > repository.AdminMaxLimit {
		return CandidatePage{}, usecase.ErrInvalidInput
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = repository.AdminDefaultLimit
	}
	out, total, err := s.candidates.List(ctx, page, limit)
	if err != nil {
		s.log.Errorw("[Admin] candidate list failed", "error", err)
		return CandidatePage{}, usecase.ErrInternal
	}
	return CandidatePage{Candidates: out, Total: total, Page: page, Limit: limit}, nil
}

func (s *Service) Submissions(ctx context.Context, status string) ([]employer.Submission, error) {
	if status == "" {
		status = string(employer.StatusPending)
	}
	st, err := employer.ParseStatus(status)
	if err != nil {
		return nil, usecase.ErrInvalidInput
	}
	out, err := s.submissions.ListByStatus(ctx, st)
	if err != nil {
		s.log.Errorw("[Admin] submission list failed", "error", err)
		return nil, usecase.ErrInternal
	}
	return out, nil
}

func (s *Service) Approve(ctx context.Context, id int64) (employer.Submission, error) {
	sub, err := s.decide(ctx, id, employer.StatusApproved)
	if err != nil {
		return employer.Submission{}, err
	}
	s.jobsChanged(ctx, "submission_approved")
	return sub, nil
}

func (s *Service) Reject(ctx context.Context, id int64) (employer.Submission, error) {
	return s.decide(ctx, id, employer.StatusRejected)
}

func (s *Service) decide(ctx context.Context, id int64, to employer.Status) (employer.Submission, error) {
	if id <= 0 {
		return employer.Submission{}, usecase.ErrInvalidInput
	}
	sub, err := s.submissions.Decide(ctx, id, to)
	switch {
	case err == nil:
		s.log.Infow("[Admin] submission reviewed", "submission_id", id, "status", to)
		return sub, nil
	case errors.Is(err, employer.ErrSubmissionNotFound):
		return employer.Submission{}, usecase.ErrNotFound
	case errors.Is(err, employer.ErrInvalidTransition):
		return employer.Submission{}, usecase.ErrConflict
	default:
		s.log.Errorw("[Admin] submission review failed", "submission_id", id, "error", err)
		return employer.Submission{}, usecase.ErrInternal
	}
}

// ImportDatabase replaces the scraper tables with those in payload, a
// SQLite database file. Candidate and employer data is kept.
func (s *Service) ImportDatabase(ctx context.Context, payload []byte) (sqlite.ImportReport, error) {
	if s.importer == nil {
		return sqlite.ImportReport{}, usecase.ErrInternal
	}
	report, err := s.importer.ImportTables(ctx, payload, nil)
	if err != nil {
		if errors.Is(err, sqlite.ErrPayloadTooSmall) || errors.Is(err, sqlite.ErrInvalidPayload) {
			return sqlite.ImportReport{}, usecase.ErrInvalidInput
		}
		s.log.Errorw("[Sync] import failed", "bytes", len(payload), "error", err)
		return sqlite.ImportReport{}, usecase.ErrInternal
	}
	s.log.Infow("[Sync] import complete", "size", humanize.Bytes(uint64(report.Bytes)), "tables", len(report.Tables))
	s.jobsChanged(ctx, "import")
	return report, nil
}

func (s *Service) jobsChanged(ctx context.Context, reason string) {
	usecase.JobsChanged(ctx, s.cache, s.notifier, s.log, reason)
}
