package employer

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"fdeworld/internal/domain/employer"
	"fdeworld/internal/domain/job"
	"fdeworld/internal/infrastructure/cache"
	"fdeworld/internal/pkg/jwt"
	"fdeworld/internal/repository"
	"fdeworld/internal/testutil"
	"fdeworld/internal/usecase"
)

type fakeMailer struct {
	employerLinks []string
	adminNotes    []int64
}

func (m *fakeMailer) SendCandidateLink(context.Context, string, string, string) error { return nil }

func (m *fakeMailer) SendEmployerLink(_ context.Context, _, _, link string) error {
	m.employerLinks = append(m.employerLinks, link)
	return nil
}

func (m *fakeMailer) NotifyAdminSubmission(_ context.Context, _, _, _ string, id int64) error {
	m.adminNotes = append(m.adminNotes, id)
	return nil
}

type fakeDetails struct {
	d   job.Detail
	err error
}

func (f fakeDetails) Fetch(context.Context, string, string) (job.Detail, error) { return f.d, f.err }

type recordingNotifier struct {
	reasons []string
}

func (n *recordingNotifier) NotifyJobsUpdated(reason string) { n.reasons = append(n.reasons, reason) }

type fixture struct {
	svc      *Service
	mailer   *fakeMailer
	sessions *jwt.HMACService
	jobs     *repository.SQLiteJobRepository
	catalog  *usecase.JobCatalog
	notifier *recordingNotifier
}

func newFixture(t *testing.T, details usecase.DetailFetcher) fixture {
	t.Helper()
	store := testutil.NewStore(t)
	mailer := &fakeMailer{}
	sessions := jwt.NewHMACService("test-secret", time.Hour)
	jobs := repository.NewJobRepository(store)
	searchCache, err := cache.NewLRU(16, time.Minute)
	if err != nil {
		t.Fatalf("lru: %v", err)
	}
	notifier := &recordingNotifier{}
	svc := NewService(
		repository.NewEmployerRepository(store),
		repository.NewSubmissionRepository(store),
		jobs,
		details,
		sessions,
		mailer,
		searchCache,
		notifier,
		"https://fde.test",
		nil,
	)
	catalog := usecase.NewJobCatalogUsecase(repository.NewJobQueryRepository(store), jobs, searchCache, time.Minute, nil, nil)
	return fixture{svc: svc, mailer: mailer, sessions: sessions, jobs: jobs, catalog: catalog, notifier: notifier}
}

func (f fixture) signIn(t *testing.T) Session {
	t.Helper()
	ctx := context.Background()
	if err := f.svc.Signup(ctx, SignupInput{Name: "Lin", Email: "lin@acme.io", CompanyName: "Acme"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	link, err := url.Parse(f.mailer.employerLinks[len(f.mailer.employerLinks)-1])
	if err != nil {
		t.Fatalf("bad link: %v", err)
	}
	sess, err := f.svc.Authenticate(ctx, link.Query().Get("token"))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	return sess
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	bad := []SignupInput{
		{Name: "", Email: "lin@acme.io", CompanyName: "Acme"},
		{Name: "Lin", Email: "lin", CompanyName: "Acme"},
		{Name: "Lin", Email: "lin@acme.io", CompanyName: " "},
	}
	for i, in := range bad {
		if err := f.svc.Signup(ctx, in); !errors.Is(err, usecase.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestAuthenticate_SessionLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	sess := f.signIn(t)
	if !strings.HasPrefix(f.mailer.employerLinks[0], "https://fde.test/api/employer/auth?token=") {
		t.Fatalf("unexpected link: %s", f.mailer.employerLinks[0])
	}
	if sess.Employer.CompanyName != "Acme" {
		t.Fatalf("unexpected employer: %+v", sess.Employer)
	}

	claims, err := f.sessions.Validate(sess.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Role != jwt.RoleEmployer || claims.SubjectID != sess.Employer.ID || claims.SessionID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	e, err := f.svc.Resolve(ctx, claims.SessionID)
	if err != nil || e.ID != sess.Employer.ID {
		t.Fatalf("resolve: %+v %v", e, err)
	}

	link, _ := url.Parse(f.mailer.employerLinks[0])
	if _, err := f.svc.Authenticate(ctx, link.Query().Get("token")); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected used magic link to be unauthorized, got %v", err)
	}

	if err := f.svc.Signout(ctx, claims.SessionID); err != nil {
		t.Fatalf("signout: %v", err)
	}
	if _, err := f.svc.Resolve(ctx, claims.SessionID); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected revoked session to be unauthorized, got %v", err)
	}
}

func TestSubmitJob_RecordsSubmissionAndDuplicates(t *testing.T) {
	long := strings.Repeat("é", descriptionLimit+50)
	f := newFixture(t, fakeDetails{d: job.Detail{Title: "Forward Deployed Engineer", Text: long}})
	ctx := context.Background()
	sess := f.signIn(t)

	if _, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "mailto:jobs@acme.io"); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	res, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "https://acme.io/careers/fde")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.WasDuplicate || res.ScrapedTitle == nil || *res.ScrapedTitle != "Forward Deployed Engineer" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.mailer.adminNotes) != 1 || f.mailer.adminNotes[0] != res.SubmissionID {
		t.Fatalf("expected admin notification, got %v", f.mailer.adminNotes)
	}

	j, err := f.jobs.GetByURL(ctx, "https://acme.io/careers/fde")
	if err != nil {
		t.Fatalf("job row: %v", err)
	}
	if j.Company != "Acme" || j.Source == nil || *j.Source != "employer" {
		t.Fatalf("unexpected job: %+v", j)
	}

	again, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "https://acme.io/careers/fde")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !again.WasDuplicate {
		t.Fatalf("expected duplicate flag")
	}

	subs, err := f.svc.Submissions(ctx, sess.Employer.ID)
	if err != nil {
		t.Fatalf("submissions: %v", err)
	}
	if len(subs) != 2 || subs[0].Status != employer.StatusPending {
		t.Fatalf("unexpected submissions: %+v", subs)
	}
	if d := subs[0].ScrapedDescription; d == nil || len([]rune(*d)) != descriptionLimit {
		t.Fatalf("expected description truncated to %d runes", descriptionLimit)
	}
}

func TestSubmitJob_DetailFailureStillSubmits(t *testing.T) {
	f := newFixture(t, fakeDetails{err: errors.New("blocked")})
	ctx := context.Background()
	sess := f.signIn(t)

	res, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "https://www.acme.io/jobs/42")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.ScrapedTitle != nil {
		t.Fatalf("expected no scraped title, got %q", *res.ScrapedTitle)
	}
	j, err := f.jobs.GetByURL(ctx, "https://www.acme.io/jobs/42")
	if err != nil || j.Title != "acme.io" {
		t.Fatalf("expected host fallback title, got %+v %v", j, err)
	}
}

func TestSubmitJob_UnknownEmployer(t *testing.T) {
	f := newFixture(t, nil)
	if _, err := f.svc.SubmitJob(context.Background(), 404, "https://acme.io/x"); !errors.Is(err, usecase.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSubmitJob_NewJobDropsCachedSearches(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.signIn(t)

	before, err := f.catalog.ListJobs(ctx, usecase.JobSearchParams{})
	if err != nil || before.Total != 0 {
		t.Fatalf("unexpected first listing: %+v %v", before, err)
	}

	res, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "https://acme.io/careers/se")
	if err != nil || res.WasDuplicate {
		t.Fatalf("submit: %+v %v", res, err)
	}

	after, err := f.catalog.ListJobs(ctx, usecase.JobSearchParams{})
	if err != nil {
		t.Fatalf("second listing: %v", err)
	}
	if after.Total != 1 {
		t.Fatalf("expected the submitted job to be listed, total=%d", after.Total)
	}
	if len(f.notifier.reasons) != 1 || f.notifier.reasons[0] != "employer_submission" {
		t.Fatalf("unexpected notifications: %v", f.notifier.reasons)
	}

	if _, err := f.svc.SubmitJob(ctx, sess.Employer.ID, "https://acme.io/careers/se"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if len(f.notifier.reasons) != 1 {
		t.Fatalf("duplicate submissions must not notify, got %v", f.notifier.reasons)
	}
}
