package usecase

import "context"

// Mailer delivers transactional mail. Delivery failures never fail the
// request that triggered them.
type Mailer interface {
	SendCandidateLink(ctx context.Context, to, name, link string) error
	SendEmployerLink(ctx context.Context, to, name, link string) error
	NotifyAdminSubmission(ctx context.Context, company, title, jobURL string, submissionID int64) error
}
