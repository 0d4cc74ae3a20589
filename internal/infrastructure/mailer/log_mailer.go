// Package mailer holds the transactional mail sender. Delivery is logged
// only; no message leaves the process.
package mailer

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type LogMailer struct {
	adminEmail string
	logger     *zap.SugaredLogger
}

func NewLogMailer(adminEmail string, logger *zap.SugaredLogger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &LogMailer{adminEmail: strings.TrimSpace(adminEmail), logger: logger}
}

func (m *LogMailer) SendCandidateLink(_ context.Context, to, name, link string) error {
	m.logger.Infow("[Mail] candidate sign-in link", "to", to, "name", name, "link", link)
	return nil
}

func (m *LogMailer) SendEmployerLink(_ context.Context, to, name, link string) error {
	m.logger.Infow("[Mail] employer sign-in link", "to", to, "name", name, "link", link)
	return nil
}

func (m *LogMailer) NotifyAdminSubmission(_ context.Context, company, title, jobURL string, submissionID int64) error {
	if m.adminEmail == "" {
		m.logger.Debugw("[Mail] admin notification skipped, no admin address", "submission_id", submissionID)
		return nil
	}
	m.logger.Infow("[Mail] new employer submission",
		"to", m.adminEmail,
		"company", company,
		"title", title,
		"url", jobURL,
		"submission_id", submissionID,
	)
	return nil
}
