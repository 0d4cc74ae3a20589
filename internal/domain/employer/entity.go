package employer

import (
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound           = errors.New("employer not found")
	ErrSessionInvalid     = errors.New("employer session invalid or expired")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidTransition  = errors.New("submission already reviewed")
)

const (
	MagicLinkTTL = time.Hour
	SessionTTL   = 30 * 24 * time.Hour
)

// Session kinds stored in employer_sessions.
const (
	KindMagicLink = "magic"
	KindSession   = "session"
)

type Employer struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	CompanyName string  `json:"company_name"`
	CreatedAt   *string `json:"created_at"`
	LastLoginAt *string `json:"last_login_at"`
}

type Submission struct {
	ID                 int64   `json:"id"`
	EmployerID         int64   `json:"employer_id"`
	JobURL             string  `json:"job_url"`
	ScrapedTitle       *string `json:"scraped_title"`
	ScrapedCompany     *string `json:"scraped_company"`
	ScrapedLocation    *string `json:"scraped_location"`
	ScrapedDescription *string `json:"scraped_description"`
	JobID              *int64  `json:"job_id"`
	Status             Status  `json:"status"`
	CreatedAt          *string `json:"created_at"`
	ReviewedAt         *string `json:"reviewed_at"`

	// Set when listed for moderation.
	EmployerName    *string `json:"employer_name,omitempty"`
	EmployerEmail   *string `json:"employer_email,omitempty"`
	EmployerCompany *string `json:"employer_company,omitempty"`
}

type NewSubmission struct {
	EmployerID  int64
	JobURL      string
	Title       string
	Company     string
	Location    string
	Description string
	JobID       *int64
}
