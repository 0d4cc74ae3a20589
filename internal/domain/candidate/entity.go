package candidate

import (
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound     = errors.New("candidate not found")
	ErrTokenInvalid = errors.New("verification token invalid or expired")
)

const VerificationTTL = 24 * time.Hour

type Candidate struct {
	ID               int64    `json:"id"`
	Email            string   `json:"email"`
	Name             *string  `json:"name"`
	Surname          *string  `json:"surname"`
	RoleTypes        []string `json:"role_types"`
	Location         *string  `json:"location"`
	RemotePref       *string  `json:"remote_pref"`
	Status           string   `json:"status"`
	AlertFreq        string   `json:"alert_freq"`
	Verified         bool     `json:"verified"`
	LinkedinURL      *string  `json:"linkedin_url"`
	LinkedinVerified bool     `json:"linkedin_verified"`
	AvatarURL        *string  `json:"avatar_url"`
	CVFilename       *string  `json:"cv_filename"`
	CVPath           *string  `json:"cv_path"`
	CurrentRole      *string  `json:"current_role"`
	CurrentCompany   *string  `json:"current_company"`
	YearsExperience  *string  `json:"years_experience"`
	Skills           []string `json:"skills"`
	OpenToWork       bool     `json:"open_to_work"`
	WorkAuth         []string `json:"work_auth"`
	NoticePeriod     *string  `json:"notice_period"`
	SalaryMin        *int64   `json:"salary_min"`
	SalaryCurrency   *string  `json:"salary_currency"`
	CreatedAt        *string  `json:"created_at"`
	LastActiveAt     *string  `json:"last_active_at"`
}

// Signup is the upsert payload. Empty optional fields keep stored values.
type Signup struct {
	Email       string
	Name        string
	Surname     string
	RoleTypes   []string
	LinkedinURL string
	Location    string
	CVFilename  string
	CVPath      string
}

// Patch lists profile fields a candidate may change; nil leaves a field
// untouched.
type Patch struct {
	Name            *string
	Surname         *string
	RoleTypes       *[]string
	RemotePref      *string
	AlertFreq       *string
	CurrentRole     *string
	CurrentCompany  *string
	YearsExperience *string
	Skills          *[]string
	OpenToWork      *bool
	Location        *string
	WorkAuth        *[]string
	NoticePeriod    *string
	SalaryMin       *int64
	SalaryCurrency  *string
	LinkedinURL     *string
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Surname == nil && p.RoleTypes == nil && p.RemotePref == nil &&
		p.AlertFreq == nil && p.CurrentRole == nil && p.CurrentCompany == nil &&
		p.YearsExperience == nil && p.Skills == nil && p.OpenToWork == nil && p.Location == nil &&
		p.WorkAuth == nil && p.NoticePeriod == nil && p.SalaryMin == nil &&
		p.SalaryCurrency == nil && p.LinkedinURL == nil
}
