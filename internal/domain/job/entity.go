package job

import "github.com/cockroachdb/errors"

var (
	ErrNotFound     = errors.New("job not found")
	ErrDuplicateURL = errors.New("job url already exists")
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Enrichment is the company_enrichment row joined by lowercased company
// name. Every field is nil when no row matched.
type Enrichment struct {
	FundingStage   *string `json:"funding_stage"`
	TotalRaised    *string `json:"total_raised"`
	LastFundedDate *string `json:"last_funded_date"`
	EmployeeCount  *string `json:"employee_count"`
	Industries     *string `json:"industries"`
	Description    *string `json:"description"`
	Domain         *string `json:"domain"`
}

func (e Enrichment) IsZero() bool {
	return e.FundingStage == nil && e.TotalRaised == nil && e.LastFundedDate == nil &&
		e.EmployeeCount == nil && e.Industries == nil && e.Description == nil && e.Domain == nil
}

type Job struct {
	ID                 int64   `json:"id"`
	Title              string  `json:"title"`
	Company            string  `json:"company"`
	Location           *string `json:"location"`
	URL                string  `json:"url"`
	Source             *string `json:"source"`
	PostedDate         *string `json:"posted_date"`
	ScrapedAt          *string `json:"scraped_at"`
	DescriptionSnippet *string `json:"description_snippet"`
	IsRemote           bool    `json:"is_remote"`
	SalaryRange        *string `json:"salary_range"`
	Status             string  `json:"status"`
	FirstSeenAt        *string `json:"first_seen_at"`
	LastSeenAt         *string `json:"last_seen_at"`
	Country            *string `json:"country"`
	CompanyURL         *string `json:"company_url"`

	Featured       bool    `json:"featured"`
	Verified       bool    `json:"verified"`
	SalaryMin      *int64  `json:"salary_min"`
	SalaryMax      *int64  `json:"salary_max"`
	SalaryCurrency *string `json:"salary_currency"`

	Enrichment Enrichment `json:"enrichment"`
}

// Page is one page of a filtered listing with the total across all pages.
type Page struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total"`
}

type Stats struct {
	TotalJobs      int `json:"total_jobs"`
	TotalCompanies int `json:"total_companies"`
	TotalSources   int `json:"total_sources"`
}

type RoleCount struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type CompanyCount struct {
	Company string `json:"company"`
	Count   int    `json:"count"`
}

// Update carries the admin-editable fields; nil leaves a field unchanged.
type Update struct {
	Title          *string
	Company        *string
	Location       *string
	SalaryMin      *int64
	SalaryMax      *int64
	SalaryCurrency *string
	URL            *string
	Status         *string
	PostedDate     *string
	Featured       *bool
}

func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Company == nil && u.Location == nil && u.SalaryMin == nil &&
		u.SalaryMax == nil && u.SalaryCurrency == nil && u.URL == nil && u.Status == nil &&
		u.PostedDate == nil && u.Featured == nil
}

// Draft is the minimum needed to create a job from a submitted URL.
type Draft struct {
	URL         string
	Title       string
	Company     string
	Location    string
	Description string
	Source      string
}

// Detail is a posting fetched from its origin page or ATS API. HTML is
// sanitised to a small tag allowlist; Text is the same content flattened.
type Detail struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	Title  string `json:"title"`
	Text   string `json:"description_text"`
	HTML   string `json:"description_html"`
}
