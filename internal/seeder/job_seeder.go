package seeder

import (
	"context"
	"strings"
	"time"

	"fdeworld/internal/database"
)

type demoJob struct {
	Title       string
	Company     string
	Location    string
	Country     string
	Remote      bool
	SalaryRange string
	PostedDays  int // -1 leaves posted_date empty
	Description string
}

var demoJobs = []demoJob{
	{
		Title:       "Forward Deployed Engineer",
		Company:     "Palantir",
		Location:    "New York, NY",
		Country:     "US",
		SalaryRange: "$180k - $240k",
		PostedDays:  1,
		Description: "Embed with customers to ship data integrations and production workflows on site.",
	},
	{
		Title:       "Forward Deployed Software Engineer",
		Company:     "Anduril",
		Location:    "Remote",
		Country:     "US",
		Remote:      true,
		PostedDays:  5,
		Description: "Own deployments end to end, from requirements in the field to code in production.",
	},
	{
		Title:       "Solutions Engineer",
		Company:     "Vercel",
		Location:    "London, UK",
		Country:     "GB",
		SalaryRange: "£90k - £120k",
		PostedDays:  3,
		Description: "Partner with sales on technical discovery, demos and proof of concept builds.",
	},
	{
		Title:       "Senior Sales Engineer",
		Company:     "Datadog",
		Location:    "Paris, FR",
		Country:     "FR",
		PostedDays:  12,
		Description: "Run technical evaluations for enterprise prospects across EMEA.",
	},
	{
		Title:       "Technical Account Manager",
		Company:     "Stripe",
		Location:    "Dublin, IE",
		Country:     "IE",
		PostedDays:  -1,
		Description: "Be the technical point of contact for strategic accounts after launch.",
	},
	{
		Title:       "Implementation Engineer",
		Company:     "Rippling",
		Location:    "Remote - US",
		Country:     "US",
		SalaryRange: "$130k - $160k",
		PostedDays:  0,
		Description: "Configure and launch the platform for new customers, writing glue code where needed.",
	},
}

// JobSeeder inserts the demo postings. Rows are keyed by URL, so reruns
// leave existing rows alone.
type JobSeeder struct {
	Now func() time.Time
}

func NewJobSeeder() JobSeeder {
	return JobSeeder{Now: time.Now}
}

func (JobSeeder) Name() string { return "jobs" }

func (s JobSeeder) Run(ctx context.Context, db database.DB) (int, error) {
	if err := requireColumns(ctx, db, "jobs",
		"title", "company", "location", "url", "source", "posted_date", "first_seen_at",
		"description_snippet", "is_remote", "salary_range", "status", "country",
	); err != nil {
		return 0, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ts := now().UTC()

	inserted := 0
	err := db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		for _, it := range demoJobs {
			var posted any
			if it.PostedDays >= 0 {
				posted = ts.AddDate(0, 0, -it.PostedDays).Format("2006-01-02")
			}
			var salary any
			if it.SalaryRange != "" {
				salary = it.SalaryRange
			}
			remote := 0
			if it.Remote {
				remote = 1
			}

			res, err := tx.Exec(ctx,
				`INSERT OR IGNORE INTO jobs (
					title, company, location, url, source, posted_date, scraped_at, first_seen_at, last_seen_at,
					description_snippet, is_remote, salary_range, status, country
				) VALUES (?, ?, ?, ?, 'seed', ?, ?, ?, ?, ?, ?, ?, 'open', ?)`,
				it.Title, it.Company, it.Location, demoURL(it), posted,
				ts.Format("2006-01-02 15:04:05"), ts.Format("2006-01-02 15:04:05"), ts.Format("2006-01-02 15:04:05"),
				it.Description, remote, salary, it.Country,
			)
			if err != nil {
				return err
			}
			inserted += int(res.RowsAffected)
		}
		return nil
	})
	return inserted, err
}

func demoURL(j demoJob) string {
	return "https://jobs.example.com/" + slug(j.Company) + "/" + slug(j.Title)
}

func slug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
