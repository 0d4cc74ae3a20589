// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"fdeworld/internal/database"
	"fdeworld/internal/database/sqlite"

	"github.com/stretchr/testify/require"
)

// NewStore opens an empty store backed by a file in t.TempDir().
func NewStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s := sqlite.New(sqlite.Options{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// JobSeed is a jobs row; zero values fall back to sensible defaults.
type JobSeed struct {
	Title       string
	Company     string
	Location    string
	URL         string
	Source      string
	PostedDate  string
	FirstSeenAt string
	Description string
	Country     string
	SalaryRange string
	Remote      bool
	Featured    bool
	Status      string
}

func SeedJob(t *testing.T, db database.DB, j JobSeed) int64 {
	t.Helper()
	if j.Status == "" {
		j.Status = "open"
	}
	if j.Source == "" {
		j.Source = "greenhouse"
	}
	if j.FirstSeenAt == "" {
		j.FirstSeenAt = "2026-03-01 00:00:00"
	}
	res, err := db.Exec(context.Background(), database.Lazy,
		`INSERT INTO jobs (title, company, location, url, source, posted_date, first_seen_at, description_snippet,
			country, salary_range, is_remote, featured, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.Title, j.Company, nullable(j.Location), j.URL, j.Source, nullable(j.PostedDate), j.FirstSeenAt,
		nullable(j.Description), nullable(j.Country), nullable(j.SalaryRange), flag(j.Remote), flag(j.Featured), j.Status,
	)
	require.NoError(t, err)
	return res.LastInsertID
}

func SeedEnrichment(t *testing.T, db database.DB, company, stage string) {
	t.Helper()
	_, err := db.Exec(context.Background(), database.Lazy,
		`INSERT INTO company_enrichment (company_name, funding_stage, domain) VALUES (?, ?, ?)`,
		company, stage, company+".example")
	require.NoError(t, err)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
