package seeder

import (
	"context"

	"fdeworld/internal/database"
)

var demoEnrichment = []struct {
	Company, Stage, Raised, Employees, Industries, Domain string
}{
	{"Palantir", "Public", "$3B", "3700", "Software, Analytics", "palantir.com"},
	{"Anduril", "Series F", "$3.7B", "2500", "Defense", "anduril.com"},
	{"Vercel", "Series E", "$563M", "600", "Developer Tools", "vercel.com"},
	{"Stripe", "Series I", "$9.4B", "8000", "Payments", "stripe.com"},
	{"Rippling", "Series F", "$1.4B", "3000", "HR, Payroll", "rippling.com"},
}

// EnrichmentSeeder adds funding data for the demo companies that have none.
type EnrichmentSeeder struct{}

func (EnrichmentSeeder) Name() string { return "company_enrichment" }

func (EnrichmentSeeder) Run(ctx context.Context, db database.DB) (int, error) {
	if err := requireColumns(ctx, db, "company_enrichment",
		"company_name", "funding_stage", "total_raised", "employee_count", "industries", "domain",
	); err != nil {
		return 0, err
	}

	inserted := 0
	err := db.Tx(ctx, database.Durable, func(tx database.Tx) error {
		for _, it := range demoEnrichment {
			res, err := tx.Exec(ctx,
				`INSERT INTO company_enrichment (company_name, funding_stage, total_raised, employee_count, industries, domain)
				 SELECT ?, ?, ?, ?, ?, ?
				 WHERE NOT EXISTS (SELECT 1 FROM company_enrichment WHERE lower(company_name) = lower(?))`,
				it.Company, it.Stage, it.Raised, it.Employees, it.Industries, it.Domain, it.Company,
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
