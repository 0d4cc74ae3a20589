// Package seeder fills an empty database with demo postings for local
// development.
package seeder

import (
	"context"

	"fdeworld/internal/database"

	"github.com/cockroachdb/errors"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) (int, error)
}

// Default lists the seeders in dependency order.
func Default() []Seeder {
	return []Seeder{NewJobSeeder(), EnrichmentSeeder{}}
}

// RunAll runs each seeder and returns rows inserted per seeder name.
func RunAll(ctx context.Context, db database.DB, seeders ...Seeder) (map[string]int, error) {
	out := make(map[string]int, len(seeders))
	for _, s := range seeders {
		n, err := s.Run(ctx, db)
		if err != nil {
			return out, errors.Wrapf(err, "seed %s", s.Name())
		}
		out[s.Name()] = n
	}
	return out, nil
}

func requireColumns(ctx context.Context, db database.DB, table string, columns ...string) error {
	rs, err := db.Query(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return errors.Wrapf(err, "inspect %s", table)
	}
	existing := make(map[string]struct{}, rs.Len())
	for _, row := range rs.Rows() {
		existing[row.String("name")] = struct{}{}
	}
	for _, col := range columns {
		if _, ok := existing[col]; !ok {
			return errors.Newf("schema mismatch: missing column %s.%s", table, col)
		}
	}
	return nil
}
