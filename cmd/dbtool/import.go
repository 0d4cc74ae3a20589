package main

import (
	"fmt"
	"os"
	"strings"

	"fdeworld/internal/database/sqlite"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	importTables   []string
	importMinBytes int
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the scraper tables with those in a SQLite file",
	Long: `import copies the scraper tables (` + strings.Join(sqlite.ScraperTables, ", ") + `)
from <file> into the database, dropping and recreating each table with its
indexes in one transaction. Candidate and employer data is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read import file")
		}
		s, err := openStore(cmd.Context(), importMinBytes)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		report, err := s.ImportTables(cmd.Context(), payload, importTables)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "imported %s into %s\n", humanize.Bytes(uint64(report.Bytes)), report.Path)
		for _, t := range report.Tables {
			fmt.Fprintf(out, "  %-22s %10s rows  %d indexes\n", t.Name, humanize.Comma(t.Rows), t.Indexes)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringSliceVar(&importTables, "tables", nil, "tables to import (default: all scraper tables)")
	importCmd.Flags().IntVar(&importMinBytes, "min-bytes", 4096, "reject files smaller than this")
}
