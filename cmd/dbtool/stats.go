package main

import (
	"encoding/json"

	"fdeworld/internal/repository"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print job counts by source and status as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore(cmd.Context(), 0)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		summary, err := repository.NewCatalogStatusRepository(s).Summary(cmd.Context())
		if err != nil {
			return err
		}
		stats, err := repository.NewJobRepository(s).Stats(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"path":    s.Path(),
			"catalog": summary,
			"totals":  stats,
		})
	},
}
