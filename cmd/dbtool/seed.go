package main

import (
	"fmt"

	"fdeworld/internal/seeder"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo jobs and company data for local development",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore(cmd.Context(), 0)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		seeders := seeder.Default()
		counts, err := seeder.RunAll(cmd.Context(), s, seeders...)
		if err != nil {
			return err
		}
		for _, sd := range seeders {
			fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d rows\n", sd.Name(), counts[sd.Name()])
		}
		return nil
	},
}
