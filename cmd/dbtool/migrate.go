package main

import (
	"fmt"

	"fdeworld/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and write the file back",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore(cmd.Context(), 0)
		if err != nil {
			return err
		}
		if err := s.Flush(cmd.Context()); err != nil {
			_ = s.Close()
			return err
		}
		st := s.Status()
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", s.Path(), describe(st))
		return s.Close()
	},
}

func describe(st database.Status) string {
	if st.LastFlush.IsZero() {
		return "not flushed"
	}
	return "flushed " + st.LastFlush.Format("2006-01-02 15:04:05")
}
