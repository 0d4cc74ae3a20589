package main

import (
	"context"
	"strings"

	"fdeworld/internal/database/sqlite"
	"fdeworld/internal/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "dbtool",
	Short:         "dbtool maintains the fdeworld jobs database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("db", "data/jobs.db", "database file (env DB_PATH)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (env LOG_LEVEL)")
	_ = viper.BindPFlag("DB_PATH", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(migrateCmd, importCmd, seedCmd, statsCmd)
}

func newLogger() *zap.SugaredLogger {
	lg, err := logger.New(false, viper.GetString("LOG_LEVEL"))
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return lg
}

// openStore opens the database file, which applies pending migrations.
func openStore(ctx context.Context, minBytes int) (*sqlite.Store, error) {
	s := sqlite.New(sqlite.Options{
		Path:           viper.GetString("DB_PATH"),
		ImportMinBytes: minBytes,
		Logger:         newLogger(),
	})
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
