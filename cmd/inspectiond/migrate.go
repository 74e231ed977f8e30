package main

import (
	"github.com/spf13/cobra"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/db"
)

func migrateCmd(load func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return err
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
