package main

import (
	"errors"
	"fmt"

	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the postgres schema",
	Long: `Apply or roll back the embedded SQL migrations.

SQLite stores are created from the models on startup and have no migrations.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := postgresURL()
		if err != nil {
			return err
		}
		if err := infra.MigrateUp(url); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		url, err := postgresURL()
		if err != nil {
			return err
		}
		if err := infra.MigrateDown(url, downSteps); err != nil {
			return err
		}
		log.Info().Int("steps", downSteps).Msg("migrations rolled back")
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := postgresURL()
		if err != nil {
			return err
		}
		v, dirty, err := infra.MigrationVersion(url)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
		return nil
	},
}

func postgresURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if infra.IsSQLite(cfg.DatabaseURL) {
		return "", fmt.Errorf("DATABASE_URL %q is a sqlite store; migrations only apply to postgres", cfg.DatabaseURL)
	}
	return cfg.DatabaseURL, nil
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}
