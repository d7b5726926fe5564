// Command seccionalctl runs maintenance tasks against the seccional store.
package main

import (
	"os"
	"time"

	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "seccionalctl",
	Short:         "Maintenance commands for the seccional cash ledger",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// openStore loads the config and opens the database without migrating it.
func openStore() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, false)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
