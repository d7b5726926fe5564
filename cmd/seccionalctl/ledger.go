package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nozzip/seccional/internal/config"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/nozzip/seccional/internal/service"
	"github.com/nozzip/seccional/internal/worker"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	archivePage  int
	archiveLimit int
	dlqShow      int64
	showMirror   bool
)

// newObjectClient is swapped in tests.
var newObjectClient = infra.NewObjectClient

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the open ledger",
}

// ledgerStatusCmd is read-only: unlike GET /v1/shifts/current it never starts a day.
var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the newest ledger that is not archived",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}
		rec, err := repository.NewLedgerRepository(db).FindActive(context.Background())
		if errors.Is(err, repository.ErrNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "no open ledger")
			return nil
		}
		if err != nil {
			return err
		}

		l := rec.Payload
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "business date %s, state %s, version %d\n\n", l.BusinessDate, ledger.DeriveState(l), rec.Version)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSHIFT\tSTATUS\tRESPONSIBLE\tOPENING\tREAL\tDIFFERENCE")
		for _, s := range l.Shifts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.Name, s.Status, s.Responsible, s.OpeningCash.StringFixed(2), money(s.RealCash), money(s.Difference))
		}
		return w.Flush()
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived days",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived days, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}
		svc := service.NewArchiveService(repository.NewArchiveRepository(db), service.Calendar{Location: loc})
		resp, err := svc.List(context.Background(), archivePage, archiveLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSHIFTS\tTOTAL BALANCE\tARCHIVED AT")
		for _, d := range resp.Data {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", d.Date, len(d.Shifts), d.TotalBalance.StringFixed(2), d.ArchivedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(w, "\npage %d of %d (%d days)\n", resp.Page, resp.TotalPages, resp.Total)
		return w.Flush()
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show <date>",
	Short: "Print one archived day from the store, or from the object storage mirror with --mirror",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		var day ledger.ArchivedDay
		if showMirror {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, err := newObjectClient(infra.StorageConfig{
				Endpoint:  cfg.StorageEndpoint,
				AccessKey: cfg.StorageAccessKey,
				SecretKey: cfg.StorageSecretKey,
				UseSSL:    cfg.StorageUseSSL,
			})
			if err != nil {
				return err
			}
			if client == nil {
				return errors.New("STORAGE_ENDPOINT is not set; archived days are not mirrored")
			}
			day, err = infra.NewArchiveStore(client, cfg.StorageBucket, nil).Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("read mirrored %s: %w", args[0], err)
			}
		} else {
			cfg, db, err := openStore()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			found, err := service.NewArchiveService(repository.NewArchiveRepository(db), service.Calendar{Location: loc}).FindByDate(ctx, args[0])
			if err != nil {
				return err
			}
			day = *found
		}
		return printArchivedDay(cmd.OutOrStdout(), day)
	},
}

func printArchivedDay(out io.Writer, day ledger.ArchivedDay) error {
	fmt.Fprintf(out, "archived day %s, total balance %s, archived at %s\n\n",
		day.Date, day.TotalBalance.StringFixed(2), day.ArchivedAt.Format("2006-01-02 15:04"))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSHIFT\tRESPONSIBLE\tOPENING\tINCOME\tEXPENSE\tREAL\tDIFFERENCE")
	for _, s := range day.Shifts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Responsible,
			s.OpeningCash.StringFixed(2), s.SystemIncome.StringFixed(2), s.SystemExpense.StringFixed(2),
			money(s.RealCash), money(s.Difference))
	}
	return w.Flush()
}

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Print how many background jobs are parked in the dead letter queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := openStore()
		if err != nil {
			return err
		}
		rdb, err := infra.NewRedis(cfg.RedisURL, 0)
		if err != nil {
			return err
		}
		if rdb == nil {
			return errors.New("REDIS_URL is not set; failed jobs are only logged")
		}
		defer rdb.Close()

		n, err := worker.DLQLength(context.Background(), rdb, worker.QueueJobs)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s%s: %d\n", worker.DLQPrefix, worker.QueueJobs, n)
		if dlqShow <= 0 {
			return nil
		}

		entries, err := worker.DLQEntries(context.Background(), rdb, worker.QueueJobs, dlqShow)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "\nFAILED AT\tJOB\tATTEMPTS\tREASON")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.FailedAt, e.JobType, e.Attempts, e.Reason)
		}
		return w.Flush()
	},
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func init() {
	archiveListCmd.Flags().IntVar(&archivePage, "page", 1, "page number")
	archiveListCmd.Flags().IntVar(&archiveLimit, "limit", 30, "days per page")
	archiveShowCmd.Flags().BoolVar(&showMirror, "mirror", false, "read the object storage copy instead of the database")
	dlqCmd.Flags().Int64Var(&dlqShow, "show", 0, "also print the newest N parked jobs")

	ledgerCmd.AddCommand(ledgerStatusCmd)
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd)
	rootCmd.AddCommand(ledgerCmd, archiveCmd, dlqCmd)
}
