package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rolls/internal/config"
	"rolls/internal/connectors"
	"rolls/internal/listener"
	"rolls/internal/logging"
	"rolls/internal/pipeline"
	"rolls/internal/report"
	"rolls/internal/schema"
	"rolls/internal/storage"
)

type app struct {
	cfg      config.Config
	log      *zap.Logger
	registry *schema.Registry
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "rolls",
		Short: "Squadron roll-call processor",
		Long: `Rolls turns a sign-in form export into a ranked roll call.

It reads the export (xlsx, csv, html or a saved .eml), keeps one parade
night, parses rank and name out of every entry and writes the roll in
staff, executive and cadet order together with per-section counts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.AddCommand(a.processCmd())
	rootCmd.AddCommand(a.datesCmd())
	rootCmd.AddCommand(a.schemasCmd())
	rootCmd.AddCommand(a.suggestCmd())
	rootCmd.AddCommand(a.parseCmd())
	rootCmd.AddCommand(a.historyCmd())
	rootCmd.AddCommand(a.watchCmd())
	rootCmd.AddCommand(a.fetchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	registry := schema.NewRegistry()
	n, err := registry.LoadDir(cfg.SchemaDir)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug("custom schemas loaded", zap.String("dir", cfg.SchemaDir), zap.Int("count", n))
	}

	a.cfg = cfg
	a.log = log
	a.registry = registry
	return nil
}

// openDB returns nil when runs are not recorded.
func (a *app) openDB(force bool) (*storage.DB, error) {
	if !force && !a.cfg.RecordRuns {
		return nil, nil
	}
	return storage.Open(a.cfg.DBPath)
}

func (a *app) processCmd() *cobra.Command {
	var (
		input, schemaName, date, out string
		xlsx, strict, record, asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Process one parade night from a roster export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("xlsx") {
				a.cfg.ExportXLSX = xlsx
			}
			if cmd.Flags().Changed("strict") && strict {
				a.cfg.ParseMode = string(pipeline.ModeStrict)
			}

			db, err := a.openDB(record)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			svc := pipeline.NewProcessingService(db, a.cfg, a.registry, a.log)
			res, err := svc.ProcessFile(pipeline.FileRequest{Path: input, Schema: schemaName, Date: date, OutPath: out})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res.Result)
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Summary(res, report.DefaultStyles()))
			if res.TraceID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "run %d recorded (trace %s)\n", res.RunID, res.TraceID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "roster export (xlsx, csv, html, eml)")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "form schema (default from ROLLS_SCHEMA)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "parade date YYYY-MM-DD (default most recent)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output csv path")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write an xlsx workbook next to the csv")
	cmd.Flags().BoolVar(&strict, "strict", false, "skip entries without a rank")
	cmd.Flags().BoolVar(&record, "record", false, "record the run in the run log")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) datesCmd() *cobra.Command {
	var input, schemaName string

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List the parade dates present in a roster export",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := pipeline.NewProcessingService(nil, a.cfg, a.registry, a.log)
			dates, err := svc.Dates(input, schemaName)
			if err != nil {
				return err
			}
			if len(dates) == 0 {
				return fmt.Errorf("no valid dates found in %s", input)
			}
			for _, d := range dates {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "roster export")
	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "form schema (default from ROLLS_SCHEMA)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) schemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the known form schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range a.registry.All() {
				marker := " "
				if s.Name == a.cfg.Schema {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-12s %2d sections  %s\n", marker, s.Name, len(s.Sections), s.Description)
			}
			return nil
		},
	}
}

func (a *app) suggestCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Score the known schemas against a roster export header",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := pipeline.NewProcessingService(nil, a.cfg, a.registry, a.log)
			got, err := svc.Suggest(input)
			if err != nil {
				return err
			}
			for _, s := range got {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %.2f  %s\n", s.Schema, s.Score, s.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "roster export")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) parseCmd() *cobra.Command {
	var schemaName string

	cmd := &cobra.Command{
		Use:   "parse TOKEN...",
		Short: "Show how single sign-in entries are parsed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := pipeline.NewProcessingService(nil, a.cfg, a.registry, a.log)
			names, err := svc.ParseNames(schemaName, args)
			if err != nil {
				return err
			}
			for _, n := range names {
				first := "-"
				if n.FirstName != nil {
					first = *n.FirstName
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-20s %-16s %s\n", n.Rank, n.Surname, first, n.Original)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "form schema whose name grammar applies")
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var (
		runID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs, or the roll of one run",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(true)
			if err != nil {
				return err
			}
			defer db.Close()

			styles := report.DefaultStyles()
			if strings.TrimSpace(runID) == "" {
				runs, err := db.ListRuns(limit)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Runs(runs, styles))
				return nil
			}

			id, err := strconv.Atoi(runID)
			if err != nil {
				return fmt.Errorf("bad run id %q", runID)
			}
			run, err := db.MustRun(id)
			if err != nil {
				return err
			}
			records, err := db.GetRunRecords(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %d  %s  %s  %s  trace %s\n", run.ID, run.RollDate, run.Schema, run.Source, run.TraceID)
			fmt.Fprint(cmd.OutOrStdout(), report.Records(records, styles))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run id to show")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process roster files as they land in the inbox directory",
		Long: `Watch processes every roster file that lands in the inbox directory.

With ROLLS_MAIL_PROVIDER set it also polls the mailbox and drops roster
mail into the inbox, where it is processed like any other file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fetchMail := a.cfg.MailProvider != ""
			db, err := a.openDB(fetchMail)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			runDB := db
			if !a.cfg.RecordRuns {
				runDB = nil
			}
			proc := pipeline.NewProcessingService(runDB, a.cfg, a.registry, a.log)
			svc := listener.NewService(db, a.cfg, proc, a.log)
			if fetchMail {
				conn, err := connectors.New(a.cfg, "")
				if err != nil {
					return err
				}
				interval := time.Duration(a.cfg.MailIntervalSec) * time.Second
				svc.EnableMailFetch(connectors.NewFetchService(db, a.cfg.InboxDir, conn, a.log), interval)
			}
			return svc.Run(ctx)
		},
	}
}

func (a *app) fetchCmd() *cobra.Command {
	var (
		provider, label string
		limit           int
		list            bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull roster mail from the mailbox into the inbox directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(true)
			if err != nil {
				return err
			}
			defer db.Close()

			if list {
				rows, err := db.ListMail(limit)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), report.Mail(rows, report.DefaultStyles()))
				return nil
			}

			if err := a.cfg.Require("ROLLS_INBOX_DIR", a.cfg.InboxDir); err != nil {
				return err
			}
			conn, err := connectors.New(a.cfg, provider)
			if err != nil {
				return err
			}
			if strings.TrimSpace(label) == "" {
				label = a.cfg.MailLabel
			}
			res, err := connectors.NewFetchService(db, a.cfg.InboxDir, conn, a.log).FetchToInbox(label, limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched=%d stored=%d known=%d no_roster=%d\n", res.Fetched, res.Stored, res.Known, res.NoRoster)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "imap or gmail (default from ROLLS_MAIL_PROVIDER)")
	cmd.Flags().StringVar(&label, "label", "", "mailbox or label to read (default from ROLLS_MAIL_LABEL)")
	cmd.Flags().IntVarP(&limit, "max", "n", 20, "maximum messages to read")
	cmd.Flags().BoolVar(&list, "list", false, "show the fetched-mail log instead of fetching")
	return cmd
}
