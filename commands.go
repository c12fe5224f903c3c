package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/wordmaster/internal/api"
	"github.com/example/wordmaster/internal/corpus"
	"github.com/example/wordmaster/internal/database"
	"github.com/example/wordmaster/internal/excel"
	"github.com/example/wordmaster/internal/scheduler"
	"github.com/example/wordmaster/internal/trainer"
)

const shutdownTimeout = 5 * time.Second

func (a *app) openStore() (*database.Store, error) {
	store, err := database.Open(a.cfg.DBType, a.cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return store, nil
}

// loadCorpus reads CorpusPath as JSON, Excel or CSV, falling back to the
// embedded word list
func (a *app) loadCorpus() (*corpus.Corpus, error) {
	path := a.cfg.CorpusPath
	switch {
	case path == "":
		return corpus.Seed()
	case corpus.IsJSON(path):
		return corpus.LoadJSON(path)
	}
	icfg := excel.DefaultImportConfig()
	icfg.FilePath = path
	res, err := excel.ImportWords(icfg)
	if err != nil {
		return nil, err
	}
	for _, e := range res.Errors {
		a.log.Warn("skipped corpus row", "file", path, "error", e)
	}
	return corpus.New(res.Entries)
}

func (a *app) trainerOptions() trainer.Options {
	opts := trainer.DefaultOptions()
	opts.Quiz = a.cfg.Quiz()
	opts.Rules = a.cfg.Rules()
	opts.Logger = a.log
	return opts
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and maintenance jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := a.loadCorpus()
			if err != nil {
				return errors.Wrap(err, "failed to load corpus")
			}
			a.log.Info("corpus loaded", "words", c.Len())

			trainers := trainer.NewRegistry(store, c, a.trainerOptions())
			sched := scheduler.New(store, scheduler.Config{
				Interval:  a.cfg.MaintenanceInterval,
				Keep:      a.cfg.KeepTestResults,
				Sweeper:   trainers,
				IdleAfter: a.cfg.IdleTrainerTTL,
			}, a.log)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()

			srv := api.New(trainers, c, a.log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(a.cfg.HTTPAddr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			// Даем время на graceful shutdown
			a.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	var out, sheet string
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Convert a spreadsheet word list into a JSON corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			icfg := excel.DefaultImportConfig()
			icfg.FilePath = args[0]
			if sheet != "" {
				icfg.SheetName = sheet
			}
			res, err := excel.ImportWords(icfg)
			if err != nil {
				return err
			}
			// validates the entries before writing
			if _, err := corpus.New(res.Entries); err != nil {
				return err
			}
			data, err := corpus.Encode(res.Entries)
			if err != nil {
				return err
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
			} else {
				err = os.WriteFile(out, data, 0o644)
			}
			if err != nil {
				return errors.Wrap(err, "failed to write corpus")
			}
			for _, e := range res.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "processed %d rows: %d created, %d updated, %d skipped\n",
				res.TotalProcessed, res.Created, res.Updated, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name for Excel files")
	return cmd
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <learner>",
		Short: "Print a learner's progress and due words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			c, err := a.loadCorpus()
			if err != nil {
				return err
			}
			tr, err := trainer.NewRegistry(store, c, a.trainerOptions()).Peek(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			now := tr.Now()
			ov, err := tr.Progress().Overview(ctx, tr.LearnerID(), now)
			if err != nil {
				return err
			}
			today, err := tr.Progress().Daily(ctx, tr.LearnerID(), now)
			if err != nil {
				return err
			}
			due, err := store.GetDueRecords(ctx, tr.LearnerID(), now)
			if err != nil {
				return err
			}
			if ov.Profile == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "learner %q has no progress yet\n", tr.LearnerID())
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Level:\t%d\n", ov.Profile.Level)
			fmt.Fprintf(w, "Experience:\t%d\n", ov.Profile.Experience)
			fmt.Fprintf(w, "Streak:\t%d\n", ov.Profile.Streak)
			fmt.Fprintf(w, "Words studied:\t%d\n", ov.Profile.Statistics.TotalWordsStudied)
			fmt.Fprintf(w, "Today:\t%d/%d\n", today.Completed, today.Target)
			fmt.Fprintf(w, "Tests taken:\t%d\n", ov.Tests)
			fmt.Fprintf(w, "Due:\t%d\n", len(due))
			for _, r := range due {
				word := r.WordID
				if e, ok := c.Get(r.WordID); ok {
					word = e.Word
				}
				fmt.Fprintf(w, "  %s\tmastery %.0f\tdue %s\n", word, r.MasteryScore, r.NextReviewAt.Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <learner>",
		Short: "Delete a learner's records and test results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeleteLearnerData(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.log.Info("learner data reset", "learner", args[0])
			return nil
		},
	}
}
