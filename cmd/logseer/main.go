// Command logseer runs the query-driven alerting and scheduled execution
// engine: it loads configuration, opens the metadata store, and drives
// alert rules, scheduled reports, synthetic tests and saved-query cache
// refreshes on their cron cadences.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/logseer/logseer/internal/alerting"
	"github.com/logseer/logseer/internal/conf"
	"github.com/logseer/logseer/internal/datastore"
	"github.com/logseer/logseer/internal/datastore/repository"
	"github.com/logseer/logseer/internal/logger"
	"github.com/logseer/logseer/internal/notification"
	"github.com/logseer/logseer/internal/querycache"
	"github.com/logseer/logseer/internal/scheduler"
	"github.com/logseer/logseer/internal/synthetic"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "logseer",
		Short:        "Query-driven alerting and scheduled execution engine",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	root.AddCommand(serve)
	return root
}

func runServe(configPath string) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.NewSlogLogger(os.Stdout, settings.LogLevel(), []logger.Field{
		logger.String("service", "logseer"),
	})

	store, err := datastore.Open(settings.Database.Path)
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close datastore", logger.Error(err))
		}
	}()

	queries := repository.NewSavedQueryRepository(store.DB())
	alerts := repository.NewAlertRuleRepository(store.DB())
	silences := repository.NewSilenceRepository(store.DB())
	reports := repository.NewReportRepository(store.DB())
	synthetics := repository.NewSyntheticRepository(store.DB())

	cache := querycache.New(datastore.NewSQLExecutor(store.DB()), querycache.Options{
		MaxConcurrent: int64(settings.Scheduler.MaxConcurrentExecutions),
		ExecTimeout:   settings.Scheduler.ExecutionTimeout.Std(),
		OnStore:       scheduler.SavedQuerySnapshotStore(queries, log),
	}, log)

	notification.Initialize(notification.NewLogDispatcher(log))

	repos := scheduler.Repos{
		Queries:    queries,
		Alerts:     alerts,
		Reports:    reports,
		Synthetics: synthetics,
	}
	sched := scheduler.New(repos, cache, alerting.NewSuppressor(silences, log),
		synthetic.NewRegistry(),
		scheduler.Options{
			DefaultTTL:           settings.Cache.DefaultTTL.Std(),
			HistoryRetentionDays: settings.Scheduler.HistoryRetentionDays,
		}, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := scheduler.SeedDefaults(ctx, repos, log); err != nil {
		return fmt.Errorf("seeding defaults: %w", err)
	}
	if err := sched.LoadAll(ctx); err != nil {
		return fmt.Errorf("loading scheduled entities: %w", err)
	}
	sched.Start()

	<-ctx.Done()
	log.Info("shutdown signal received")
	sched.Stop()
	return nil
}
