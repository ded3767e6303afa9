package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"newsagent/internal/httpapi"
	"newsagent/internal/scheduler"
	"newsagent/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.cfg
		sched := scheduler.NewScheduler(a.logger,
			scheduler.Job{
				Name:     service.TaskCrawl,
				Interval: cfg.Ingest.Interval,
				Timeout:  cfg.Ingest.RunTimeout,
				Run: func(ctx context.Context) error {
					_, err := a.tasks.Crawl(ctx)
					return err
				},
			},
			scheduler.Job{
				Name:     service.TaskDeliver,
				Interval: cfg.Digest.CheckInterval,
				Timeout:  cfg.Digest.RunTimeout,
				Run: func(ctx context.Context) error {
					_, err := a.tasks.DeliverScheduled(ctx)
					return err
				},
			},
		)

		server := httpapi.NewServer(a.tasks, a.status, a.summary, a.reputation, a.logger, httpapi.Options{
			Addr:            cfg.HTTP.Addr,
			CronSecret:      cfg.HTTP.CronSecret,
			ReadTimeout:     cfg.HTTP.ReadTimeout,
			WriteTimeout:    cfg.HTTP.WriteTimeout,
			ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		})

		a.logger.Info("starting newsagent",
			"keywords", len(cfg.Ingest.Keywords),
			"regions", cfg.Ingest.Regions,
			"crawl_interval", cfg.Ingest.Interval,
			"delivery_hours", cfg.Digest.DeliveryHours,
			"lock_backend", cfg.Lock.Backend,
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return sched.Start(gctx) })
		g.Go(func() error { return server.Start(gctx) })

		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("newsagent stopped", "error", err)
			return err
		}
		a.logger.Info("newsagent stopped")
		return nil
	},
}
