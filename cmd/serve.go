package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexstream/internal/learnworlds"
	"lexstream/internal/server"
	"lexstream/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret must be configured")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		app, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.Close()

		feedInterval, err := time.ParseDuration(cfg.Sources.FetchInterval)
		if err != nil {
			return fmt.Errorf("invalid sources.fetch_interval: %w", err)
		}
		judgmentInterval, err := time.ParseDuration(cfg.Sources.Cellar.FetchInterval)
		if err != nil {
			return fmt.Errorf("invalid sources.cellar.fetch_interval: %w", err)
		}
		scoreInterval, err := time.ParseDuration(cfg.Enrich.ScoreInterval)
		if err != nil {
			return fmt.Errorf("invalid enrich.score_interval: %w", err)
		}
		sessionTTL, err := time.ParseDuration(cfg.Auth.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid auth.session_ttl: %w", err)
		}

		mgr := worker.NewManager(
			&worker.FeedCycle{
				Ingest:        app.ingest,
				Enrich:        app.pipeline,
				Scores:        app.rescore,
				Interval:      feedInterval,
				ClassifyBatch: cfg.Enrich.ClassifyBatch,
			},
			&worker.JudgmentCycle{
				Ingest:         app.ingest,
				Enrich:         app.pipeline,
				Scores:         app.rescore,
				Interval:       judgmentInterval,
				DaysBack:       cfg.Sources.Cellar.DaysBack,
				SummarizeBatch: cfg.Enrich.SummarizeBatch,
			},
			&worker.RelevanceRefresher{
				Scores:   app.rescore,
				Interval: scoreInterval,
			},
		)

		srv := server.New(server.Options{
			Store:    app.store,
			Ingest:   app.ingest,
			Enricher: app.pipeline,
			Identity: learnworlds.NewClient(cfg.LearnWorlds),
			Sessions: server.NewSessions(cfg.Auth.JWTSecret, sessionTTL),
			Rescore:  app.rescore,
		})

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s := <-sigc
			slog.Info("received signal, shutting down", "signal", s.String())
			cancel()
		}()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return mgr.Start(gctx) })
		g.Go(func() error {
			slog.Info("starting api server", "listen", cfg.App.Listen)
			return srv.Start(gctx, cfg.App.Listen)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
