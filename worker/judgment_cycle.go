package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lexstream/internal/ingest"
)

// JudgmentCycle periodically scrapes recent CJEU judgments, summarizes the
// new ones and refreshes relevance scores.
type JudgmentCycle struct {
	Ingest         Ingestor
	Enrich         Enricher
	Scores         Rescore
	Interval       time.Duration
	DaysBack       int
	SummarizeBatch int
}

func (w *JudgmentCycle) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 6 * time.Hour
	}
	if w.DaysBack <= 0 {
		w.DaysBack = 7
	}
	if w.SummarizeBatch <= 0 {
		w.SummarizeBatch = 10
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

	// initial run
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *JudgmentCycle) runOnce(ctx context.Context) {
	result, err := w.Ingest.ScrapeRecentJudgments(ctx, w.DaysBack)
	if errors.Is(err, ingest.ErrRunInProgress) {
		slog.Info("judgment cycle: skipped, another run holds the lock")
		return
	}
	if err != nil {
		slog.Error("judgment cycle: scrape failed.", "error", err)
		return
	}

	summarized, err := w.Enrich.SummarizeJudgments(ctx, w.SummarizeBatch)
	if err != nil {
		slog.Error("judgment cycle: summarize failed.", "error", err)
	}
	updated, err := w.Scores(ctx)
	if err != nil {
		slog.Error("judgment cycle: rescore failed.", "error", err)
	}
	slog.Info("judgment cycle: completed", "fetched", result.Fetched, "new", result.New, "summarized", summarized, "rescored", updated)
}
