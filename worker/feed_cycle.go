package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lexstream/internal/ingest"
	"lexstream/internal/model"
)

// Ingestor runs collector passes.
type Ingestor interface {
	FetchAllFeeds(ctx context.Context) ([]model.FeedResult, error)
	ScrapeRecentJudgments(ctx context.Context, daysBack int) (model.ScrapeResult, error)
}

// Enricher runs the AI enrichment passes.
type Enricher interface {
	ClassifyArticles(ctx context.Context, batch int) (int, error)
	SummarizeJudgments(ctx context.Context, batch int) (int, error)
}

// Rescore recomputes relevance scores.
type Rescore func(ctx context.Context) (int, error)

// FeedCycle periodically fetches the configured feeds, classifies the new
// arrivals and refreshes relevance scores.
type FeedCycle struct {
	Ingest        Ingestor
	Enrich        Enricher
	Scores        Rescore
	Interval      time.Duration
	ClassifyBatch int
}

func (w *FeedCycle) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 15 * time.Minute
	}
	if w.ClassifyBatch <= 0 {
		w.ClassifyBatch = 20
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

func (w *FeedCycle) runOnce(ctx context.Context) {
	results, err := w.Ingest.FetchAllFeeds(ctx)
	if errors.Is(err, ingest.ErrRunInProgress) {
		slog.Info("feed cycle: skipped, another run holds the lock")
		return
	}
	if err != nil {
		slog.Error("feed cycle: fetch failed.", "error", err)
		return
	}
	newTotal := 0
	for _, r := range results {
		newTotal += r.New
	}

	classified, err := w.Enrich.ClassifyArticles(ctx, w.ClassifyBatch)
	if err != nil {
		slog.Error("feed cycle: classify failed.", "error", err)
	}
	updated, err := w.Scores(ctx)
	if err != nil {
		slog.Error("feed cycle: rescore failed.", "error", err)
	}
	slog.Info("feed cycle: completed", "sources", len(results), "new", newTotal, "classified", classified, "rescored", updated)
}
