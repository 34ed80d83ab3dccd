package worker

import (
	"context"
	"log/slog"
	"time"
)

// RelevanceRefresher periodically recomputes every article's decayed score
// so listings stay ordered even when no new content arrives.
type RelevanceRefresher struct {
	Scores   Rescore
	Interval time.Duration
}

func (w *RelevanceRefresher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	t := time.NewTicker(w.Interval)
	defer t.Stop()

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

func (w *RelevanceRefresher) runOnce(ctx context.Context) {
	updated, err := w.Scores(ctx)
	if err != nil {
		slog.Error("relevance refresher: failed.", "error", err)
		return
	}
	slog.Info("relevance refresher: completed", "updated", updated)
}
