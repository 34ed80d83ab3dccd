package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexstream/internal/ingest"
	"lexstream/internal/model"
)

type lockedIngestor struct{}

func (lockedIngestor) FetchAllFeeds(context.Context) ([]model.FeedResult, error) {
	return nil, ingest.ErrRunInProgress
}

func (lockedIngestor) ScrapeRecentJudgments(context.Context, int) (model.ScrapeResult, error) {
	return model.ScrapeResult{}, ingest.ErrRunInProgress
}

type countingIngestor struct {
	fetches int32
	scrapes int32
}

func (c *countingIngestor) FetchAllFeeds(context.Context) ([]model.FeedResult, error) {
	atomic.AddInt32(&c.fetches, 1)
	return []model.FeedResult{{Source: "a", Fetched: 1, New: 1}}, nil
}

func (c *countingIngestor) ScrapeRecentJudgments(_ context.Context, daysBack int) (model.ScrapeResult, error) {
	atomic.AddInt32(&c.scrapes, 1)
	return model.ScrapeResult{Fetched: daysBack}, nil
}

type countingEnricher struct {
	classifyBatch  int32
	summarizeBatch int32
}

func (c *countingEnricher) ClassifyArticles(_ context.Context, batch int) (int, error) {
	atomic.StoreInt32(&c.classifyBatch, int32(batch))
	return 0, nil
}

func (c *countingEnricher) SummarizeJudgments(_ context.Context, batch int) (int, error) {
	atomic.StoreInt32(&c.summarizeBatch, int32(batch))
	return 0, nil
}

func noRescore(context.Context) (int, error) { return 0, nil }

func TestFeedCycle_RunsOnStartAndStopsOnCancel(t *testing.T) {
	ingest := &countingIngestor{}
	enrich := &countingEnricher{}
	w := &FeedCycle{Ingest: ingest, Enrich: enrich, Scores: noRescore, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ingest.fetches) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(20), atomic.LoadInt32(&enrich.classifyBatch))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}

func TestCycles_SkipWhenAnotherRunHoldsLock(t *testing.T) {
	enrich := &countingEnricher{}
	rescored := int32(0)
	scores := func(context.Context) (int, error) {
		atomic.AddInt32(&rescored, 1)
		return 0, nil
	}

	fc := &FeedCycle{Ingest: lockedIngestor{}, Enrich: enrich, Scores: scores, ClassifyBatch: 20}
	fc.runOnce(context.Background())

	jc := &JudgmentCycle{Ingest: lockedIngestor{}, Enrich: enrich, Scores: scores, DaysBack: 7, SummarizeBatch: 10}
	jc.runOnce(context.Background())

	require.Zero(t, atomic.LoadInt32(&enrich.classifyBatch), "classification must not run on a skipped cycle")
	require.Zero(t, atomic.LoadInt32(&enrich.summarizeBatch), "summarization must not run on a skipped cycle")
	require.Zero(t, atomic.LoadInt32(&rescored))
}

func TestJudgmentCycle_Defaults(t *testing.T) {
	ingest := &countingIngestor{}
	enrich := &countingEnricher{}
	w := &JudgmentCycle{Ingest: ingest, Enrich: enrich, Scores: noRescore, Interval: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&ingest.scrapes) == 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(10), atomic.LoadInt32(&enrich.summarizeBatch))

	cancel()
	require.NoError(t, <-done)
}

func TestManager_StopsAllWorkersOnCancel(t *testing.T) {
	var runs int32
	w := &RelevanceRefresher{
		Scores: func(context.Context) (int, error) {
			atomic.AddInt32(&runs, 1)
			return 3, nil
		},
		Interval: time.Hour,
	}
	mgr := NewManager(w)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mgr.Start(ctx) }()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("manager did not stop on cancel")
	}
}
