// Package ingest orchestrates the collectors: RSS/Atom feeds and CJEU
// judgments from the CELLAR SPARQL endpoint. Sources are isolated from each
// other, so one failing feed never blocks the rest of a run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"lexstream/internal/cellar"
	"lexstream/internal/config"
	"lexstream/internal/model"
	"lexstream/internal/rss"
)

// Store is the persistence surface ingestion writes through.
type Store interface {
	UpsertFeedArticle(ctx context.Context, a *model.Article) (bool, error)
	JudgmentExists(ctx context.Context, ecli string) (bool, error)
	ArticleExistsByLink(ctx context.Context, link string) (bool, error)
	InsertJudgment(ctx context.Context, a *model.Article, m *model.JudgmentMetadata) (bool, error)
}

// FeedFetcher downloads and normalizes one feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, url, feedType string) ([]rss.Draft, int, error)
}

// SPARQLClient runs a query against the CELLAR endpoint.
type SPARQLClient interface {
	Query(ctx context.Context, query string) (*cellar.ResultSet, error)
}

// FullTextScraper resolves EUR-Lex document links and full texts.
type FullTextScraper interface {
	DocumentLink(celex, ecli string) string
	FullText(ctx context.Context, celex string) *string
}

// Service runs ingestion. Locker is optional; without one overlapping runs
// are allowed and simply do redundant work against the dedup layer.
type Service struct {
	Store   Store
	Fetcher FeedFetcher
	Cellar  SPARQLClient
	Scraper FullTextScraper
	Feeds   []config.FeedConfig
	Locker  *redis.Client

	// PoliteDelay spaces consecutive EUR-Lex full-text fetches.
	PoliteDelay time.Duration
}

const (
	feedLockKey     = "lexstream:lock:feeds"
	judgmentLockKey = "lexstream:lock:judgments"
	lockTTL         = 10 * time.Minute

	judgmentQueryLimit = 100
	defaultPoliteDelay = 500 * time.Millisecond
)

// ErrRunInProgress is returned when another process holds the run-lock for
// the requested ingestion kind.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// FetchAllFeeds runs every configured feed and returns per-source counts. A
// failed source is reported with zero counts and does not abort the run.
func (s *Service) FetchAllFeeds(ctx context.Context) ([]model.FeedResult, error) {
	unlock, ok := s.acquireLock(ctx, feedLockKey)
	if !ok {
		return nil, ErrRunInProgress
	}
	defer unlock()

	results := make([]model.FeedResult, 0, len(s.Feeds))
	for _, feed := range s.Feeds {
		result := model.FeedResult{Source: feed.URL, Type: feed.Type}
		drafts, fetched, err := s.Fetcher.Fetch(ctx, feed.URL, feed.Type)
		if err != nil {
			slog.Error("fetch feed", "url", feed.URL, "error", err)
			results = append(results, result)
			continue
		}
		result.Fetched = fetched

		for i := range drafts {
			a := draftArticle(&drafts[i])
			inserted, err := s.Store.UpsertFeedArticle(ctx, a)
			if err != nil {
				slog.Error("store article", "link", a.Link, "error", err)
				continue
			}
			if inserted {
				result.New++
			}
		}
		slog.Info("feed ingested", "url", feed.URL, "fetched", result.Fetched, "new", result.New)
		results = append(results, result)
	}
	return results, nil
}

func draftArticle(d *rss.Draft) *model.Article {
	return &model.Article{
		Title:       d.Title,
		Link:        d.Link,
		Description: d.Description,
		Content:     d.Content,
		ImageURL:    d.ImageURL,
		SourceName:  d.SourceName,
		SourceURL:   d.SourceURL,
		PublishedAt: d.PublishedAt,
		FeedType:    d.FeedType,
	}
}

// ScrapeRecentJudgments queries CELLAR for judgments decided in the last
// daysBack days and stores the ones not yet recorded, fetching the EUR-Lex
// full text for each new one.
func (s *Service) ScrapeRecentJudgments(ctx context.Context, daysBack int) (model.ScrapeResult, error) {
	var result model.ScrapeResult

	unlock, ok := s.acquireLock(ctx, judgmentLockKey)
	if !ok {
		return result, ErrRunInProgress
	}
	defer unlock()

	rs, err := s.Cellar.Query(ctx, cellar.RecentJudgmentsQuery(daysBack, judgmentQueryLimit))
	if err != nil {
		return result, fmt.Errorf("query cellar: %w", err)
	}

	judgments := cellar.Deduplicate(rs.Results.Bindings)
	result.Fetched = len(judgments)

	delay := s.PoliteDelay
	if delay == 0 {
		delay = defaultPoliteDelay
	}

	for i := range judgments {
		inserted, err := s.storeJudgment(ctx, &judgments[i], delay)
		if err != nil {
			slog.Error("store judgment", "ecli", judgments[i].ECLI, "error", err)
			continue
		}
		if inserted {
			result.New++
		}
	}
	slog.Info("judgments ingested", "fetched", result.Fetched, "new", result.New)
	return result, nil
}

func (s *Service) storeJudgment(ctx context.Context, j *cellar.Judgment, delay time.Duration) (bool, error) {
	// Cheap pre-checks keep the full-text fetch off the hot path for
	// judgments already recorded.
	if exists, err := s.Store.JudgmentExists(ctx, j.ECLI); err != nil {
		return false, err
	} else if exists {
		return false, nil
	}

	link := s.Scraper.DocumentLink(j.CELEX, j.ECLI)
	if exists, err := s.Store.ArticleExistsByLink(ctx, link); err != nil {
		return false, err
	} else if exists {
		return false, nil
	}

	// The delay only spaces actual EUR-Lex requests; without a CELEX
	// number no full-text fetch happens.
	var fullText *string
	if j.CELEX != "" {
		fullText = s.Scraper.FullText(ctx, j.CELEX)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	a, m := judgmentRecords(j, link, fullText)
	return s.Store.InsertJudgment(ctx, a, m)
}

func judgmentRecords(j *cellar.Judgment, link string, fullText *string) (*model.Article, *model.JudgmentMetadata) {
	publishedAt := time.Now().UTC()
	var decisionDate *time.Time
	if t, err := time.Parse("2006-01-02", j.Date); err == nil {
		publishedAt = t
		decisionDate = &t
	}

	title := j.Title
	if title == "" {
		docType := j.DocumentType
		if docType == "" {
			docType = "Decision"
		}
		title = fmt.Sprintf("%s — %s — %s", sourceName(j.Court), docType, j.ECLI)
	}

	description := joinParts(j.Court, j.DocumentType, j.ProcedureType, j.SubjectMatter)
	content := description
	if fullText != nil && *fullText != "" {
		content = *fullText
	}

	a := &model.Article{
		Title:       title,
		Link:        link,
		Description: description,
		Content:     content,
		SourceName:  sourceName(j.Court),
		SourceURL:   "https://curia.europa.eu",
		PublishedAt: publishedAt,
		FeedType:    model.FeedTypeJudgment,
	}
	m := &model.JudgmentMetadata{
		ECLI:            j.ECLI,
		CELEXNumber:     optional(j.CELEX),
		Court:           optional(j.Court),
		Chamber:         optional(j.Formation),
		JudgeRapporteur: optional(j.JudgeRapporteur),
		AdvocateGeneral: optional(j.AdvocateGeneral),
		ProcedureType:   optional(j.ProcedureType),
		SubjectMatter:   optional(j.SubjectMatter),
		DocumentType:    optional(j.DocumentType),
		DecisionDate:    decisionDate,
		CaseLanguage:    optional(j.CaseLanguage),
		FullText:        fullText,
	}
	return a, m
}

// sourceName names the deciding court, defaulting to CJEU when CELLAR
// returned none.
func sourceName(court string) string {
	if court == "" {
		return "CJEU"
	}
	return court
}

func joinParts(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " | ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// acquireLock takes the named run-lock when a locker is configured. The
// second return is false only when another run holds the lock.
func (s *Service) acquireLock(ctx context.Context, key string) (func(), bool) {
	if s.Locker == nil {
		return func() {}, true
	}
	ok, err := s.Locker.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), lockTTL).Result()
	if err != nil {
		// Lock service trouble must not stop ingestion.
		slog.Error("acquire run lock", "key", key, "error", err)
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return func() {
		if err := s.Locker.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			slog.Error("release run lock", "key", key, "error", err)
		}
	}, true
}
