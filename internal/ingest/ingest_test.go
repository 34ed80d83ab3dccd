package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lexstream/internal/cellar"
	"lexstream/internal/config"
	"lexstream/internal/model"
	"lexstream/internal/rss"
)

type fakeStore struct {
	existingLinks  map[string]bool
	existingECLIs  map[string]bool
	upsertErrLinks map[string]bool

	articles  []model.Article
	judgments []model.JudgmentMetadata
}

func (f *fakeStore) UpsertFeedArticle(_ context.Context, a *model.Article) (bool, error) {
	if f.upsertErrLinks[a.Link] {
		return false, errors.New("constraint violation")
	}
	if f.existingLinks[a.Link] {
		return false, nil
	}
	if f.existingLinks == nil {
		f.existingLinks = make(map[string]bool)
	}
	f.existingLinks[a.Link] = true
	f.articles = append(f.articles, *a)
	return true, nil
}

func (f *fakeStore) JudgmentExists(_ context.Context, ecli string) (bool, error) {
	return f.existingECLIs[ecli], nil
}

func (f *fakeStore) ArticleExistsByLink(_ context.Context, link string) (bool, error) {
	return f.existingLinks[link], nil
}

func (f *fakeStore) InsertJudgment(_ context.Context, a *model.Article, m *model.JudgmentMetadata) (bool, error) {
	if f.existingLinks[a.Link] || f.existingECLIs[m.ECLI] {
		return false, nil
	}
	f.articles = append(f.articles, *a)
	f.judgments = append(f.judgments, *m)
	return true, nil
}

type fakeFetcher struct {
	drafts  map[string][]rss.Draft
	failURL string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, feedType string) ([]rss.Draft, int, error) {
	if url == f.failURL {
		return nil, 0, errors.New("connection refused")
	}
	drafts := f.drafts[url]
	for i := range drafts {
		drafts[i].FeedType = feedType
	}
	return drafts, len(drafts), nil
}

type fakeCellar struct {
	rows []map[string]cellar.Binding
	err  error
}

func (f *fakeCellar) Query(context.Context, string) (*cellar.ResultSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	var rs cellar.ResultSet
	rs.Results.Bindings = f.rows
	return &rs, nil
}

type fakeScraper struct {
	fullText string
	fetched  []string
}

func (f *fakeScraper) DocumentLink(celex, ecli string) string {
	if celex != "" {
		return "https://eur-lex.example/celex/" + celex
	}
	return "https://eur-lex.example/ecli/" + ecli
}

func (f *fakeScraper) FullText(_ context.Context, celex string) *string {
	f.fetched = append(f.fetched, celex)
	if f.fullText == "" {
		return nil
	}
	return &f.fullText
}

func draft(link string) rss.Draft {
	return rss.Draft{
		Title:       "Item " + link,
		Link:        link,
		SourceName:  "Example",
		SourceURL:   "https://example.com/feed.xml",
		PublishedAt: time.Now(),
	}
}

func TestService_FetchAllFeeds_PerSourceIsolation(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{
		Store: store,
		Fetcher: &fakeFetcher{
			drafts: map[string][]rss.Draft{
				"https://a.example/feed": {draft("https://a.example/1"), draft("https://a.example/2")},
				"https://c.example/feed": {draft("https://c.example/1")},
			},
			failURL: "https://b.example/feed",
		},
		Feeds: []config.FeedConfig{
			{URL: "https://a.example/feed", Type: model.FeedTypeNews},
			{URL: "https://b.example/feed", Type: model.FeedTypeBlogpost},
			{URL: "https://c.example/feed", Type: model.FeedTypeRegulatory},
		},
	}

	results, err := svc.FetchAllFeeds(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, model.FeedResult{Source: "https://a.example/feed", Type: "news", Fetched: 2, New: 2}, results[0])
	require.Equal(t, model.FeedResult{Source: "https://b.example/feed", Type: "blogpost"}, results[1])
	require.Equal(t, model.FeedResult{Source: "https://c.example/feed", Type: "regulatory", Fetched: 1, New: 1}, results[2])
	require.Len(t, store.articles, 3)
}

func TestService_FetchAllFeeds_SecondRunReportsZeroNew(t *testing.T) {
	store := &fakeStore{}
	svc := &Service{
		Store: store,
		Fetcher: &fakeFetcher{drafts: map[string][]rss.Draft{
			"https://a.example/feed": {draft("https://a.example/1")},
		}},
		Feeds: []config.FeedConfig{{URL: "https://a.example/feed", Type: model.FeedTypeNews}},
	}

	first, err := svc.FetchAllFeeds(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first[0].New)

	second, err := svc.FetchAllFeeds(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, second[0].Fetched)
	require.Zero(t, second[0].New)
}

func judgmentRow(ecli, celex, subject string) map[string]cellar.Binding {
	return map[string]cellar.Binding{
		"ecli":         {Value: ecli},
		"celex":        {Value: celex},
		"title":        {Value: "Judgment " + ecli},
		"date":         {Value: "2026-08-20"},
		"subjectLabel": {Value: subject},
	}
}

func TestService_ScrapeRecentJudgments(t *testing.T) {
	store := &fakeStore{}
	scraper := &fakeScraper{fullText: "HELD: the appeal is dismissed."}
	svc := &Service{
		Store:       store,
		Cellar:      &fakeCellar{rows: []map[string]cellar.Binding{
			judgmentRow("ECLI:EU:C:2026:101", "62026CJ0001", "Competition"),
			judgmentRow("ECLI:EU:C:2026:101", "62026CJ0001", "State aid"),
			judgmentRow("ECLI:EU:T:2026:55", "62026TJ0002", "Trade marks"),
		}},
		Scraper:     scraper,
		PoliteDelay: time.Millisecond,
	}

	result, err := svc.ScrapeRecentJudgments(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.ScrapeResult{Fetched: 2, New: 2}, result)

	require.Len(t, store.judgments, 2)
	merged := store.judgments[0]
	require.Equal(t, "Competition; State aid", *merged.SubjectMatter)
	require.Equal(t, "HELD: the appeal is dismissed.", *merged.FullText)
	require.Equal(t, model.FeedTypeJudgment, store.articles[0].FeedType)
	require.Equal(t, "2026-08-20", merged.DecisionDate.Format("2006-01-02"))
}

func TestService_ScrapeRecentJudgments_ArticleFields(t *testing.T) {
	store := &fakeStore{}
	scraper := &fakeScraper{fullText: "HELD: the decision is annulled."}
	svc := &Service{
		Store: store,
		Cellar: &fakeCellar{rows: []map[string]cellar.Binding{{
			"ecli":               {Value: "ECLI:EU:C:2026:200"},
			"celex":              {Value: "62026CJ0003"},
			"title":              {Value: "Azienda v Commission"},
			"date":               {Value: "2026-08-21"},
			"courtLabel":         {Value: "Court of Justice"},
			"docTypeLabel":       {Value: "Judgment"},
			"procedureTypeLabel": {Value: "Reference for a preliminary ruling"},
			"subjectLabel":       {Value: "Data protection"},
		}}},
		Scraper:     scraper,
		PoliteDelay: time.Millisecond,
	}

	_, err := svc.ScrapeRecentJudgments(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, store.articles, 1)

	a := store.articles[0]
	require.Equal(t, "Azienda v Commission", a.Title)
	require.Equal(t, "Court of Justice | Judgment | Reference for a preliminary ruling | Data protection", a.Description)
	require.Equal(t, "HELD: the decision is annulled.", a.Content)
	require.Equal(t, "Court of Justice", a.SourceName)
	require.Equal(t, "https://curia.europa.eu", a.SourceURL)
}

func TestService_ScrapeRecentJudgments_WithoutCELEX(t *testing.T) {
	store := &fakeStore{}
	scraper := &fakeScraper{fullText: "never fetched"}
	svc := &Service{
		Store: store,
		Cellar: &fakeCellar{rows: []map[string]cellar.Binding{{
			"ecli":         {Value: "ECLI:EU:C:2026:300"},
			"date":         {Value: "2026-08-22"},
			"subjectLabel": {Value: "State aid"},
		}}},
		Scraper:     scraper,
		PoliteDelay: 5 * time.Second,
	}

	start := time.Now()
	result, err := svc.ScrapeRecentJudgments(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.ScrapeResult{Fetched: 1, New: 1}, result)
	require.Less(t, time.Since(start), time.Second, "no delay is due when no full text is fetched")
	require.Empty(t, scraper.fetched, "full text must not be fetched without a CELEX number")

	a := store.articles[0]
	require.Equal(t, "Court of Justice — Decision — ECLI:EU:C:2026:300", a.Title)
	require.Equal(t, "Court of Justice | State aid", a.Description)
	require.Equal(t, a.Description, a.Content, "content falls back to the description without a full text")
}

func TestService_ScrapeRecentJudgments_SkipsKnownECLIWithoutFetching(t *testing.T) {
	store := &fakeStore{existingECLIs: map[string]bool{"ECLI:EU:C:2026:101": true}}
	scraper := &fakeScraper{}
	svc := &Service{
		Store:       store,
		Cellar:      &fakeCellar{rows: []map[string]cellar.Binding{judgmentRow("ECLI:EU:C:2026:101", "62026CJ0001", "Tax")}},
		Scraper:     scraper,
		PoliteDelay: time.Millisecond,
	}

	result, err := svc.ScrapeRecentJudgments(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, model.ScrapeResult{Fetched: 1, New: 0}, result)
	require.Empty(t, scraper.fetched, "full text must not be fetched for known judgments")
}

func TestService_ScrapeRecentJudgments_QueryFailure(t *testing.T) {
	svc := &Service{
		Store:  &fakeStore{},
		Cellar: &fakeCellar{err: errors.New("endpoint timeout")},
	}

	_, err := svc.ScrapeRecentJudgments(context.Background(), 7)
	require.Error(t, err)
	require.ErrorContains(t, err, "query cellar")
}
