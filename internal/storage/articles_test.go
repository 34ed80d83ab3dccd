package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"lexstream/internal/model"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func feedArticle() *model.Article {
	return &model.Article{
		Title:       "CJEU rules on data retention",
		Link:        "https://example.com/cjeu-data-retention",
		Description: "Summary of the ruling",
		Content:     "<p>Full text</p>",
		SourceName:  "EU Law Blog",
		SourceURL:   "https://example.com/feed.xml",
		PublishedAt: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
		FeedType:    model.FeedTypeNews,
	}
}

func TestStore_UpsertFeedArticle_New(t *testing.T) {
	store, mock := newMockStore(t)
	a := feedArticle()

	mock.ExpectQuery(regexp.QuoteMeta(upsertFeedArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.ImageURL,
			a.SourceName, a.SourceURL, a.PublishedAt, a.FeedType).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow(int64(42), true))

	inserted, err := store.UpsertFeedArticle(context.Background(), a)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, int64(42), a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertFeedArticle_ConflictNotCountedAsNew(t *testing.T) {
	store, mock := newMockStore(t)
	a := feedArticle()

	mock.ExpectQuery(regexp.QuoteMeta(upsertFeedArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.ImageURL,
			a.SourceName, a.SourceURL, a.PublishedAt, a.FeedType).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inserted"}).AddRow(int64(42), false))

	inserted, err := store.UpsertFeedArticle(context.Background(), a)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpsertFeedArticle_Error(t *testing.T) {
	store, mock := newMockStore(t)
	a := feedArticle()

	mock.ExpectQuery(regexp.QuoteMeta(upsertFeedArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.ImageURL,
			a.SourceName, a.SourceURL, a.PublishedAt, a.FeedType).
		WillReturnError(errors.New("connection reset"))

	_, err := store.UpsertFeedArticle(context.Background(), a)
	require.Error(t, err)
	require.ErrorContains(t, err, a.Link)
	require.NoError(t, mock.ExpectationsWereMet())
}

func judgmentPair() (*model.Article, *model.JudgmentMetadata) {
	court := "Court of Justice"
	a := &model.Article{
		Title:       "Judgment in Case C-1/26",
		Link:        "https://eur-lex.europa.eu/legal-content/EN/TXT/?uri=ecli:ECLI:EU:C:2026:101",
		Description: "",
		Content:     "",
		SourceName:  "EUR-Lex",
		SourceURL:   "https://publications.europa.eu/webapi/rdf/sparql",
		PublishedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
	m := &model.JudgmentMetadata{
		ECLI:  "ECLI:EU:C:2026:101",
		Court: &court,
	}
	return a, m
}

func TestStore_InsertJudgment_New(t *testing.T) {
	store, mock := newMockStore(t)
	a, m := judgmentPair()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertJudgmentArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.SourceName, a.SourceURL, a.PublishedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta(insertJudgmentMetadataSQL)).
		WithArgs(int64(7), m.ECLI, m.CELEXNumber, m.CaseNumber, m.Court, m.Chamber,
			m.JudgeRapporteur, m.AdvocateGeneral, m.ProcedureType, m.SubjectMatter,
			m.DocumentType, m.DecisionDate, m.CaseLanguage, m.Parties, m.FullText).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	inserted, err := store.InsertJudgment(context.Background(), a, m)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, int64(7), a.ID)
	require.Equal(t, int64(7), m.ArticleID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertJudgment_ExistingLinkSkipsWholeUnit(t *testing.T) {
	store, mock := newMockStore(t)
	a, m := judgmentPair()

	// ON CONFLICT DO NOTHING yields no row, so the unit rolls back.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertJudgmentArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.SourceName, a.SourceURL, a.PublishedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	inserted, err := store.InsertJudgment(context.Background(), a, m)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertJudgment_MetadataFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	a, m := judgmentPair()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertJudgmentArticleSQL)).
		WithArgs(a.Title, a.Link, a.Description, a.Content, a.SourceName, a.SourceURL, a.PublishedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec(regexp.QuoteMeta(insertJudgmentMetadataSQL)).
		WithArgs(int64(7), m.ECLI, m.CELEXNumber, m.CaseNumber, m.Court, m.Chamber,
			m.JudgeRapporteur, m.AdvocateGeneral, m.ProcedureType, m.SubjectMatter,
			m.DocumentType, m.DecisionDate, m.CaseLanguage, m.Parties, m.FullText).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := store.InsertJudgment(context.Background(), a, m)
	require.Error(t, err)
	require.ErrorContains(t, err, m.ECLI)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_JudgmentExists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM judgment_metadata WHERE ecli = $1)`)).
		WithArgs("ECLI:EU:C:2026:101").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.JudgmentExists(context.Background(), "ECLI:EU:C:2026:101")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ApplyClassification_CommitsWholeUnit(t *testing.T) {
	store, mock := newMockStore(t)
	jurisdiction := "EU"
	language := "en"

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET jurisdiction").
		WithArgs(&jurisdiction, &language, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO article_categories").
		WithArgs(int64(5), int64(3)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO article_categories").
		WithArgs(int64(5), int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.ApplyClassification(context.Background(), 5, &jurisdiction, &language, []int64{3, 9})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ApplyClassification_CategoryFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET jurisdiction").
		WithArgs((*string)(nil), (*string)(nil), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO article_categories").
		WithArgs(int64(5), int64(3)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.ApplyClassification(context.Background(), 5, nil, nil, []int64{3})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UnclassifiedArticles(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("WHERE ai_classified = FALSE").
		WithArgs(20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "description", "content"}).
			AddRow(int64(1), "First", "d1", "c1").
			AddRow(int64(2), "Second", "d2", "c2"))

	articles, err := store.UnclassifiedArticles(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	require.Equal(t, "First", articles[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateRelevanceScore(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE articles SET relevance_score").
		WithArgs(0.5, int64(11)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateRelevanceScore(context.Background(), 11, 0.5))
	require.NoError(t, mock.ExpectationsWereMet())
}
