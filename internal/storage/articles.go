package storage

import (
	"context"
	"errors"
	"fmt"

	"lexstream/internal/model"
	"lexstream/internal/relevance"

	"github.com/jackc/pgx/v5"
)

const upsertFeedArticleSQL = `
INSERT INTO articles (title, link, description, content, image_url, source_name, source_url, published_at, feed_type)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (link) DO UPDATE SET image_url = COALESCE(articles.image_url, EXCLUDED.image_url)
RETURNING id, (xmax = 0) AS inserted`

// UpsertFeedArticle inserts a feed-sourced draft or, on a link conflict,
// fills in the image URL only when the stored one is still null. Every other
// field is immutable once first written by this path. Returns whether the row
// was newly inserted.
func (s *Store) UpsertFeedArticle(ctx context.Context, a *model.Article) (bool, error) {
	var id int64
	var inserted bool
	err := s.db.QueryRow(ctx, upsertFeedArticleSQL,
		a.Title, a.Link, a.Description, a.Content, a.ImageURL,
		a.SourceName, a.SourceURL, a.PublishedAt, a.FeedType,
	).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert article %q: %w", a.Link, err)
	}
	a.ID = id
	return inserted, nil
}

// JudgmentExists reports whether a judgment with this ECLI is already
// recorded. Checked independently of the link so two differently-formed
// links cannot duplicate one case.
func (s *Store) JudgmentExists(ctx context.Context, ecli string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM judgment_metadata WHERE ecli = $1)`, ecli).Scan(&exists)
	return exists, err
}

// ArticleExistsByLink reports whether an article with this canonical link
// exists.
func (s *Store) ArticleExistsByLink(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE link = $1)`, link).Scan(&exists)
	return exists, err
}

const insertJudgmentArticleSQL = `
INSERT INTO articles (title, link, description, content, source_name, source_url, published_at, feed_type, jurisdiction, language)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'judgment', 'EU', 'en')
ON CONFLICT (link) DO NOTHING
RETURNING id`

const insertJudgmentMetadataSQL = `
INSERT INTO judgment_metadata
  (article_id, ecli, celex_number, case_number, court, chamber, judge_rapporteur, advocate_general,
   procedure_type, subject_matter, document_type, decision_date, case_language, parties, full_text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (ecli) DO NOTHING`

// InsertJudgment writes the article row and its metadata extension as one
// atomic unit. Judgments are first-write-wins: a link conflict skips the
// whole unit and rolls back, so an article is never left unpaired with its
// metadata. Returns whether a new judgment was stored.
func (s *Store) InsertJudgment(ctx context.Context, a *model.Article, m *model.JudgmentMetadata) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	var articleID int64
	err = tx.QueryRow(ctx, insertJudgmentArticleSQL,
		a.Title, a.Link, a.Description, a.Content, a.SourceName, a.SourceURL, a.PublishedAt,
	).Scan(&articleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // link already recorded, keep existing state
	}
	if err != nil {
		return false, fmt.Errorf("insert judgment article %q: %w", a.Link, err)
	}

	_, err = tx.Exec(ctx, insertJudgmentMetadataSQL,
		articleID, m.ECLI, m.CELEXNumber, m.CaseNumber, m.Court, m.Chamber,
		m.JudgeRapporteur, m.AdvocateGeneral, m.ProcedureType, m.SubjectMatter,
		m.DocumentType, m.DecisionDate, m.CaseLanguage, m.Parties, m.FullText)
	if err != nil {
		return false, fmt.Errorf("insert judgment metadata %q: %w", m.ECLI, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	a.ID = articleID
	m.ArticleID = articleID
	return true, nil
}

// UnclassifiedArticles returns up to limit articles still awaiting
// classification, most recent first.
func (s *Store) UnclassifiedArticles(ctx context.Context, limit int) ([]model.Article, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, title, description, content FROM articles
		 WHERE ai_classified = FALSE
		 ORDER BY published_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Article
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Content); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CategoryIDsByName loads the taxonomy as a name-to-id map for resolving
// classifier labels.
func (s *Store) CategoryIDsByName(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM legal_categories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[name] = id
	}
	return out, rows.Err()
}

// ApplyClassification marks an article classified and writes its
// jurisdiction, language and category links in one transaction. The status
// flag never flips without the rest of the unit landing with it.
func (s *Store) ApplyClassification(ctx context.Context, articleID int64, jurisdiction, language *string, categoryIDs []int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE articles SET jurisdiction = $1, language = $2, ai_classified = TRUE, updated_at = NOW()
		 WHERE id = $3`,
		jurisdiction, language, articleID)
	if err != nil {
		return fmt.Errorf("update article %d classification: %w", articleID, err)
	}

	for _, catID := range categoryIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			articleID, catID)
		if err != nil {
			return fmt.Errorf("link article %d to category %d: %w", articleID, catID, err)
		}
	}

	return tx.Commit(ctx)
}

// UnsummarizedJudgments returns up to limit judgments still awaiting an AI
// summary, most recent decision first.
func (s *Store) UnsummarizedJudgments(ctx context.Context, limit int) ([]model.JudgmentMetadata, error) {
	rows, err := s.db.Query(ctx,
		`SELECT jm.id, jm.article_id, jm.ecli, jm.celex_number, jm.court, jm.chamber,
		        jm.judge_rapporteur, jm.advocate_general, jm.procedure_type, jm.subject_matter,
		        jm.document_type, jm.decision_date, jm.case_language, jm.parties, jm.full_text
		 FROM judgment_metadata jm
		 WHERE jm.ai_summarized = FALSE
		 ORDER BY jm.decision_date DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JudgmentMetadata
	for rows.Next() {
		var m model.JudgmentMetadata
		err := rows.Scan(&m.ID, &m.ArticleID, &m.ECLI, &m.CELEXNumber, &m.Court, &m.Chamber,
			&m.JudgeRapporteur, &m.AdvocateGeneral, &m.ProcedureType, &m.SubjectMatter,
			&m.DocumentType, &m.DecisionDate, &m.CaseLanguage, &m.Parties, &m.FullText)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ApplyJudgmentSummary persists a judgment analysis atomically: summary and
// summarized flag on the metadata row, classification flag plus jurisdiction
// on the article (the description is backfilled with the significance line
// only when still empty), and the category links.
func (s *Store) ApplyJudgmentSummary(ctx context.Context, m *model.JudgmentMetadata, summary, jurisdiction, significance string, categoryIDs []int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE judgment_metadata SET ai_summary = $1, ai_summarized = TRUE WHERE id = $2`,
		summary, m.ID)
	if err != nil {
		return fmt.Errorf("update judgment %q summary: %w", m.ECLI, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE articles
		 SET ai_classified = TRUE, jurisdiction = $1, updated_at = NOW(),
		     description = CASE WHEN description = '' THEN $2 ELSE description END
		 WHERE id = $3`,
		jurisdiction, significance, m.ArticleID)
	if err != nil {
		return fmt.Errorf("update judgment article %d: %w", m.ArticleID, err)
	}

	for _, catID := range categoryIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO article_categories (article_id, category_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			m.ArticleID, catID)
		if err != nil {
			return fmt.Errorf("link article %d to category %d: %w", m.ArticleID, catID, err)
		}
	}

	return tx.Commit(ctx)
}

// ArticlesForScoring returns every article's scoring inputs.
func (s *Store) ArticlesForScoring(ctx context.Context) ([]relevance.Scorable, error) {
	rows, err := s.db.Query(ctx, `SELECT id, feed_type, published_at FROM articles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relevance.Scorable
	for rows.Next() {
		var a relevance.Scorable
		if err := rows.Scan(&a.ID, &a.FeedType, &a.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateRelevanceScore persists a recomputed score.
func (s *Store) UpdateRelevanceScore(ctx context.Context, id int64, score float64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE articles SET relevance_score = $1, updated_at = NOW() WHERE id = $2`,
		score, id)
	return err
}
