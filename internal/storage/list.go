package storage

import (
	"context"
	"fmt"
	"strings"

	"lexstream/internal/model"
)

// ArticleFilter narrows the paginated article listing.
type ArticleFilter struct {
	Page          int
	Limit         int
	FeedType      string
	Jurisdictions []string
	CategorySlugs []string
	Search        string
	SavedOnly     bool
	UserID        int64
}

func (f *ArticleFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 30
	}
}

// whereClause builds the filter conditions with positional parameters.
func (f *ArticleFilter) whereClause() (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.FeedType != "" {
		conds = append(conds, "a.feed_type = "+arg(f.FeedType))
	}
	if len(f.Jurisdictions) == 1 {
		conds = append(conds, "a.jurisdiction = "+arg(f.Jurisdictions[0]))
	} else if len(f.Jurisdictions) > 1 {
		conds = append(conds, "a.jurisdiction = ANY("+arg(f.Jurisdictions)+")")
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, "(a.title ILIKE "+p+" OR a.description ILIKE "+p+")")
	}
	if len(f.CategorySlugs) > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM article_categories ac
			JOIN legal_categories lc ON lc.id = ac.category_id
			WHERE ac.article_id = a.id AND lc.slug = ANY(`+arg(f.CategorySlugs)+`))`)
	}
	if f.SavedOnly {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM saved_articles sa
			WHERE sa.article_id = a.id AND sa.user_id = `+arg(f.UserID)+`)`)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// ListArticles returns one page of articles ordered by relevance score then
// recency, together with the total match count. Categories, judgment
// metadata and the caller's saved/read flags are attached per page.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]model.Article, int, error) {
	f.normalize()
	where, args := f.whereClause()

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM articles a "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageArgs := append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT a.id, a.title, a.link, a.description, a.content, a.image_url,
		       a.source_name, a.source_url, a.published_at, a.feed_type,
		       a.jurisdiction, a.language, a.relevance_score, a.ai_classified,
		       a.created_at, a.updated_at
		FROM articles a
		%s
		ORDER BY a.relevance_score DESC, a.published_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)

	rows, err := s.db.Query(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []model.Article
	ids := make([]int64, 0, f.Limit)
	for rows.Next() {
		var a model.Article
		err := rows.Scan(&a.ID, &a.Title, &a.Link, &a.Description, &a.Content, &a.ImageURL,
			&a.SourceName, &a.SourceURL, &a.PublishedAt, &a.FeedType,
			&a.Jurisdiction, &a.Language, &a.RelevanceScore, &a.AIClassified,
			&a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(articles) == 0 {
		return articles, total, nil
	}

	if err := s.attachCategories(ctx, articles, ids); err != nil {
		return nil, 0, err
	}
	if err := s.attachJudgments(ctx, articles, ids); err != nil {
		return nil, 0, err
	}
	if f.UserID != 0 {
		if err := s.attachUserFlags(ctx, articles, ids, f.UserID); err != nil {
			return nil, 0, err
		}
	}
	return articles, total, nil
}

func (s *Store) attachCategories(ctx context.Context, articles []model.Article, ids []int64) error {
	rows, err := s.db.Query(ctx,
		`SELECT ac.article_id, lc.id, lc.name, lc.slug
		 FROM article_categories ac
		 JOIN legal_categories lc ON lc.id = ac.category_id
		 WHERE ac.article_id = ANY($1)
		 ORDER BY lc.name`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byArticle := make(map[int64][]model.LegalCategory)
	for rows.Next() {
		var articleID int64
		var c model.LegalCategory
		if err := rows.Scan(&articleID, &c.ID, &c.Name, &c.Slug); err != nil {
			return err
		}
		byArticle[articleID] = append(byArticle[articleID], c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range articles {
		articles[i].Categories = byArticle[articles[i].ID]
	}
	return nil
}

func (s *Store) attachJudgments(ctx context.Context, articles []model.Article, ids []int64) error {
	rows, err := s.db.Query(ctx,
		`SELECT jm.article_id, jm.id, jm.ecli, jm.celex_number, jm.case_number, jm.court,
		        jm.chamber, jm.judge_rapporteur, jm.advocate_general, jm.procedure_type,
		        jm.subject_matter, jm.document_type, jm.decision_date, jm.case_language,
		        jm.parties, jm.ai_summary, jm.ai_summarized
		 FROM judgment_metadata jm
		 WHERE jm.article_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	byArticle := make(map[int64]*model.JudgmentMetadata)
	for rows.Next() {
		var m model.JudgmentMetadata
		err := rows.Scan(&m.ArticleID, &m.ID, &m.ECLI, &m.CELEXNumber, &m.CaseNumber, &m.Court,
			&m.Chamber, &m.JudgeRapporteur, &m.AdvocateGeneral, &m.ProcedureType,
			&m.SubjectMatter, &m.DocumentType, &m.DecisionDate, &m.CaseLanguage,
			&m.Parties, &m.AISummary, &m.AISummarized)
		if err != nil {
			return err
		}
		byArticle[m.ArticleID] = &m
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for i := range articles {
		articles[i].Judgment = byArticle[articles[i].ID]
	}
	return nil
}

func (s *Store) attachUserFlags(ctx context.Context, articles []model.Article, ids []int64, userID int64) error {
	saved, err := s.flagSet(ctx, "saved_articles", ids, userID)
	if err != nil {
		return err
	}
	read, err := s.flagSet(ctx, "read_articles", ids, userID)
	if err != nil {
		return err
	}
	for i := range articles {
		_, articles[i].IsSaved = saved[articles[i].ID]
		_, articles[i].IsRead = read[articles[i].ID]
	}
	return nil
}

func (s *Store) flagSet(ctx context.Context, table string, ids []int64, userID int64) (map[int64]struct{}, error) {
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT article_id FROM %s WHERE user_id = $1 AND article_id = ANY($2)`, table),
		userID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// Jurisdictions returns the distinct non-empty jurisdiction values.
func (s *Store) Jurisdictions(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT DISTINCT jurisdiction FROM articles
		 WHERE jurisdiction IS NOT NULL AND jurisdiction != ''
		 ORDER BY jurisdiction`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var j string
		if err := rows.Scan(&j); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ListCategories returns the taxonomy with per-category article counts.
func (s *Store) ListCategories(ctx context.Context) ([]model.LegalCategory, error) {
	rows, err := s.db.Query(ctx,
		`SELECT lc.id, lc.name, lc.slug, COUNT(ac.article_id)
		 FROM legal_categories lc
		 LEFT JOIN article_categories ac ON ac.category_id = lc.id
		 GROUP BY lc.id
		 ORDER BY lc.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LegalCategory
	for rows.Next() {
		var c model.LegalCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ArticleCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetSaved adds or removes an article from the user's saved list.
func (s *Store) SetSaved(ctx context.Context, userID, articleID int64, saved bool) error {
	return s.setFlag(ctx, "saved_articles", userID, articleID, saved)
}

// SetRead marks or unmarks an article read for the user.
func (s *Store) SetRead(ctx context.Context, userID, articleID int64, read bool) error {
	return s.setFlag(ctx, "read_articles", userID, articleID, read)
}

func (s *Store) setFlag(ctx context.Context, table string, userID, articleID int64, set bool) error {
	var err error
	if set {
		_, err = s.db.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (user_id, article_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table),
			userID, articleID)
	} else {
		_, err = s.db.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND article_id = $2`, table),
			userID, articleID)
	}
	return err
}
