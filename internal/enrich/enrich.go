// Package enrich runs the AI enrichment passes: article classification and
// judgment summarization. Both operate on bounded batches of records whose
// status flag is still unset, so a failed record is simply picked up again
// on the next run.
package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"lexstream/internal/ai"
	"lexstream/internal/model"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	UnclassifiedArticles(ctx context.Context, limit int) ([]model.Article, error)
	UnsummarizedJudgments(ctx context.Context, limit int) ([]model.JudgmentMetadata, error)
	CategoryIDsByName(ctx context.Context) (map[string]int64, error)
	ApplyClassification(ctx context.Context, articleID int64, jurisdiction, language *string, categoryIDs []int64) error
	ApplyJudgmentSummary(ctx context.Context, m *model.JudgmentMetadata, summary, jurisdiction, significance string, categoryIDs []int64) error
}

type Pipeline struct {
	Store   Store
	Analyst ai.Analyst
}

// ClassifyArticles classifies up to batch unclassified articles and returns
// how many were classified. A record whose analysis fails is logged and left
// unclassified; the batch keeps going.
func (p *Pipeline) ClassifyArticles(ctx context.Context, batch int) (int, error) {
	if p.Analyst == nil {
		slog.Warn("no analyst configured, skipping classification")
		return 0, nil
	}
	articles, err := p.Store.UnclassifiedArticles(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("select unclassified articles: %w", err)
	}
	if len(articles) == 0 {
		return 0, nil
	}

	categories, err := p.Store.CategoryIDsByName(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}

	classified := 0
	for i := range articles {
		a := &articles[i]
		text := a.Description
		if text == "" {
			text = a.Content
		}
		result, err := p.Analyst.ClassifyArticle(ctx, a.Title, text)
		if err != nil {
			slog.Error("classify article", "article_id", a.ID, "error", err)
			continue
		}
		err = p.Store.ApplyClassification(ctx, a.ID,
			optional(result.Jurisdiction), optional(result.Language),
			resolveCategories(result.LegalAreas, categories))
		if err != nil {
			slog.Error("apply classification", "article_id", a.ID, "error", err)
			continue
		}
		classified++
	}
	slog.Info("classification pass done", "batch", len(articles), "classified", classified)
	return classified, nil
}

// SummarizeJudgments summarizes up to batch unsummarized judgments and
// returns how many were summarized.
func (p *Pipeline) SummarizeJudgments(ctx context.Context, batch int) (int, error) {
	if p.Analyst == nil {
		slog.Warn("no analyst configured, skipping summarization")
		return 0, nil
	}
	judgments, err := p.Store.UnsummarizedJudgments(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("select unsummarized judgments: %w", err)
	}
	if len(judgments) == 0 {
		return 0, nil
	}

	categories, err := p.Store.CategoryIDsByName(ctx)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}

	summarized := 0
	for i := range judgments {
		m := &judgments[i]
		analysis, err := p.Analyst.AnalyzeJudgment(ctx, m)
		if err != nil {
			slog.Error("analyze judgment", "ecli", m.ECLI, "error", err)
			continue
		}
		err = p.Store.ApplyJudgmentSummary(ctx, m,
			analysis.Summary, analysis.Jurisdiction, analysis.Significance,
			resolveCategories(analysis.LegalAreas, categories))
		if err != nil {
			slog.Error("apply judgment summary", "ecli", m.ECLI, "error", err)
			continue
		}
		summarized++
	}
	slog.Info("summarization pass done", "batch", len(judgments), "summarized", summarized)
	return summarized, nil
}

// resolveCategories maps classifier labels to taxonomy IDs. Labels outside
// the taxonomy are dropped.
func resolveCategories(labels []string, categories map[string]int64) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	for _, label := range labels {
		id, ok := categories[label]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
