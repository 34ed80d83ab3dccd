package relevance

import (
	"context"
	"math"
	"time"
)

// Half-life in hours per feed type. After one half-life the score drops to
// 0.5, after two to 0.25, and so on.
var halfLifeHours = map[string]float64{
	"news":       10,
	"blogpost":   48,
	"judgment":   120,
	"regulatory": 168,
}

const defaultHalfLifeHours = 24

// HalfLife returns the decay half-life in hours for a feed type.
func HalfLife(feedType string) float64 {
	if h, ok := halfLifeHours[feedType]; ok {
		return h
	}
	return defaultHalfLifeHours
}

// Score computes the time-decayed relevance of an item published at
// publishedAt as seen at now: 2^(-ageHours/halfLife), rounded to four decimal
// places before persistence.
func Score(feedType string, publishedAt, now time.Time) float64 {
	ageHours := now.Sub(publishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	score := math.Pow(2, -ageHours/HalfLife(feedType))
	return math.Round(score*10000) / 10000
}

// Scorable is the subset of the article row needed to recompute its score.
type Scorable struct {
	ID          int64
	FeedType    string
	PublishedAt time.Time
}

// Store is the persistence surface the refresh operation needs.
type Store interface {
	ArticlesForScoring(ctx context.Context) ([]Scorable, error)
	UpdateRelevanceScore(ctx context.Context, id int64, score float64) error
}

// Refresh recomputes and persists the relevance score for every stored
// article. It is idempotent and order-independent; running it twice in
// succession yields the same monotonically-decayed values. Returns the number
// of articles updated.
func Refresh(ctx context.Context, store Store) (int, error) {
	articles, err := store.ArticlesForScoring(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	updated := 0
	for _, a := range articles {
		if err := store.UpdateRelevanceScore(ctx, a.ID, Score(a.FeedType, a.PublishedAt, now)); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
