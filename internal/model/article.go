package model

import "time"

// Feed types drive the relevance decay profile and default grouping.
const (
	FeedTypeNews       = "news"
	FeedTypeBlogpost   = "blogpost"
	FeedTypeRegulatory = "regulatory"
	FeedTypeJudgment   = "judgment"
)

// Article is a deduplicated content unit from any source. Link is the
// canonical identity key and is globally unique.
type Article struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Link           string     `json:"link"`
	Description    string     `json:"description"`
	Content        string     `json:"content"`
	ImageURL       *string    `json:"image_url"`
	SourceName     string     `json:"source_name"`
	SourceURL      string     `json:"source_url"`
	PublishedAt    time.Time  `json:"published_at"`
	FeedType       string     `json:"feed_type"`
	Jurisdiction   *string    `json:"jurisdiction"`
	Language       *string    `json:"language"`
	RelevanceScore float64    `json:"relevance_score"`
	AIClassified   bool       `json:"ai_classified"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Categories []LegalCategory   `json:"categories,omitempty"`
	Judgment   *JudgmentMetadata `json:"judgment,omitempty"`
	IsSaved    bool              `json:"is_saved"`
	IsRead     bool              `json:"is_read"`
}

// JudgmentMetadata extends an Article with court-judgment fields, 1:1 by
// article ID and uniquely keyed by ECLI.
type JudgmentMetadata struct {
	ID              int64      `json:"id"`
	ArticleID       int64      `json:"article_id"`
	ECLI            string     `json:"ecli"`
	CELEXNumber     *string    `json:"celex_number"`
	CaseNumber      *string    `json:"case_number"`
	Court           *string    `json:"court"`
	Chamber         *string    `json:"chamber"`
	JudgeRapporteur *string    `json:"judge_rapporteur"`
	AdvocateGeneral *string    `json:"advocate_general"`
	ProcedureType   *string    `json:"procedure_type"`
	SubjectMatter   *string    `json:"subject_matter"`
	DocumentType    *string    `json:"document_type"`
	DecisionDate    *time.Time `json:"decision_date"`
	CaseLanguage    *string    `json:"case_language"`
	Parties         *string    `json:"parties"`
	FullText        *string    `json:"-"`
	AISummary       *string    `json:"ai_summary"`
	AISummarized    bool       `json:"ai_summarized"`
}

// LegalCategory is a fixed taxonomy entry, seeded once.
type LegalCategory struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ArticleCount int64  `json:"article_count,omitempty"`
}

// User mirrors the identity-provider profile cached locally.
type User struct {
	ID                int64     `json:"id"`
	LearnWorldsUserID string    `json:"learnworlds_user_id"`
	Email             string    `json:"email"`
	Username          *string   `json:"username"`
	DisplayName       *string   `json:"display_name"`
	AvatarURL         *string   `json:"avatar_url"`
	LearnWorldsTags   []string  `json:"learnworlds_tags"`
	CategorySlugs     []string  `json:"category_slugs"`
	LastLoginAt       time.Time `json:"last_login_at"`
}

// FeedResult reports per-source ingestion counts.
type FeedResult struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	Fetched int    `json:"fetched"`
	New     int    `json:"new"`
}

// ScrapeResult reports judgment scrape counts.
type ScrapeResult struct {
	Fetched int `json:"fetched"`
	New     int `json:"new"`
}
