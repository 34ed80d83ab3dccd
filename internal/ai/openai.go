package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lexstream/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ClassificationResult is the strict JSON shape the classifier must return.
type ClassificationResult struct {
	LegalAreas   []string `json:"legal_areas"`
	Jurisdiction string   `json:"jurisdiction"`
	Language     string   `json:"language"`
}

// JudgmentAnalysis is the strict JSON shape the judgment analyst must return.
type JudgmentAnalysis struct {
	Summary       string   `json:"summary"`
	LegalAreas    []string `json:"legal_areas"`
	Jurisdiction  string   `json:"jurisdiction"`
	KeyProvisions []string `json:"key_provisions"`
	Significance  string   `json:"significance"`
}

// Analyst defines the text-analysis interface used by the enrichment
// pipeline and commands.
type Analyst interface {
	// ClassifyArticle assigns legal areas, jurisdiction and language to an
	// article given its title and a bounded text excerpt.
	ClassifyArticle(ctx context.Context, title, text string) (*ClassificationResult, error)
	// AnalyzeJudgment produces a professional summary plus classification for
	// a court judgment from its structured fields and full-text excerpt.
	AnalyzeJudgment(ctx context.Context, meta *model.JudgmentMetadata) (*JudgmentAnalysis, error)
}

// Input caps keep prompt sizes bounded regardless of stored content length.
const (
	maxArticleExcerptRunes  = 1500
	maxJudgmentExcerptRunes = 12000
)

// OpenAIClient implements Analyst using the OpenAI Chat Completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
}

func NewOpenAI(cfg Config) *OpenAIClient {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	model := cfg.Model
	if model == "" {
		panic("OpenAI model must be specified")
	}
	return &OpenAIClient{client: c, model: model}
}

func classificationPrompt() string {
	b := &strings.Builder{}
	b.WriteString(`You are a legal content classifier. Analyze the following article and return a JSON object with:

1. "legal_areas": an array of 1-3 most relevant legal categories from this exact list:
`)
	for _, name := range model.CategoryNames() {
		fmt.Fprintf(b, "- %s\n", name)
	}
	b.WriteString(`
2. "jurisdiction": the primary jurisdiction this article relates to (e.g., "EU", "US", "UK", "Portugal", "Brazil", "International", etc.). Use the country name or common abbreviation.

3. "language": the ISO 639-1 language code of the article (e.g., "en", "pt", "fr", "de", "es").

Return ONLY valid JSON, no other text. Example:
{"legal_areas": ["Tax Law", "Corporate / Company Law"], "jurisdiction": "EU", "language": "en"}`)
	return b.String()
}

func judgmentPrompt() string {
	b := &strings.Builder{}
	b.WriteString(`You are an expert EU law analyst. Analyze the following CJEU judgment and produce a JSON response with:

1. "summary": A clear, professional summary of the judgment (3-5 paragraphs). Cover:
   - The parties and background of the dispute
   - The key legal questions referred or issues raised
   - The Court's reasoning and key legal principles established
   - The ruling/operative part and its practical implications

2. "legal_areas": An array of 1-3 most relevant legal categories from this exact list:
`)
	for _, name := range model.CategoryNames() {
		fmt.Fprintf(b, "- %s\n", name)
	}
	b.WriteString(`
3. "jurisdiction": Always "EU" for CJEU cases.

4. "key_provisions": An array of key EU legal provisions cited (e.g., "Article 101 TFEU", "Regulation 2016/679 (GDPR) Art. 5").

5. "significance": A one-sentence assessment of the judgment's practical significance for legal practitioners.

Return ONLY valid JSON.`)
	return b.String()
}

func (o *OpenAIClient) ClassifyArticle(ctx context.Context, title, text string) (*ClassificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > maxArticleExcerptRunes {
		text = string(r[:maxArticleExcerptRunes])
	}

	user := fmt.Sprintf("Title: %s\n\nContent: %s", title, text)
	out, err := o.create(ctx, classificationPrompt(), user)
	if err != nil {
		return nil, err
	}

	var result ClassificationResult
	if err := decodeFirstJSON(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (o *OpenAIClient) AnalyzeJudgment(ctx context.Context, meta *model.JudgmentMetadata) (*JudgmentAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, 300*time.Second)
	defer cancel()

	out, err := o.create(ctx, judgmentPrompt(), JudgmentInput(meta))
	if err != nil {
		return nil, err
	}

	var result JudgmentAnalysis
	if err := decodeFirstJSON(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JudgmentInput builds the user prompt from the judgment's structured fields
// and a capped excerpt of the full text when available.
func JudgmentInput(meta *model.JudgmentMetadata) string {
	parts := []string{}
	add := func(label string, v *string) {
		if v != nil && *v != "" {
			parts = append(parts, label+": "+*v)
		}
	}
	add("Case", meta.Parties)
	if meta.ECLI != "" {
		parts = append(parts, "ECLI: "+meta.ECLI)
	}
	add("Court", meta.Court)
	add("Formation", meta.Chamber)
	add("Document type", meta.DocumentType)
	add("Procedure", meta.ProcedureType)
	add("Subject matter", meta.SubjectMatter)
	if meta.DecisionDate != nil {
		parts = append(parts, "Decision date: "+meta.DecisionDate.Format("2006-01-02"))
	}
	header := strings.Join(parts, "\n")

	excerpt := "(not available)"
	if meta.FullText != nil && *meta.FullText != "" {
		excerpt = *meta.FullText
		if r := []rune(excerpt); len(r) > maxJudgmentExcerptRunes {
			excerpt = string(r[:maxJudgmentExcerptRunes])
		}
	}

	return fmt.Sprintf("%s\n\n---\n\nFull text (excerpt):\n%s", header, excerpt)
}

func (o *OpenAIClient) create(ctx context.Context, system, user string) (string, error) {
	// Default timeout guard, if caller didn't set one
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoJSON
	}
	return resp.Choices[0].Message.Content, nil
}
