// Package eurlex fetches judgment full text from EUR-Lex by CELEX number.
package eurlex

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaxFullTextChars caps stored full text; it also bounds the prompt excerpt
// the summarizer builds later.
const MaxFullTextChars = 50000

type Scraper struct {
	baseURL string
	client  *http.Client
}

func NewScraper(baseURL string) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// DocumentLink returns the canonical EUR-Lex page for a judgment, preferring
// the CELEX form when a CELEX number is known.
func (s *Scraper) DocumentLink(celex, ecli string) string {
	if celex != "" {
		return fmt.Sprintf("%s/legal-content/EN/TXT/?uri=CELEX:%s", s.baseURL, url.QueryEscape(celex))
	}
	return fmt.Sprintf("%s/legal-content/EN/TXT/?uri=ecli:%s", s.baseURL, url.QueryEscape(ecli))
}

// FullText fetches and extracts the judgment body for a CELEX number,
// collapsed to single-space whitespace and capped at MaxFullTextChars.
// Any failure (network, non-success status, unparseable HTML) returns nil;
// full text is an optional enrichment and must never abort the caller.
func (s *Scraper) FullText(ctx context.Context, celex string) *string {
	if celex == "" {
		return nil
	}

	fetchURL := fmt.Sprintf("%s/legal-content/EN/TXT/HTML/?uri=CELEX:%s", s.baseURL, url.QueryEscape(celex))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "LexStream/1.0 (educational/research)")
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("eurlex: full text fetch failed", "celex", celex, "error", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Info("eurlex: full text unavailable", "celex", celex, "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("eurlex: parse failed", "celex", celex, "error", err)
		return nil
	}

	// EUR-Lex wraps the judgment text in #document1 or .EurlexContent.
	text := doc.Find("#document1").Text()
	if text == "" {
		text = doc.Find(".EurlexContent").Text()
	}
	if text == "" {
		text = doc.Find("body").Text()
	}

	cleaned := collapseWhitespace(text)
	if cleaned == "" {
		return nil
	}
	if r := []rune(cleaned); len(r) > MaxFullTextChars {
		cleaned = string(r[:MaxFullTextChars])
	}
	return &cleaned
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
