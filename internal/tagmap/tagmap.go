// Package tagmap resolves identity-provider user tags to legal category
// slugs. Matching runs through an ordered strategy list so the result for a
// given tag is deterministic: exact category-name match, then a keyword match
// with a trailing " law" stripped, then a direct keyword match, then a
// substring match as the last resort.
package tagmap

import (
	"log/slog"
	"strings"

	"lexstream/internal/model"
)

var nameToSlug = buildNameIndex()

func buildNameIndex() map[string]string {
	m := make(map[string]string, len(model.Taxonomy))
	for _, c := range model.Taxonomy {
		m[strings.ToLower(c.Name)] = c.Slug
	}
	return m
}

type keywordRule struct {
	keyword string
	slug    string
}

// Short keyword fallbacks for less exact tag names. Kept as an ordered list
// so the substring strategy resolves ambiguous tags the same way every run.
var keywordRules = []keywordRule{
	{"ai", "ai-platforms-data-protection"},
	{"data protection", "ai-platforms-data-protection"},
	{"gdpr", "ai-platforms-data-protection"},
	{"administrative", "administrative"},
	{"banking", "banking-finance"},
	{"finance", "banking-finance"},
	{"capital markets", "capital-markets-securities"},
	{"securities", "capital-markets-securities"},
	{"competition", "competition-antitrust"},
	{"antitrust", "competition-antitrust"},
	{"construction", "construction-real-estate"},
	{"real estate", "construction-real-estate"},
	{"consumer protection", "consumer-protection"},
	{"consumer", "consumer-protection"},
	{"corporate", "corporate-company"},
	{"company law", "corporate-company"},
	{"criminal", "criminal"},
	{"employment", "employment-labour"},
	{"labour", "employment-labour"},
	{"labor", "employment-labour"},
	{"energy", "energy"},
	{"environmental", "environmental"},
	{"family", "family"},
	{"life sciences", "life-sciences"},
	{"pharma", "life-sciences"},
	{"immigration", "immigration"},
	{"infrastructure", "infrastructure-procurement"},
	{"public procurement", "infrastructure-procurement"},
	{"procurement", "infrastructure-procurement"},
	{"media", "media-telecom"},
	{"telecommunications", "media-telecom"},
	{"telecom", "media-telecom"},
	{"insolvency", "insolvency-restructuring"},
	{"restructuring", "insolvency-restructuring"},
	{"insurance", "insurance"},
	{"intellectual property", "intellectual-property"},
	{"ip", "intellectual-property"},
	{"patents", "intellectual-property"},
	{"trademarks", "intellectual-property"},
	{"copyright", "intellectual-property"},
	{"international law", "international-trade-customs"},
	{"trade", "international-trade-customs"},
	{"customs", "international-trade-customs"},
	{"litigation", "litigation-dispute-resolution"},
	{"dispute resolution", "litigation-dispute-resolution"},
	{"arbitration", "litigation-dispute-resolution"},
	{"mergers", "mergers-acquisitions"},
	{"acquisitions", "mergers-acquisitions"},
	{"m&a", "mergers-acquisitions"},
	{"private equity", "private-equity-vc"},
	{"venture capital", "private-equity-vc"},
	{"constitutional", "constitutional"},
	{"sports", "sports-entertainment"},
	{"entertainment", "sports-entertainment"},
	{"tax", "tax"},
	{"taxation", "tax"},
	{"transport", "transport-logistics"},
	{"logistics", "transport-logistics"},
	{"shipping", "transport-logistics"},
}

func keywordExact(tag string) (string, bool) {
	for _, r := range keywordRules {
		if r.keyword == tag {
			return r.slug, true
		}
	}
	return "", false
}

// strategies run in order; the first hit wins.
var strategies = []func(tag string) (string, bool){
	func(tag string) (string, bool) {
		slug, ok := nameToSlug[tag]
		return slug, ok
	},
	func(tag string) (string, bool) {
		return keywordExact(strings.TrimSpace(strings.TrimSuffix(tag, " law")))
	},
	keywordExact,
	func(tag string) (string, bool) {
		for _, r := range keywordRules {
			if strings.Contains(tag, r.keyword) || strings.Contains(r.keyword, tag) {
				return r.slug, true
			}
		}
		return "", false
	},
}

// MapTagsToSlugs converts user tags to a de-duplicated list of category
// slugs. Unmatched tags are logged and dropped.
func MapTagsToSlugs(tags []string) []string {
	seen := make(map[string]struct{})
	slugs := make([]string, 0, len(tags))

	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		matched := false
		for _, match := range strategies {
			if slug, ok := match(normalized); ok {
				if _, dup := seen[slug]; !dup {
					seen[slug] = struct{}{}
					slugs = append(slugs, slug)
				}
				matched = true
				break
			}
		}
		if !matched {
			slog.Info("tagmap: unmatched tag", "tag", tag)
		}
	}
	return slugs
}
