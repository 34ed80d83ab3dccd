package tagmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapTagsToSlugs(t *testing.T) {
	cases := []struct {
		name string
		tags []string
		want []string
	}{
		{
			name: "exact category name",
			tags: []string{"Tax Law"},
			want: []string{"tax"},
		},
		{
			name: "law suffix stripped to keyword",
			tags: []string{"Banking Law"},
			want: []string{"banking-finance"},
		},
		{
			name: "direct keyword",
			tags: []string{"gdpr"},
			want: []string{"ai-platforms-data-protection"},
		},
		{
			name: "substring fallback",
			tags: []string{"european competition matters"},
			want: []string{"competition-antitrust"},
		},
		{
			name: "case and whitespace normalized",
			tags: []string{"  CRIMINAL LAW  "},
			want: []string{"criminal"},
		},
		{
			name: "duplicates collapse",
			tags: []string{"Tax Law", "taxation", "tax"},
			want: []string{"tax"},
		},
		{
			name: "unmatched tags dropped",
			tags: []string{"knitting club"},
			want: []string{},
		},
		{
			name: "empty and blank tags ignored",
			tags: []string{"", "   "},
			want: []string{},
		},
		{
			name: "mixed input keeps order of first match",
			tags: []string{"M&A", "Insolvency", "nonsense"},
			want: []string{"mergers-acquisitions", "insolvency-restructuring"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapTagsToSlugs(tc.tags))
		})
	}
}

func TestMapTagsToSlugsNil(t *testing.T) {
	assert.Empty(t, MapTagsToSlugs(nil))
}
