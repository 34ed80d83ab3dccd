package rss

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ExtractImageURL finds the best image URL for a feed item. Strategies run in
// order, first success wins: enclosure with an image MIME type, media:content,
// media:thumbnail, first <img src> inside embedded HTML content, then the
// item-level image field. Returns "" when no strategy yields a usable URL;
// never an error.
func ExtractImageURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if mediaExt, ok := item.Extensions["media"]; ok {
		for _, content := range mediaExt["content"] {
			if u := content.Attrs["url"]; u != "" {
				return u
			}
		}
		for _, thumb := range mediaExt["thumbnail"] {
			if u := thumb.Attrs["url"]; u != "" {
				return u
			}
		}
	}

	html := item.Content
	if html == "" {
		html = item.Description
	}
	if strings.Contains(html, "<img") {
		if u := firstImageSrc(html); u != "" {
			return u
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return ""
}

// firstImageSrc parses embedded HTML and returns the first http(s) <img src>.
// Malformed HTML yields "".
func firstImageSrc(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	if strings.HasPrefix(src, "http") {
		return src
	}
	return ""
}
