// Package rss fetches configured RSS/Atom feeds and normalizes their items
// into article drafts.
package rss

import (
	"context"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Draft is a normalized article candidate from a feed item. Items without a
// link never become drafts; they are dropped by Normalize and counted as
// skipped by the caller.
type Draft struct {
	Title       string
	Link        string
	Description string
	Content     string
	ImageURL    *string
	SourceName  string
	SourceURL   string
	PublishedAt time.Time
	FeedType    string
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

func NewFetcher() *Fetcher {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 30 * time.Second}
	p.UserAgent = "LexStream/1.0 (legal news aggregator)"
	return &Fetcher{parser: p}
}

// Fetch downloads one feed and returns its normalized drafts plus the raw
// item count. Network or parse failures return an error; the caller treats
// the whole source as zero-fetched.
func (f *Fetcher) Fetch(ctx context.Context, url, feedType string) ([]Draft, int, error) {
	feed, err := f.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, 0, err
	}

	drafts := make([]Draft, 0, len(feed.Items))
	for _, item := range feed.Items {
		if d, ok := Normalize(feed, item, url, feedType); ok {
			drafts = append(drafts, d)
		}
	}
	return drafts, len(feed.Items), nil
}

// Normalize converts one feed item into a draft. The only hard requirement is
// the item link; everything else falls back or stays empty.
func Normalize(feed *gofeed.Feed, item *gofeed.Item, feedURL, feedType string) (Draft, bool) {
	if item.Link == "" {
		return Draft{}, false
	}

	title := item.Title
	if title == "" {
		title = "Untitled"
	}

	description := item.Description
	if description == "" {
		description = item.Content
	}
	content := item.Content
	if content == "" {
		content = item.Description
	}

	sourceName := feed.Title
	if item.Author != nil && item.Author.Name != "" {
		sourceName = item.Author.Name
	}
	sourceURL := feed.Link
	if sourceURL == "" {
		sourceURL = feedURL
	}

	publishedAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	}

	var imageURL *string
	if u := ExtractImageURL(item); u != "" {
		imageURL = &u
	}

	return Draft{
		Title:       title,
		Link:        item.Link,
		Description: description,
		Content:     content,
		ImageURL:    imageURL,
		SourceName:  sourceName,
		SourceURL:   sourceURL,
		PublishedAt: publishedAt,
		FeedType:    feedType,
	}, true
}
