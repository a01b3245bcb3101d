package source

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
)

func (f *Fetcher) fetchFeed(ctx context.Context, sourceConfig *Config) ([]Post, error) {
	data, err := f.get(ctx, sourceConfig.Feed.URL, sourceConfig.Settings.Timeout, f.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]Post, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		posts = append(posts, normalizeFeedItem(item, parsed.Title))
	}

	return posts, nil
}

func normalizeFeedItem(item *gofeed.Item, feedTitle string) Post {
	// The link doubles as the dedup id: twitrss/nitter feeds have no usable GUID
	post := Post{
		ID:         cmp.Or(item.Link, item.GUID),
		Title:      item.Title,
		Body:       item.Description,
		URL:        item.Link,
		SourceName: feedTitle,
	}

	if item.PublishedParsed != nil {
		post.CreatedAt = *item.PublishedParsed
	} else {
		post.CreatedAt = time.Now().UTC()
	}

	if item.Image != nil && item.Image.URL != "" {
		post.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if enc != nil && enc.URL != "" && imageExtensionRe.MatchString(enc.URL) {
				post.ImageURL = enc.URL
				break
			}
		}
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		post.Author = item.Authors[0].Name
	} else if item.Author != nil {
		post.Author = item.Author.Name
	}

	return post
}
