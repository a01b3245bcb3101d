package source

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Reddit listing JSON as returned by /r/<sr>/<sort>.json

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	Subreddit  string  `json:"subreddit"`
	Permalink  string  `json:"permalink"`
	URL        string  `json:"url"`
	Thumbnail  string  `json:"thumbnail"`
	CreatedUTC float64 `json:"created_utc"`
	Over18     bool    `json:"over_18"`
	PostHint   string  `json:"post_hint"`
	Preview    *struct {
		Images []struct {
			Source      redditImage   `json:"source"`
			Resolutions []redditImage `json:"resolutions"`
		} `json:"images"`
	} `json:"preview"`
	MediaMetadata map[string]struct {
		S struct {
			U string `json:"u"`
		} `json:"s"`
	} `json:"media_metadata"`
}

type redditImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var imageExtensionRe = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp)$`)

func (f *Fetcher) fetchReddit(ctx context.Context, sourceConfig *Config) ([]Post, error) {
	url := fmt.Sprintf("%s/r/%s/%s.json?limit=%d&t=%s",
		f.redditBaseURL, sourceConfig.Reddit.Subreddit, sourceConfig.Reddit.Sort,
		sourceConfig.Settings.Limit, sourceConfig.Reddit.TimeRange)

	data, err := f.get(ctx, url, sourceConfig.Settings.Timeout, f.userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subreddit listing: %w", err)
	}

	var listing redditListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse subreddit listing: %w", err)
	}

	posts := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, normalizeRedditPost(child.Data))
	}

	return posts, nil
}

func normalizeRedditPost(p redditPost) Post {
	return Post{
		ID:         p.ID,
		Title:      p.Title,
		Body:       p.Selftext,
		URL:        "https://reddit.com" + p.Permalink,
		ImageURL:   pickRedditImage(p),
		Author:     p.Author,
		SourceName: p.Subreddit,
		NSFW:       p.Over18,
		CreatedAt:  time.Unix(int64(p.CreatedUTC), 0).UTC(),
	}
}

// pickRedditImage derives a best-effort image URL, trying in order: the largest
// preview resolution, the largest media-metadata entry, a direct file-extension
// match on the content URL, and finally the thumbnail when it is itself a URL.
func pickRedditImage(p redditPost) string {
	if p.Preview != nil && len(p.Preview.Images) > 0 {
		img := p.Preview.Images[0]
		best := img.Source
		for _, res := range img.Resolutions {
			if res.Width > best.Width {
				best = res
			}
		}
		if best.URL != "" {
			return strings.ReplaceAll(best.URL, "&amp;", "&")
		}
	}

	// Gallery entries arrive as a map; walk keys in sorted order so repeated
	// fetches of the same post pick the same image
	mediaKeys := make([]string, 0, len(p.MediaMetadata))
	for key := range p.MediaMetadata {
		mediaKeys = append(mediaKeys, key)
	}
	sort.Strings(mediaKeys)
	for _, key := range mediaKeys {
		if u := p.MediaMetadata[key].S.U; u != "" {
			return strings.ReplaceAll(u, "&amp;", "&")
		}
	}

	if imageExtensionRe.MatchString(p.URL) {
		return p.URL
	}

	if strings.HasPrefix(p.Thumbnail, "http") {
		return p.Thumbnail
	}

	return ""
}
