package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// YouTube search results are scraped from the raw result markup. The page
// embeds its data as JSON inside a script tag, so extraction is best-effort
// pattern matching anchored on the first videoId found.

var (
	videoRendererRe = regexp.MustCompile(`"videoRenderer":\s*\{"videoId":"([A-Za-z0-9_-]{11})"`)
	watchLinkRe     = regexp.MustCompile(`watch\?v=([A-Za-z0-9_-]{11})`)
)

func (f *Fetcher) fetchYouTube(ctx context.Context, sourceConfig *Config) ([]Post, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s&sp=EgIYAw%%253D%%253D",
		f.youtubeBaseURL, url.QueryEscape(sourceConfig.YouTube.Query))

	data, err := f.get(ctx, searchURL, sourceConfig.Settings.Timeout, "Mozilla/5.0")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}

	post, ok := extractVideo(string(data))
	if !ok {
		return nil, nil
	}

	return []Post{post}, nil
}

func extractVideo(html string) (Post, bool) {
	m := videoRendererRe.FindStringSubmatch(html)
	if m == nil {
		// Structured extraction failed, fall back to any watch link
		m2 := watchLinkRe.FindStringSubmatch(html)
		if m2 == nil {
			return Post{}, false
		}
		return minimalVideoPost(m2[1]), true
	}

	videoID := m[1]
	post := minimalVideoPost(videoID)

	if title, ok := extractRunText(html, videoID, "title"); ok {
		post.Title = title
	}
	if channel, ok := extractRunText(html, videoID, "ownerText"); ok {
		post.Author = channel
		post.SourceName = channel
	}

	return post, true
}

func minimalVideoPost(videoID string) Post {
	return Post{
		ID:         videoID,
		Title:      "Video relacionado",
		URL:        "https://www.youtube.com/watch?v=" + videoID,
		ImageURL:   fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoID),
		Author:     "Canal",
		SourceName: "YouTube",
		CreatedAt:  time.Now().UTC(),
	}
}

// extractRunText pulls the first "runs" text of the named field from the
// renderer block anchored at videoID.
func extractRunText(html, videoID, field string) (string, bool) {
	re, err := regexp.Compile(`(?s)"videoId":"` + regexp.QuoteMeta(videoID) +
		`".*?"` + field + `":\s*\{[^}]*?"runs":\s*\[\s*\{\s*"text":"((?:[^"\\]|\\.)*)"`)
	if err != nil {
		return "", false
	}

	m := re.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}

	return decodeJSONString(m[1]), true
}

func decodeJSONString(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &s); err != nil {
		return raw
	}
	return s
}
