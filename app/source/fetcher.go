package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

var _ FetcherInterface = (*Fetcher)(nil)

// Fetcher queries external feeds and normalizes the results. It holds no
// per-source state; every Fetch call re-queries the network.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string

	// Overridable for tests
	redditBaseURL  string
	youtubeBaseURL string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:     httpClient,
		userAgent:      userAgent,
		redditBaseURL:  "https://www.reddit.com",
		youtubeBaseURL: "https://www.youtube.com",
	}
}

func (f *Fetcher) Fetch(ctx context.Context, sourceConfig *Config) ([]Post, error) {
	switch sourceConfig.Type {
	case TypeReddit:
		return f.fetchReddit(ctx, sourceConfig)
	case TypeFeed:
		return f.fetchFeed(ctx, sourceConfig)
	case TypeYouTube:
		return f.fetchYouTube(ctx, sourceConfig)
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceConfig.Type)
	}
}

func (f *Fetcher) get(ctx context.Context, url string, timeout int, userAgent string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
