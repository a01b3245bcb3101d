package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Twitter Search / ProjectClub_</title>
    <link>https://nitter.net/ProjectClub_</link>
    <description>Twitter feed</description>
    <item>
      <title>New chapter out now!</title>
      <link>https://nitter.net/ProjectClub_/status/1</link>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>@ProjectClub_</author>
    </item>
    <item>
      <title>Older tweet</title>
      <link>https://nitter.net/ProjectClub_/status/0</link>
      <pubDate>Sun, 02 Jul 2023 10:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func feedTestConfig(url string) *Config {
	return &Config{
		Key:      "pclub_twitter",
		Type:     TypeFeed,
		Feed:     ConfigFeed{URL: url},
		Settings: ConfigSettings{Limit: 25, Timeout: 5, MaxTitle: 250},
	}
}

func TestFetchFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)

	posts, err := fetcher.Fetch(context.Background(), feedTestConfig(server.URL+"/rss"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	first := posts[0]
	if first.Title != "New chapter out now!" {
		t.Errorf("Expected first item title, got '%s'", first.Title)
	}
	if first.ID != "https://nitter.net/ProjectClub_/status/1" {
		t.Errorf("Expected link as dedup id, got '%s'", first.ID)
	}
	if first.URL != first.ID {
		t.Errorf("Expected URL to match link, got '%s'", first.URL)
	}
	if first.CreatedAt.IsZero() {
		t.Error("Expected publish date to be parsed")
	}
	if first.SourceName != "Twitter Search / ProjectClub_" {
		t.Errorf("Expected feed title as source name, got '%s'", first.SourceName)
	}
}

func TestFetchFeedMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not xml"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(server)

	_, err := fetcher.Fetch(context.Background(), feedTestConfig(server.URL+"/rss"))
	if err == nil {
		t.Error("Expected error for malformed feed")
	}
}
