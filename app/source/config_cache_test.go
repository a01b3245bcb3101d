package source

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourceFile(t *testing.T, dir, key, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, key+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
}

func TestConfigCacheRun(t *testing.T) {
	dir := t.TempDir()

	writeSourceFile(t, dir, "ddlc_news", `
type: reddit
notification: news
enabled: true
reddit:
  subreddit: DDLC
selection: keyword_first
filter:
  includes: [official, update, announcement]
`)
	writeSourceFile(t, dir, "pclub_twitter", `
type: feed
notification: tweet
enabled: false
feed:
  url: https://nitter.net/ProjectClub_/rss
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cache.GetConfigCount())
	}
	if cache.GetEnabledCount() != 1 {
		t.Errorf("Expected 1 enabled config, got %d", cache.GetEnabledCount())
	}

	config, err := cache.GetConfig("ddlc_news")
	if err != nil {
		t.Fatalf("Expected config, got error: %v", err)
	}
	if config.Key != "ddlc_news" {
		t.Errorf("Expected key 'ddlc_news', got '%s'", config.Key)
	}
	if config.Reddit.Sort != "new" {
		t.Errorf("Expected default sort 'new', got '%s'", config.Reddit.Sort)
	}
	if config.Reddit.TimeRange != "week" {
		t.Errorf("Expected default time range 'week', got '%s'", config.Reddit.TimeRange)
	}
	if config.Settings.Limit != 25 {
		t.Errorf("Expected default limit 25, got %d", config.Settings.Limit)
	}
	if config.Settings.Timeout != 10 {
		t.Errorf("Expected default timeout 10, got %d", config.Settings.Timeout)
	}

	keys := cache.GetEnabledKeys()
	if len(keys) != 1 || keys[0] != "ddlc_news" {
		t.Errorf("Unexpected enabled keys: %v", keys)
	}
}

func TestConfigCacheEnabledKeysSorted(t *testing.T) {
	dir := t.TempDir()

	for _, key := range []string{"zz_source", "aa_source", "mm_source"} {
		writeSourceFile(t, dir, key, `
type: feed
notification: news
enabled: true
feed:
  url: https://example.com/rss
`)
	}

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	keys := cache.GetEnabledKeys()
	expected := []string{"aa_source", "mm_source", "zz_source"}
	for i, key := range expected {
		if keys[i] != key {
			t.Errorf("Expected keys in sorted order %v, got %v", expected, keys)
			break
		}
	}
}

func TestConfigCacheValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing subreddit",
			content: `
type: reddit
enabled: true
`,
		},
		{
			name: "missing feed url",
			content: `
type: feed
enabled: true
`,
		},
		{
			name: "unknown type",
			content: `
type: telegram
enabled: true
`,
		},
		{
			name: "invalid selection",
			content: `
type: feed
enabled: true
feed:
  url: https://example.com/rss
selection: last
`,
		},
		{
			name: "keyword_first without includes",
			content: `
type: feed
enabled: true
feed:
  url: https://example.com/rss
selection: keyword_first
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSourceFile(t, dir, "bad_source", tt.content)

			cache := NewConfigCache(dir)
			if err := cache.Run(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestConfigCacheMissingDir(t *testing.T) {
	cache := NewConfigCache("/nonexistent/dir")
	if err := cache.Run(); err != nil {
		t.Errorf("Expected no error for missing directory, got: %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected 0 configs, got %d", cache.GetConfigCount())
	}
}
