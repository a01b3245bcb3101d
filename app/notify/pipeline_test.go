package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dokibot/club-assistant/app/dedup"
	"github.com/dokibot/club-assistant/app/source"
)

// MockFetcher returns canned posts (or an error) per source key
type MockFetcher struct {
	posts      map[string][]source.Post
	errs       map[string]error
	fetchCount int
}

func (m *MockFetcher) Fetch(ctx context.Context, sourceConfig *source.Config) ([]source.Post, error) {
	m.fetchCount++
	if err, ok := m.errs[sourceConfig.Key]; ok {
		return nil, err
	}
	return m.posts[sourceConfig.Key], nil
}

// MockChecker marks specific URLs as dead
type MockChecker struct {
	dead map[string]bool
}

func (m *MockChecker) IsAlive(ctx context.Context, url string) bool {
	return !m.dead[url]
}

// MockDelivery records sent notifications
type MockDelivery struct {
	sent []Notification
	err  error
}

func (m *MockDelivery) Send(ctx context.Context, n Notification) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

func newTestCache(t *testing.T, sources map[string]string) *source.ConfigCache {
	t.Helper()
	dir := t.TempDir()
	for key, content := range sources {
		if err := os.WriteFile(filepath.Join(dir, key+".yml"), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write source file: %v", err)
		}
	}
	cache := source.NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Failed to load source configs: %v", err)
	}
	return cache
}

const feedSourceYML = `
type: feed
notification: news
enabled: true
feed:
  url: https://example.com/rss
`

func configuredServer() *ServerConfig {
	serverCfg := NewServerConfig()
	serverCfg.Set("channel-1", "")
	return serverCfg
}

func newsPost(id string) source.Post {
	return source.Post{
		ID:        id,
		Title:     "Official Update",
		URL:       "https://x/1",
		CreatedAt: time.Unix(1700000000, 0),
	}
}

func TestRunCycleNoConfigNoOp(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	fetcher := &MockFetcher{}
	delivery := &MockDelivery{}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), &MockChecker{}, delivery, NewServerConfig(), true)
	pipeline.RunCycle(context.Background())

	if fetcher.fetchCount != 0 {
		t.Errorf("Expected zero fetches without a configured channel, got %d", fetcher.fetchCount)
	}
	if len(delivery.sent) != 0 {
		t.Errorf("Expected zero deliveries, got %d", len(delivery.sent))
	}
}

func TestRunCycleDeliversOnceAcrossCycles(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	fetcher := &MockFetcher{posts: map[string][]source.Post{
		"ddlc_news": {newsPost("abc")},
	}}
	delivery := &MockDelivery{}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), &MockChecker{}, delivery, configuredServer(), true)

	pipeline.RunCycle(context.Background())
	if len(delivery.sent) != 1 {
		t.Fatalf("Expected 1 delivery on cycle 1, got %d", len(delivery.sent))
	}
	if delivery.sent[0].Title != "Official Update" {
		t.Errorf("Unexpected title: %s", delivery.sent[0].Title)
	}

	// Identical post on cycle 2 must not be redelivered
	pipeline.RunCycle(context.Background())
	if len(delivery.sent) != 1 {
		t.Errorf("Expected no redelivery on cycle 2, got %d total", len(delivery.sent))
	}
}

func TestRunCycleStartupSeeding(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	fetcher := &MockFetcher{posts: map[string][]source.Post{
		"ddlc_news": {newsPost("old")},
	}}
	delivery := &MockDelivery{}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), &MockChecker{}, delivery, configuredServer(), false)

	// First cycle seeds silently
	pipeline.RunCycle(context.Background())
	if len(delivery.sent) != 0 {
		t.Fatalf("Expected startup cycle to suppress delivery, got %d", len(delivery.sent))
	}

	// Next cycle delivers genuinely new content
	fetcher.posts["ddlc_news"] = []source.Post{newsPost("fresh")}
	pipeline.RunCycle(context.Background())
	if len(delivery.sent) != 1 {
		t.Errorf("Expected new post to be delivered after seeding, got %d", len(delivery.sent))
	}
}

func TestRunCycleIsolation(t *testing.T) {
	cache := newTestCache(t, map[string]string{
		"a_broken": feedSourceYML,
		"b_works":  feedSourceYML,
	})
	fetcher := &MockFetcher{
		posts: map[string][]source.Post{"b_works": {newsPost("ok")}},
		errs:  map[string]error{"a_broken": fmt.Errorf("connection refused")},
	}
	delivery := &MockDelivery{}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), &MockChecker{}, delivery, configuredServer(), true)
	pipeline.RunCycle(context.Background())

	if fetcher.fetchCount != 2 {
		t.Errorf("Expected both sources fetched, got %d", fetcher.fetchCount)
	}
	if len(delivery.sent) != 1 {
		t.Errorf("Expected the working source to still deliver, got %d", len(delivery.sent))
	}
}

func TestRunCycleDeadLinkDropsNotification(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	fetcher := &MockFetcher{posts: map[string][]source.Post{
		"ddlc_news": {newsPost("abc")},
	}}
	delivery := &MockDelivery{}
	checker := &MockChecker{dead: map[string]bool{"https://x/1": true}}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), checker, delivery, configuredServer(), true)
	pipeline.RunCycle(context.Background())

	if len(delivery.sent) != 0 {
		t.Errorf("Expected dead link to drop the notification, got %d deliveries", len(delivery.sent))
	}
}

func TestRunCycleDeadImageStripsImage(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	post := newsPost("abc")
	post.ImageURL = "https://img/dead.png"
	fetcher := &MockFetcher{posts: map[string][]source.Post{"ddlc_news": {post}}}
	delivery := &MockDelivery{}
	checker := &MockChecker{dead: map[string]bool{"https://img/dead.png": true}}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), checker, delivery, configuredServer(), true)
	pipeline.RunCycle(context.Background())

	if len(delivery.sent) != 1 {
		t.Fatalf("Expected exactly one delivery, got %d", len(delivery.sent))
	}
	if delivery.sent[0].ImageURL != "" {
		t.Errorf("Expected image to be stripped, got '%s'", delivery.sent[0].ImageURL)
	}
	if delivery.sent[0].URL != "https://x/1" {
		t.Errorf("Expected primary link intact, got '%s'", delivery.sent[0].URL)
	}
}

func TestRunCycleMarksSeenBeforeDelivery(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": feedSourceYML})
	fetcher := &MockFetcher{posts: map[string][]source.Post{
		"ddlc_news": {newsPost("abc")},
	}}
	delivery := &MockDelivery{err: fmt.Errorf("channel unavailable")}
	store := dedup.NewMemoryStore()

	pipeline := NewPipeline(cache, fetcher, store, &MockChecker{}, delivery, configuredServer(), true)
	pipeline.RunCycle(context.Background())

	// A failed delivery must not cause redelivery on the next cycle
	isNew, _ := store.IsNew("ddlc_news", "abc")
	if isNew {
		t.Error("Expected id to be marked seen despite delivery failure")
	}
}

func TestRunCycleTruncatesTitle(t *testing.T) {
	cache := newTestCache(t, map[string]string{"ddlc_news": `
type: feed
notification: news
enabled: true
feed:
  url: https://example.com/rss
settings:
  max_title: 10
`})
	post := newsPost("abc")
	post.Title = "A very long announcement title"
	fetcher := &MockFetcher{posts: map[string][]source.Post{"ddlc_news": {post}}}
	delivery := &MockDelivery{}

	pipeline := NewPipeline(cache, fetcher, dedup.NewMemoryStore(), &MockChecker{}, delivery, configuredServer(), true)
	pipeline.RunCycle(context.Background())

	if len(delivery.sent) != 1 {
		t.Fatalf("Expected one delivery, got %d", len(delivery.sent))
	}
	if delivery.sent[0].Title != "A very lo…" {
		t.Errorf("Expected truncated title with ellipsis, got '%s'", delivery.sent[0].Title)
	}
}

func TestTypePrefix(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{TypeVideo, "🎥 Nuevo video"},
		{TypeTweet, "🐦 Nuevo tweet"},
		{TypeNews, "📰 Noticia"},
		{TypeMerch, "🛍️ Merch"},
		{Type("unknown"), "🔔 Actualización"},
	}

	for _, tt := range tests {
		if got := tt.typ.Prefix(); got != tt.expected {
			t.Errorf("Prefix(%s): expected '%s', got '%s'", tt.typ, tt.expected, got)
		}
	}
}
