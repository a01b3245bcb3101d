package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/dokibot/club-assistant/app/dedup"
	"github.com/dokibot/club-assistant/app/liveness"
	"github.com/dokibot/club-assistant/app/source"
)

// Pipeline orchestrates one polling cycle across all configured sources:
// fetch, select a candidate, dedup, liveness-gate, deliver.
type Pipeline struct {
	configCache *source.ConfigCache
	fetcher     source.FetcherInterface
	filterer    *source.Filterer
	store       dedup.Store
	checker     liveness.CheckerInterface
	delivery    Delivery
	serverCfg   *ServerConfig

	// Startup policy: when false, the first cycle only seeds dedup state so
	// the channel is not blasted with content that predates the process.
	notifyOnStartup bool
	started         atomic.Bool

	inFlight atomic.Bool

	mu          sync.Mutex
	lastCycleAt time.Time
}

func NewPipeline(configCache *source.ConfigCache, fetcher source.FetcherInterface,
	store dedup.Store, checker liveness.CheckerInterface, delivery Delivery,
	serverCfg *ServerConfig, notifyOnStartup bool) *Pipeline {
	return &Pipeline{
		configCache:     configCache,
		fetcher:         fetcher,
		filterer:        source.NewFilterer(),
		store:           store,
		checker:         checker,
		delivery:        delivery,
		serverCfg:       serverCfg,
		notifyOnStartup: notifyOnStartup,
	}
}

// RunCycle processes every enabled source in deterministic order. A failure in
// one source never aborts the rest; the whole cycle is a no-op while the
// notification channel is unconfigured.
func (p *Pipeline) RunCycle(ctx context.Context) {
	if !p.serverCfg.Configured() {
		slog.Debug("Notification channel not configured, skipping cycle")
		return
	}

	if !p.inFlight.CompareAndSwap(false, true) {
		slog.Warn("Previous cycle still running, skipping")
		return
	}
	defer p.inFlight.Store(false)

	deliver := p.started.Load() || p.notifyOnStartup

	started := time.Now()
	delivered := 0
	for _, key := range p.configCache.GetEnabledKeys() {
		if ctx.Err() != nil {
			return
		}
		if p.checkSource(ctx, key, deliver) {
			delivered++
		}
	}

	p.started.Store(true)
	p.mu.Lock()
	p.lastCycleAt = time.Now().UTC()
	p.mu.Unlock()

	slog.Info("Cycle completed", "duration", time.Since(started), "sources", len(p.configCache.GetEnabledKeys()), "delivered", delivered, "seeding", !deliver)
}

// LastCycleAt reports when the last cycle finished, zero before the first one.
func (p *Pipeline) LastCycleAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastCycleAt
}

func (p *Pipeline) checkSource(ctx context.Context, key string, deliver bool) bool {
	sourceConfig, err := p.configCache.GetConfig(key)
	if err != nil {
		slog.Warn("Source config missing", "source", key, "error", err)
		return false
	}

	posts, err := p.fetcher.Fetch(ctx, sourceConfig)
	if err != nil {
		// Fail-soft: a broken source yields an empty result, never a fault
		slog.Warn("Source fetch failed", "source", key, "error", err)
		return false
	}

	candidate, ok := p.filterer.Select(posts, sourceConfig)
	if !ok {
		slog.Debug("No candidate for source", "source", key)
		return false
	}

	wasNew, err := p.store.MarkSeenIfNew(key, candidate.ID)
	if err != nil {
		slog.Error("Seen-state check failed", "source", key, "id", candidate.ID, "error", err)
		return false
	}
	if !wasNew {
		slog.Debug("Candidate already seen", "source", key, "id", candidate.ID)
		return false
	}

	if !deliver {
		slog.Debug("Seeding seen-state, delivery suppressed", "source", key, "id", candidate.ID)
		return false
	}

	notification := Notification{
		Type:       Type(sourceConfig.Notification),
		Title:      source.TruncateTitle(candidate.Title, sourceConfig.Settings.MaxTitle),
		Body:       source.TruncateTitle(candidate.Body, 200),
		URL:        candidate.URL,
		ImageURL:   candidate.ImageURL,
		Author:     candidate.Author,
		SourceName: candidate.SourceName,
		PostedAt:   candidate.CreatedAt,
	}

	// A dead primary link drops the whole notification; a dead image only
	// strips the image. The id stays marked seen either way.
	if !p.checker.IsAlive(ctx, notification.URL) {
		slog.Warn("Primary link unreachable, dropping notification", "source", key, "url", notification.URL)
		return false
	}
	if notification.ImageURL != "" && !p.checker.IsAlive(ctx, notification.ImageURL) {
		slog.Debug("Image unreachable, stripping", "source", key, "image", notification.ImageURL)
		notification.ImageURL = ""
	}

	if err := p.delivery.Send(ctx, notification); err != nil {
		slog.Error("Delivery failed, notification lost", "source", key, "id", candidate.ID, "error", err)
		return false
	}

	slog.Info("Notification delivered", "source", key, "id", candidate.ID, "type", string(notification.Type))
	return true
}
