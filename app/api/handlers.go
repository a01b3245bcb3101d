package api

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/dokibot/club-assistant/app/dedup"
	"github.com/dokibot/club-assistant/app/notify"
	"github.com/dokibot/club-assistant/app/source"
	"github.com/gin-gonic/gin"
)

func NewHandler(configCache *source.ConfigCache, store dedup.Store,
	serverCfg *notify.ServerConfig, pipeline PipelineStatusInterface,
	version string) *Handler {
	return &Handler{
		configCache: configCache,
		store:       store,
		serverCfg:   serverCfg,
		pipeline:    pipeline,
		version:     version,
		startedAt:   time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"status":                "ok",
		"version":               h.version,
		"uptime":                time.Since(h.startedAt).Round(time.Second).String(),
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.GetConfigCount(),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"sources": map[string]interface{}{
			"loaded":  h.configCache.GetConfigCount(),
			"enabled": h.configCache.GetEnabledCount(),
		},
		"notifications_configured": h.serverCfg.Configured(),
	}

	if seen, err := h.store.Counts(); err == nil {
		stats["seen_items"] = seen
	} else {
		slog.Error("Database error", "operation", "seen_counts", "error", err)
	}

	if lastCycle := h.pipeline.LastCycleAt(); !lastCycle.IsZero() {
		stats["last_cycle_at"] = lastCycle.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, stats)
}
