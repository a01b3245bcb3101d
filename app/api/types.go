package api

import (
	"time"

	"github.com/dokibot/club-assistant/app/dedup"
	"github.com/dokibot/club-assistant/app/notify"
	"github.com/dokibot/club-assistant/app/source"
)

// PipelineStatusInterface exposes the read-only bits of the pipeline the
// status endpoints report on.
type PipelineStatusInterface interface {
	LastCycleAt() time.Time
}

var _ PipelineStatusInterface = (*notify.Pipeline)(nil)

type Handler struct {
	configCache *source.ConfigCache
	store       dedup.Store
	serverCfg   *notify.ServerConfig
	pipeline    PipelineStatusInterface
	version     string
	startedAt   time.Time
}
