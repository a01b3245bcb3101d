package notify

import (
	"context"
	"sync"
	"time"
)

// Type tags a notification for display-prefix selection. Purely cosmetic.
type Type string

const (
	TypeVideo Type = "video"
	TypeTweet Type = "tweet"
	TypeNews  Type = "news"
	TypeMerch Type = "merch"
)

// Prefix returns the display prefix shown ahead of the embed.
func (t Type) Prefix() string {
	switch t {
	case TypeVideo:
		return "🎥 Nuevo video"
	case TypeTweet:
		return "🐦 Nuevo tweet"
	case TypeNews:
		return "📰 Noticia"
	case TypeMerch:
		return "🛍️ Merch"
	default:
		return "🔔 Actualización"
	}
}

// Notification is a formatted payload ready for delivery.
type Notification struct {
	Type       Type
	Title      string
	Body       string
	URL        string
	ImageURL   string
	Author     string
	SourceName string
	PostedAt   time.Time
}

// Delivery is the sink that receives formatted notifications. Delivery is
// best-effort, at-most-once: errors are logged by the caller and the
// notification is lost.
type Delivery interface {
	Send(ctx context.Context, n Notification) error
}

// ServerConfig is the mutable per-process notification target, set by the
// admin config command and read on every cycle. Guarded because discord
// handlers and the scheduler run on separate goroutines.
type ServerConfig struct {
	mu        sync.RWMutex
	channelID string
	roleID    string
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{}
}

func (c *ServerConfig) Set(channelID, roleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channelID = channelID
	c.roleID = roleID
}

func (c *ServerConfig) ChannelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID
}

func (c *ServerConfig) RoleID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roleID
}

func (c *ServerConfig) Configured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID != ""
}
