package source

import (
	"context"
	"time"
)

// Source types

const (
	TypeReddit  = "reddit"
	TypeFeed    = "feed"
	TypeYouTube = "youtube"
)

// Post is a normalized content item produced by a fetch. ID is stable across
// repeated fetches of the same content (reddit id, feed item link, video id).
type Post struct {
	ID         string
	Title      string
	Body       string
	URL        string
	ImageURL   string
	Author     string
	SourceName string
	NSFW       bool
	CreatedAt  time.Time
}

// FetcherInterface abstracts one external feed into a sequence of Posts.
// A fetch failure returns (nil, err); callers treat it as an empty result.
type FetcherInterface interface {
	Fetch(ctx context.Context, sourceConfig *Config) ([]Post, error)
}

// Configuration types

type Config struct {
	Key          string         // Derived from filename (without .yml extension)
	Type         string         `yaml:"type"`
	Notification string         `yaml:"notification"`
	Enabled      bool           `yaml:"enabled"`
	Reddit       ConfigReddit   `yaml:"reddit"`
	Feed         ConfigFeed     `yaml:"feed"`
	YouTube      ConfigYouTube  `yaml:"youtube"`
	Settings     ConfigSettings `yaml:"settings"`
	Filter       ConfigFilter   `yaml:"filter"`
	Selection    string         `yaml:"selection"` // first | keyword_first
}

type ConfigReddit struct {
	Subreddit string `yaml:"subreddit"`
	Sort      string `yaml:"sort"`       // new | hot | top
	TimeRange string `yaml:"time_range"` // hour | day | week | month | year | all
}

type ConfigFeed struct {
	URL string `yaml:"url"`
}

type ConfigYouTube struct {
	Query string `yaml:"query"`
}

type ConfigSettings struct {
	Limit    int `yaml:"limit"`
	Timeout  int `yaml:"timeout"` // seconds
	MaxTitle int `yaml:"max_title"`
}

type ConfigFilter struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
