package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"log/slog"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	sourcesDir string
	cache      map[string]*Config
	mu         sync.RWMutex
}

func NewConfigCache(sourcesDir string) *ConfigCache {
	return &ConfigCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		sourceKey := fileName[:len(fileName)-4] // Remove .yml extension

		sourceConfig, err := cc.LoadConfig(sourceKey)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceKey, "type", sourceConfig.Type, "enabled", sourceConfig.Enabled)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(sourceKey string) (*Config, error) {
	configFile := cc.getConfigFilePath(sourceKey)
	sourceConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Key = sourceKey

	if err := cc.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[sourceConfig.Key] = sourceConfig

	return sourceConfig, nil
}

func (cc *ConfigCache) GetConfig(sourceKey string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	sourceConfig, ok := cc.cache[sourceKey]
	if !ok {
		return nil, fmt.Errorf("source config with key '%s' not found", sourceKey)
	}
	return sourceConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

// GetEnabledKeys returns enabled source keys in sorted order. The notification
// pipeline depends on this order being deterministic across cycles.
func (cc *ConfigCache) GetEnabledKeys() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	keys := make([]string, 0, len(cc.cache))
	for k, v := range cc.cache {
		if v.Enabled {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetRedditConfigs returns enabled reddit-type configs in sorted key order.
// Used by on-demand commands that aggregate across subreddits.
func (cc *ConfigCache) GetRedditConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	keys := make([]string, 0, len(cc.cache))
	for k, v := range cc.cache {
		if v.Enabled && v.Type == TypeReddit {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	configs := make([]*Config, 0, len(keys))
	for _, k := range keys {
		configs = append(configs, cc.cache[k])
	}
	return configs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) GetEnabledCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	count := 0
	for _, v := range cc.cache {
		if v.Enabled {
			count++
		}
	}
	return count
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sourceConfig Config
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if sourceConfig.Settings.Limit == 0 {
		sourceConfig.Settings.Limit = 25
	}
	if sourceConfig.Settings.Timeout == 0 {
		sourceConfig.Settings.Timeout = 10
	}
	if sourceConfig.Settings.MaxTitle == 0 {
		sourceConfig.Settings.MaxTitle = 250
	}
	if sourceConfig.Selection == "" {
		sourceConfig.Selection = "first"
	}
	if sourceConfig.Type == TypeReddit {
		if sourceConfig.Reddit.Sort == "" {
			sourceConfig.Reddit.Sort = "new"
		}
		if sourceConfig.Reddit.TimeRange == "" {
			sourceConfig.Reddit.TimeRange = "week"
		}
	}

	return &sourceConfig, nil
}

func (cc *ConfigCache) validateConfig(sourceConfig *Config) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	switch sourceConfig.Type {
	case TypeReddit:
		if sourceConfig.Reddit.Subreddit == "" {
			return fmt.Errorf("reddit subreddit is required")
		}
	case TypeFeed:
		if sourceConfig.Feed.URL == "" {
			return fmt.Errorf("feed URL is required")
		}
	case TypeYouTube:
		if sourceConfig.YouTube.Query == "" {
			return fmt.Errorf("youtube query is required")
		}
	default:
		return fmt.Errorf("invalid source type: %s", sourceConfig.Type)
	}

	validSelections := map[string]bool{
		"first":         true,
		"keyword_first": true,
	}
	if !validSelections[sourceConfig.Selection] {
		return fmt.Errorf("invalid selection rule: %s", sourceConfig.Selection)
	}

	nonNegativeFields := map[string]int{
		"limit":     sourceConfig.Settings.Limit,
		"timeout":   sourceConfig.Settings.Timeout,
		"max title": sourceConfig.Settings.MaxTitle,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if sourceConfig.Selection == "keyword_first" && len(sourceConfig.Filter.Includes) == 0 {
		return fmt.Errorf("keyword_first selection requires at least one include keyword")
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(sourceKey string) string {
	return filepath.Join(cc.sourcesDir, sourceKey+".yml")
}
