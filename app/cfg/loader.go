package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Discord configuration
	DiscordToken string `long:"discord-token" env:"DISCORD_TOKEN" description:"Discord bot authentication token (required)" required:"true"`

	// Data locations
	SourcesDir string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	QuotesFile string `long:"quotes-file" env:"QUOTES_FILE" default:"./quotes.yml" description:"Path to the static quotes file"`
	StateDB    string `long:"state-db" env:"STATE_DB" description:"Path to sqlite file for persistent seen-state (empty = in-memory)"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port for health/stats endpoints"`
	CheckInterval     int    `long:"check-interval" env:"CHECK_INTERVAL" default:"300" description:"Notification check interval in seconds"`
	NotifyOnStartup   bool   `long:"notify-on-startup" env:"NOTIFY_ON_STARTUP" description:"Deliver notifications on the very first check instead of seeding silently"`
	OnDemandLinkCheck bool   `long:"on-demand-link-check" env:"ON_DEMAND_LINK_CHECK" description:"Apply liveness checks to primary links of on-demand command results"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ClubAssistant/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/Mexico_City)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DiscordToken:      raw.DiscordToken,
		SourcesDir:        raw.SourcesDir,
		QuotesFile:        raw.QuotesFile,
		StateDB:           raw.StateDB,
		Port:              raw.Port,
		CheckInterval:     raw.CheckInterval,
		NotifyOnStartup:   raw.NotifyOnStartup,
		OnDemandLinkCheck: raw.OnDemandLinkCheck,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
