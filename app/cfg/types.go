package cfg

type Cfg struct {
	// Discord configuration
	DiscordToken string

	// Data locations
	SourcesDir string
	QuotesFile string
	StateDB    string

	// Application configuration
	Port              string
	CheckInterval     int
	NotifyOnStartup   bool
	OnDemandLinkCheck bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
