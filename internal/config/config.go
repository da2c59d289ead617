// Package config defines the application configuration, loaded from a
// YAML file (and environment) via viper at startup.
package config

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	// UniversesFile points at the universe declaration YAML.
	UniversesFile string `mapstructure:"universes_file"`
}

// ElasticsearchConfig holds document-store connection settings.
type ElasticsearchConfig struct {
	Addresses   []string `mapstructure:"addresses"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	IndexPrefix string   `mapstructure:"index_prefix"`
}

// ConsumerConfig controls the queue-draining loop. Durations are strings,
// e.g. "1s", "5m".
type ConsumerConfig struct {
	PollInterval string `mapstructure:"poll_interval"`
	Backoff      string `mapstructure:"backoff"`
	Staleness    string `mapstructure:"staleness"`
}

// ExtractConfig controls article fetching and extraction.
type ExtractConfig struct {
	FetchTimeout string `mapstructure:"fetch_timeout"`
	// BrowserDomains list sites that serve empty shells to plain HTTP
	// clients and need a rendering fetcher instead. Setting any requires
	// browser_render credentials.
	BrowserDomains []string            `mapstructure:"browser_domains"`
	BrowserRender  BrowserRenderConfig `mapstructure:"browser_render"`
}

// BrowserRenderConfig holds Cloudflare Browser Rendering credentials for
// the browser-fetched domains.
type BrowserRenderConfig struct {
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
	Timeout   string `mapstructure:"timeout"`
}

// RetentionConfig controls the cleanup command.
type RetentionConfig struct {
	ShareDays int `mapstructure:"share_days"`
}

// Config is the top-level configuration structure.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Consumer      ConsumerConfig      `mapstructure:"consumer"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Retention     RetentionConfig     `mapstructure:"retention"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.UniversesFile == "" {
		c.App.UniversesFile = "universes.yaml"
	}
	if len(c.Elasticsearch.Addresses) == 0 {
		c.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	}
	if c.Consumer.PollInterval == "" {
		c.Consumer.PollInterval = "1s"
	}
	if c.Consumer.Backoff == "" {
		c.Consumer.Backoff = "5s"
	}
	if c.Consumer.Staleness == "" {
		c.Consumer.Staleness = "5m"
	}
	if c.Extract.FetchTimeout == "" {
		c.Extract.FetchTimeout = "10s"
	}
	if c.Extract.BrowserRender.Timeout == "" {
		c.Extract.BrowserRender.Timeout = "20s"
	}
	if c.Retention.ShareDays == 0 {
		c.Retention.ShareDays = 30
	}
}
