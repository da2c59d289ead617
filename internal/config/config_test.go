package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillDefaults(t *testing.T) {
	var cfg Config
	cfg.FillDefaults()

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "universes.yaml", cfg.App.UniversesFile)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Elasticsearch.Addresses)
	assert.Equal(t, "1s", cfg.Consumer.PollInterval)
	assert.Equal(t, "5s", cfg.Consumer.Backoff)
	assert.Equal(t, "5m", cfg.Consumer.Staleness)
	assert.Equal(t, "10s", cfg.Extract.FetchTimeout)
	assert.Equal(t, "20s", cfg.Extract.BrowserRender.Timeout)
	assert.Equal(t, 30, cfg.Retention.ShareDays)
}

func TestFillDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		App: AppConfig{LogLevel: "debug", UniversesFile: "/etc/emberwatch/universes.yaml"},
		Elasticsearch: ElasticsearchConfig{
			Addresses:   []string{"http://es1:9200", "http://es2:9200"},
			IndexPrefix: "staging",
		},
		Consumer:  ConsumerConfig{PollInterval: "250ms"},
		Retention: RetentionConfig{ShareDays: 7},
	}
	cfg.FillDefaults()

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "/etc/emberwatch/universes.yaml", cfg.App.UniversesFile)
	assert.Len(t, cfg.Elasticsearch.Addresses, 2)
	assert.Equal(t, "staging", cfg.Elasticsearch.IndexPrefix)
	assert.Equal(t, "250ms", cfg.Consumer.PollInterval)
	assert.Equal(t, 7, cfg.Retention.ShareDays)
}
