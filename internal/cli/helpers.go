package cli

import (
	"fmt"
	"time"

	"github.com/emberwatch/emberwatch/internal/storage/es"
	"github.com/emberwatch/emberwatch/internal/universe"
)

func openStore() (*es.Store, error) {
	store, err := es.NewStore(es.ClientConfig{
		Addresses:   appCfg.Elasticsearch.Addresses,
		Username:    appCfg.Elasticsearch.Username,
		Password:    appCfg.Elasticsearch.Password,
		IndexPrefix: appCfg.Elasticsearch.IndexPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

// lookupUniverse resolves a name against the declared registry, so a typo
// fails fast instead of quietly creating a new index namespace.
func lookupUniverse(name string) (*universe.Universe, error) {
	reg, err := universe.Load(appCfg.App.UniversesFile)
	if err != nil {
		return nil, err
	}
	return reg.Get(name)
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return d, nil
}
