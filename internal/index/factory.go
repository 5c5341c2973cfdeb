package index

import (
	"fmt"

	"jobsync/internal/config"
	"jobsync/internal/jobsync"
)

// NewIndexFromConfig creates a SearchIndex based on the index config type.
func NewIndexFromConfig(cfg config.IndexConfig) (jobsync.SearchIndex, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryIndex(), nil
	case "solr":
		if cfg.URL == "" {
			return nil, fmt.Errorf("url required for solr index")
		}
		return NewSolrIndex(cfg.URL, cfg.Timeout())
	default:
		return nil, fmt.Errorf("unknown index type: %s", cfg.Type)
	}
}
