package source

import (
	"context"
	"fmt"

	"jobsync/internal/config"
	"jobsync/internal/feedapi"
	"jobsync/internal/jobsync"
)

// NewSourceFromConfig creates a FeedSource based on the feed config type.
// Documents land in dataDir whatever the transport.
func NewSourceFromConfig(ctx context.Context, cfg config.FeedConfig, dataDir string, logger jobsync.Logger) (jobsync.FeedSource, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data_dir required for feed source")
	}

	switch cfg.Type {
	case "http":
		return NewHTTPSource(feedapi.NewClient(cfg.BaseURL, cfg.APIKey, nil, logger), dataDir), nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 feed source requires s3_bucket to be set")
		}
		d, err := NewS3Downloader(ctx, S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return NewS3Source(d, cfg.S3Bucket, cfg.S3Prefix, dataDir), nil
	case "local":
		return NewLocalSource(dataDir), nil
	default:
		return nil, fmt.Errorf("unknown feed type: %s", cfg.Type)
	}
}
