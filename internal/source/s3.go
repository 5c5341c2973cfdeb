package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"jobsync/internal/feedapi"
	"jobsync/internal/jobsync"
)

// Downloader is the subset of manager.Downloader the S3 source uses.
type Downloader interface {
	Download(ctx context.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*manager.Downloader)) (int64, error)
}

// S3Source fetches feeds that are mirrored into an S3 bucket under
// <prefix>dseo_feed_<buid>.xml.
type S3Source struct {
	downloader Downloader
	bucket     string
	prefix     string
	dir        string
}

// NewS3Source creates a source that downloads objects into dir.
func NewS3Source(downloader Downloader, bucket, prefix, dir string) *S3Source {
	return &S3Source{downloader: downloader, bucket: bucket, prefix: prefix, dir: dir}
}

// S3Options configures the S3 client.
type S3Options struct {
	Region          string
	Endpoint        string // for S3-compatible servers; enables path-style addressing
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Downloader builds a downloader. Static keys are used when both are
// set, otherwise the default credential chain.
func NewS3Downloader(ctx context.Context, o S3Options) (*manager.Downloader, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, awsconfig.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})
	return manager.NewDownloader(client), nil
}

// Key returns the object key holding the feed of buid.
func (s *S3Source) Key(buid int64) string {
	return path.Join(s.prefix, filepath.Base(s.Path(buid)))
}

func (s *S3Source) Fetch(ctx context.Context, buid int64) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating feed directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, feedapi.FilePrefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	key := s.Key(buid)
	_, err = s.downloader.Download(ctx, tmp, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("downloading s3://%s/%s: %w", s.bucket, key, err)
	}

	dest := s.Path(buid)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("moving feed into place: %w", err)
	}
	return dest, nil
}

func (s *S3Source) Path(buid int64) string {
	return feedapi.FeedPath(s.dir, buid)
}

var (
	_ jobsync.FeedSource = (*S3Source)(nil)
	_ Downloader         = (*manager.Downloader)(nil)
)
