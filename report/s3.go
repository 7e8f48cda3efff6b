package report

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap"
)

// S3Config locates the bucket reports are published to
type S3Config struct {
	// URL is s3://bucket/prefix, a virtual-hosted URL
	// (https://bucket.s3.region.amazonaws.com/prefix) or a path-style URL
	URL       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Publisher uploads report files under <prefix>/<run id>/
type S3Publisher struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger *zap.SugaredLogger
}

// NewS3Publisher creates a publisher with an AWS session built from cfg.
// Static credentials are used when both keys are set; otherwise the default
// credential chain applies.
func NewS3Publisher(cfg S3Config, logger *zap.SugaredLogger) (*S3Publisher, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3PublisherWithClient(s3.New(sess), cfg.URL, logger)
}

// NewS3PublisherWithClient creates a publisher around an existing client
func NewS3PublisherWithClient(client s3iface.S3API, rawURL string, logger *zap.SugaredLogger) (*S3Publisher, error) {
	bucket, prefix, err := ParseS3URL(rawURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &S3Publisher{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// ParseS3URL extracts the bucket and key prefix from an S3 location
func ParseS3URL(rawURL string) (bucket, prefix string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URL: %w", err)
	}

	switch {
	case u.Scheme == "s3":
		bucket = u.Host
		prefix = strings.Trim(u.Path, "/")
	case strings.Contains(u.Host, ".s3.") || strings.Contains(u.Host, ".s3-"):
		// virtual-hosted style: bucket.s3.region.amazonaws.com
		bucket = strings.Split(u.Host, ".")[0]
		prefix = strings.Trim(u.Path, "/")
	default:
		// path style: host/bucket/prefix
		parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
		bucket = parts[0]
		if len(parts) > 1 {
			prefix = parts[1]
		}
	}

	if bucket == "" {
		return "", "", fmt.Errorf("could not parse bucket name from URL: %s", rawURL)
	}
	return bucket, prefix, nil
}

// Key returns the object key a file is published under for a run
func (p *S3Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads files and returns their s3:// locations
func (p *S3Publisher) Publish(ctx context.Context, runID string, files []string) ([]string, error) {
	locations := make([]string, 0, len(files))
	for _, file := range files {
		key := p.Key(runID, file)
		if err := p.upload(ctx, file, key); err != nil {
			return locations, err
		}
		location := fmt.Sprintf("s3://%s/%s", p.bucket, key)
		p.logger.Infof("Published %s to %s", file, location)
		locations = append(locations, location)
	}
	return locations, nil
}

func (p *S3Publisher) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open report %s: %w", file, err)
	}
	defer f.Close()

	_, err = p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", file, err)
	}
	return nil
}

func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	}
	return "application/octet-stream"
}
