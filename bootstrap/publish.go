package bootstrap

import (
	"fmt"

	"github.com/JGorski-cyber/event-sentinel/config"
	"github.com/JGorski-cyber/event-sentinel/report"

	"go.uber.org/zap"
)

// InitPublisher creates the S3 report publisher, or returns nil when
// publishing is not configured
func InitPublisher(cfg *config.Config, sugar *zap.SugaredLogger) (*report.S3Publisher, error) {
	s3cfg := cfg.Publish.S3
	if !s3cfg.Enabled() {
		return nil, nil
	}

	publisher, err := report.NewS3Publisher(report.S3Config{
		URL:       s3cfg.URL,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		AccessKey: s3cfg.AccessKey,
		SecretKey: s3cfg.SecretKey,
	}, sugar)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 publisher: %w", err)
	}

	sugar.Infow("Reports will be published to S3", "url", s3cfg.URL, "region", s3cfg.Region)
	return publisher, nil
}
