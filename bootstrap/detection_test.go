package bootstrap

import (
	"testing"

	"github.com/JGorski-cyber/event-sentinel/detect"
	"github.com/JGorski-cyber/event-sentinel/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitDetector(t *testing.T) {
	cfg := testConfig(t)
	d, err := InitDetector(cfg, metrics.New(), zap.NewNop().Sugar())
	require.NoError(t, err)

	var tags []string
	for _, r := range d.Rules() {
		tags = append(tags, r.Tag())
	}
	assert.Equal(t, []string{
		detect.TagFailedLogin,
		detect.TagSuspiciousProcess,
		detect.TagBase64Command,
		detect.TagRareExternalIP,
		detect.TagWebAttack,
		detect.TagSuspiciousBinary,
	}, tags)
}

func TestInitPublisher_Disabled(t *testing.T) {
	p, err := InitPublisher(testConfig(t), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestInitPublisher_Enabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.S3.URL = "s3://triage-reports/nightly"
	cfg.Publish.S3.Region = "us-east-1"
	cfg.Publish.S3.AccessKey = "AKIAEXAMPLE"
	cfg.Publish.S3.SecretKey = "secret"

	p, err := InitPublisher(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "nightly/run-1/report.json", p.Key("run-1", "/tmp/out/report.json"))
}

func TestInitPublisher_BadURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Publish.S3.URL = "s3:///reports"

	_, err := InitPublisher(cfg, zap.NewNop().Sugar())
	assert.Error(t, err)
}
