package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by the configuration
	EnvPrefix = "SENTINEL"
	// DefaultConfigName is the config file searched for when none is given
	DefaultConfigName = "sentinel"
	// DefaultRegexTimeout bounds one rule pattern match
	DefaultRegexTimeout = 100 * time.Millisecond
)

// Config holds the settings of one triage run
type Config struct {
	Input struct {
		Files         []string `mapstructure:"files"`
		Directory     string   `mapstructure:"directory"`
		Type          string   `mapstructure:"type" validate:"oneof=auto sysmon windows web syslog"`
		Extensions    []string `mapstructure:"extensions" validate:"min=1,dive,required"`
		FieldMappings string   `mapstructure:"field_mappings"`
	} `mapstructure:"input"`

	Output struct {
		Format      string `mapstructure:"format" validate:"oneof=json csv both"`
		Path        string `mapstructure:"path" validate:"required"`
		NoColor     bool   `mapstructure:"no_color"`
		MetricsFile string `mapstructure:"metrics_file"`
	} `mapstructure:"output"`

	Engine struct {
		Workers      int           `mapstructure:"workers" validate:"min=1,max=64"`
		RegexTimeout time.Duration `mapstructure:"regex_timeout" validate:"gt=0"`
	} `mapstructure:"engine"`

	Logging struct {
		Verbose bool `mapstructure:"verbose"`
	} `mapstructure:"logging"`

	Publish struct {
		S3 S3Config `mapstructure:"s3"`
	} `mapstructure:"publish"`
}

// S3Config locates the bucket reports are published to; publishing is off
// while URL is empty
type S3Config struct {
	URL       string `mapstructure:"url" validate:"omitempty,url"`
	Region    string `mapstructure:"region" validate:"required_with=URL"`
	Endpoint  string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
}

// Enabled reports whether reports should be published
func (s S3Config) Enabled() bool {
	return s.URL != ""
}

// SetDefaults registers the default of every key. Keys without a default are
// invisible to AutomaticEnv, so every key is listed.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("input.files", []string{})
	v.SetDefault("input.directory", "")
	v.SetDefault("input.type", "auto")
	v.SetDefault("input.extensions", []string{"*.log", "*.txt", "*.json", "*.csv", "*.xml"})
	v.SetDefault("input.field_mappings", "")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.path", "./reports")
	v.SetDefault("output.no_color", false)
	v.SetDefault("output.metrics_file", "")

	v.SetDefault("engine.workers", 1)
	v.SetDefault("engine.regex_timeout", DefaultRegexTimeout)

	v.SetDefault("logging.verbose", false)

	v.SetDefault("publish.s3.url", "")
	v.SetDefault("publish.s3.region", "us-east-1")
	v.SetDefault("publish.s3.endpoint", "")
	v.SetDefault("publish.s3.access_key", "")
	v.SetDefault("publish.s3.secret_key", "")
}

// loadFromEnv sets up environment variable loading
func loadFromEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// shorter names for credentials, falling back to the standard AWS variables
	_ = v.BindEnv("publish.s3.access_key", "SENTINEL_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("publish.s3.secret_key", "SENTINEL_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("publish.s3.region", "SENTINEL_S3_REGION", "AWS_REGION")
}

// Load resolves the configuration from defaults, the config file, the
// environment and any flags already bound to v, in increasing precedence.
// With configFile empty, sentinel.yaml is looked up in . and ./config and may
// be absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)
	loadFromEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				problems = append(problems, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(problems, "; "))
		}
		return err
	}
	return nil
}

// GetRegexTimeout returns the configured regex timeout, defaulting when unset
func (c *Config) GetRegexTimeout() time.Duration {
	if c.Engine.RegexTimeout <= 0 {
		return DefaultRegexTimeout
	}
	return c.Engine.RegexTimeout
}
