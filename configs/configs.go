package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	QueueTypeSQS   = "sqs"
	QueueTypeRedis = "redis"

	DedupPolicyTimestamp = "timestamp"
	DedupPolicyContent   = "content"

	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

// Config defines all environment variables and derived config for the producer and consumer.
type Config struct {
	// Transformed time.Duration fields (not loaded from env directly)
	ProducerIntervalDuration    time.Duration `env:"-"` // Producer tick interval
	ConsumerMaxDuration         time.Duration `env:"-"` // Consumer run budget
	RetryInitialBackoffDuration time.Duration `env:"-"` // First backoff after a transient error
	RetryMaxBackoffDuration     time.Duration `env:"-"` // Backoff cap
	CacheTTLDuration            time.Duration `env:"-"` // Processed-message cache TTL

	QueueType                     string `env:"QUEUE_TYPE" envDefault:"sqs"`
	QueueURL                      string `env:"QUEUE_URL,required"`
	QueueMessageGroupID           string `env:"QUEUE_MESSAGE_GROUP_ID" envDefault:"default"`
	QueueWaitTimeSeconds          int32  `env:"QUEUE_WAIT_TIME_SECONDS" envDefault:"1"`
	QueueVisibilityTimeoutSeconds int32  `env:"QUEUE_VISIBILITY_TIMEOUT_SECONDS" envDefault:"300"`
	QueueAwsSqsRegion             string `env:"QUEUE_AWS_SQS_REGION"`
	QueueAwsSqsServiceURL         string `env:"QUEUE_AWS_SQS_SERVICE_URL"`
	QueueAwsAccessKeyID           string `env:"QUEUE_AWS_ACCESS_KEY_ID"`
	QueueAwsSecretAccessKey       string `env:"QUEUE_AWS_SECRET_ACCESS_KEY"`
	QueueRedisEndpoint            string `env:"QUEUE_REDIS_ENDPOINT"`
	QueueRedisDB                  int    `env:"QUEUE_REDIS_DB" envDefault:"0"`

	ProducerEnabled     bool   `env:"PRODUCER_ENABLED" envDefault:"true"`
	ProducerIntervalMs  int    `env:"PRODUCER_INTERVAL_MS" envDefault:"5000"`
	ProducerDeduplicate bool   `env:"PRODUCER_DEDUPLICATE" envDefault:"true"`
	ProducerDedupPolicy string `env:"PRODUCER_DEDUP_POLICY" envDefault:"timestamp"`

	ConsumerMaxDurationSeconds int `env:"CONSUMER_MAX_DURATION_SECONDS" envDefault:"30"`
	RetryInitialBackoffMs      int `env:"RETRY_INITIAL_BACKOFF_MS" envDefault:"200"`
	RetryMaxBackoffMs          int `env:"RETRY_MAX_BACKOFF_MS" envDefault:"5000"`

	CacheRedisEndpoint string `env:"CACHE_REDIS_ENDPOINT"`
	CacheRedisDB       int    `env:"CACHE_REDIS_DB" envDefault:"0"`
	CacheKeyPrefix     string `env:"CACHE_KEY_PREFIX" envDefault:"fifo-processed-"`
	CacheTTLSeconds    int    `env:"CACHE_TTL_SECONDS" envDefault:"300"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ServiceName     string  `env:"SERVICE_NAME" envDefault:"aws-sqs-fifo-worker"`
	TraceExporter   string  `env:"TRACE_EXPORTER" envDefault:"none"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1"`
}

// Parse loads configuration from environment variables, validates and normalizes it.
func Parse() (*Config, error) {
	var cfg Config

	// 1. parse env
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	// 2. validate
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// 3. derived fields
	cfg.normalize()

	return &cfg, nil
}

// validate performs all required configuration checks.
func (c *Config) validate() error {
	if c.QueueType != QueueTypeSQS && c.QueueType != QueueTypeRedis {
		return errors.New("QUEUE_TYPE must be 'sqs' or 'redis'")
	}

	if c.QueueURL == "" {
		return errors.New("QUEUE_URL must not be empty")
	}

	if c.QueueType == QueueTypeSQS {
		if c.QueueAwsSqsRegion == "" && c.QueueAwsSqsServiceURL == "" {
			return errors.New("QUEUE_AWS_SQS_REGION or QUEUE_AWS_SQS_SERVICE_URL is required for SQS queue type")
		}
		if (c.QueueAwsAccessKeyID == "") != (c.QueueAwsSecretAccessKey == "") {
			return errors.New("QUEUE_AWS_ACCESS_KEY_ID and QUEUE_AWS_SECRET_ACCESS_KEY must be set together")
		}
	}

	if c.QueueType == QueueTypeRedis && c.QueueRedisEndpoint == "" {
		return errors.New("QUEUE_REDIS_ENDPOINT is required for Redis queue type")
	}

	if c.QueueMessageGroupID == "" {
		return errors.New("QUEUE_MESSAGE_GROUP_ID must not be empty")
	}

	// SQS limits
	if c.QueueWaitTimeSeconds < 0 || c.QueueWaitTimeSeconds > 20 {
		return errors.New("QUEUE_WAIT_TIME_SECONDS must be between 0 and 20")
	}
	if c.QueueVisibilityTimeoutSeconds < 0 || c.QueueVisibilityTimeoutSeconds > 43200 {
		return errors.New("QUEUE_VISIBILITY_TIMEOUT_SECONDS must be between 0 and 43200")
	}

	if c.ProducerIntervalMs <= 0 {
		return errors.New("PRODUCER_INTERVAL_MS must be greater than 0")
	}

	if c.ProducerDedupPolicy != DedupPolicyTimestamp && c.ProducerDedupPolicy != DedupPolicyContent {
		return errors.New("PRODUCER_DEDUP_POLICY must be 'timestamp' or 'content'")
	}

	if c.ConsumerMaxDurationSeconds <= 0 {
		return errors.New("CONSUMER_MAX_DURATION_SECONDS must be greater than 0")
	}

	if c.RetryInitialBackoffMs <= 0 || c.RetryMaxBackoffMs < c.RetryInitialBackoffMs {
		return errors.New("RETRY_INITIAL_BACKOFF_MS must be > 0 and not above RETRY_MAX_BACKOFF_MS")
	}

	if c.CacheRedisEndpoint != "" && c.CacheTTLSeconds <= 0 {
		return errors.New("CACHE_TTL_SECONDS must be greater than 0")
	}

	if c.TraceExporter != TraceExporterNone && c.TraceExporter != TraceExporterStdout {
		return errors.New("TRACE_EXPORTER must be 'none' or 'stdout'")
	}
	if c.TraceSampleRate <= 0 || c.TraceSampleRate > 1 {
		return errors.New("TRACE_SAMPLE_RATE must be in (0, 1]")
	}

	return nil
}

// normalize converts int values to duration and sets derived fields.
func (c *Config) normalize() {
	c.ProducerIntervalDuration = time.Duration(c.ProducerIntervalMs) * time.Millisecond
	c.ConsumerMaxDuration = time.Duration(c.ConsumerMaxDurationSeconds) * time.Second
	c.RetryInitialBackoffDuration = time.Duration(c.RetryInitialBackoffMs) * time.Millisecond
	c.RetryMaxBackoffDuration = time.Duration(c.RetryMaxBackoffMs) * time.Millisecond
	c.CacheTTLDuration = time.Duration(c.CacheTTLSeconds) * time.Second
}
