package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/branchkeeper/internal/flagx"
	"github.com/dmitrijs2005/branchkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// either "30s"-style strings or integer nanoseconds via timex.Duration.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	MaxConcurrency              int64          `json:"max_concurrency"`
	MaxDepth                    int            `json:"max_depth"`
	S3AccessKey                 string         `json:"s3_access_key"`
	S3SecretKey                 string         `json:"s3_secret_key"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	RedisAddr                   string         `json:"redis_addr"`
	RedisPassword               string         `json:"redis_password"`
	RateLimitCapacity           int            `json:"rate_limit_capacity"`
	RateLimitRefillTokens       int            `json:"rate_limit_refill_tokens"`
	RateLimitRefillInterval     timex.Duration `json:"rate_limit_refill_interval"`
	AMQPURL                     string         `json:"amqp_url"`
	AMQPQueue                   string         `json:"amqp_queue"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config, if any, and overlays its
// non-empty values. Unreadable files and invalid JSON panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.MaxConcurrency != 0 {
		config.MaxConcurrency = c.MaxConcurrency
	}
	if c.MaxDepth != 0 {
		config.MaxDepth = c.MaxDepth
	}
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RateLimitCapacity != 0 {
		config.RateLimitCapacity = c.RateLimitCapacity
	}
	if c.RateLimitRefillTokens != 0 {
		config.RateLimitRefillTokens = c.RateLimitRefillTokens
	}
	if c.RateLimitRefillInterval.Duration != 0 {
		config.RateLimitRefillInterval = c.RateLimitRefillInterval.Duration
	}
	setString(&config.AMQPURL, c.AMQPURL)
	setString(&config.AMQPQueue, c.AMQPQueue)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
