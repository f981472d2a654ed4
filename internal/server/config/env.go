package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var dotenvFile = ".env"

// parseEnv overlays values from the process environment. A .env file in the
// working directory is loaded first; it never overrides variables that are
// already set.
//
//	HTTP_ADDR, DATABASE_DSN, SECRET_KEY, ACCESS_TOKEN_TTL,
//	MAX_CONCURRENCY, MAX_DEPTH,
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT,
//	REDIS_ADDR, REDIS_PASSWORD, RATE_LIMIT_CAPACITY,
//	RATE_LIMIT_REFILL_TOKENS, RATE_LIMIT_REFILL_INTERVAL,
//	AMQP_URL, AMQP_QUEUE, LOG_LEVEL
//
// Malformed numbers or durations panic, like the other loaders.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)

	if v, ok := os.LookupEnv("MAX_CONCURRENCY"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(err)
		}
		config.MaxConcurrency = n
	}
	envInt("MAX_DEPTH", &config.MaxDepth)

	envString("S3_ACCESS_KEY", &config.S3AccessKey)
	envString("S3_SECRET_KEY", &config.S3SecretKey)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_ENDPOINT", &config.S3BaseEndpoint)

	envString("REDIS_ADDR", &config.RedisAddr)
	envString("REDIS_PASSWORD", &config.RedisPassword)
	envInt("RATE_LIMIT_CAPACITY", &config.RateLimitCapacity)
	envInt("RATE_LIMIT_REFILL_TOKENS", &config.RateLimitRefillTokens)
	envDuration("RATE_LIMIT_REFILL_INTERVAL", &config.RateLimitRefillInterval)

	envString("AMQP_URL", &config.AMQPURL)
	envString("AMQP_QUEUE", &config.AMQPQueue)
	envString("LOG_LEVEL", &config.LogLevel)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
