// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerDriverMemory = "memory"
	LedgerDriverFile   = "file"
	LedgerDriverBolt   = "bolt"
	LedgerDriverMySQL  = "mysql"
)

type Config struct {
	Env      string
	HTTPAddr string
	GRPCAddr string

	LedgerDriver string
	LedgerPath   string // JSON file used by the file driver
	BoltPath     string
	MySQLDSN     string

	// RedisAddr enables the distributed ledger lock and request idempotency.
	// Empty means an in-process lock and no idempotency cache.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LockTTL        time.Duration
	LockWait       time.Duration
	IdempotencyTTL time.Duration

	// AMQPURL enables event publishing to RabbitMQ; empty logs events instead.
	AMQPURL        string
	EventQueueSize int
	WorkerCount    int

	ValidateDirectory bool
}

// Load reads .env (when present) and the environment. Values already set in
// the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               envStr("APP_ENV", "dev"),
		HTTPAddr:          envStr("HTTP_ADDR", ":8080"),
		GRPCAddr:          envStr("GRPC_ADDR", ":50051"),
		LedgerDriver:      strings.ToLower(envStr("LEDGER_DRIVER", LedgerDriverFile)),
		LedgerPath:        envStr("LEDGER_PATH", "reservations.json"),
		BoltPath:          envStr("BOLT_PATH", "reservations.db"),
		MySQLDSN:          envStr("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotel?parseTime=true"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           envInt("REDIS_DB", 0),
		LockTTL:           envDur("LOCK_TTL", 10*time.Second),
		LockWait:          envDur("LOCK_WAIT", 5*time.Second),
		IdempotencyTTL:    envDur("IDEMPOTENCY_TTL", 24*time.Hour),
		AMQPURL:           os.Getenv("AMQP_URL"),
		EventQueueSize:    envInt("EVENT_QUEUE_SIZE", 1000),
		WorkerCount:       envInt("WORKER_COUNT", 4),
		ValidateDirectory: envBool("VALIDATE_DIRECTORY", false),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.LedgerDriver {
	case LedgerDriverMemory, LedgerDriverFile, LedgerDriverBolt, LedgerDriverMySQL:
	default:
		return fmt.Errorf("unknown LEDGER_DRIVER %q", c.LedgerDriver)
	}
	if c.ValidateDirectory && c.LedgerDriver != LedgerDriverMySQL {
		return fmt.Errorf("VALIDATE_DIRECTORY requires LEDGER_DRIVER=%s", LedgerDriverMySQL)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount)
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("EVENT_QUEUE_SIZE must not be negative, got %d", c.EventQueueSize)
	}
	if c.LockTTL <= 0 || c.LockWait <= 0 {
		return fmt.Errorf("LOCK_TTL and LOCK_WAIT must be positive")
	}
	return nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
