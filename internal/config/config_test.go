package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOCK_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, LedgerDriverFile, cfg.LedgerDriver)
	require.Equal(t, "reservations.json", cfg.LedgerPath)
	require.Empty(t, cfg.RedisAddr)
	require.Equal(t, 10*time.Second, cfg.LockTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "BOLT")
	t.Setenv("BOLT_PATH", "/tmp/ledger.db")
	t.Setenv("LOCK_WAIT", "250ms")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("EVENT_QUEUE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, LedgerDriverBolt, cfg.LedgerDriver)
	require.Equal(t, "/tmp/ledger.db", cfg.BoltPath)
	require.Equal(t, 250*time.Millisecond, cfg.LockWait)
	require.Equal(t, 8, cfg.WorkerCount)
	require.Equal(t, 1000, cfg.EventQueueSize)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("LEDGER_DRIVER", "postgres")

	_, err := Load()
	require.ErrorContains(t, err, "LEDGER_DRIVER")
}

func TestValidate_DirectoryNeedsMySQL(t *testing.T) {
	cfg := Config{
		LedgerDriver:      LedgerDriverFile,
		ValidateDirectory: true,
		WorkerCount:       1,
		LockTTL:           time.Second,
		LockWait:          time.Second,
	}
	require.Error(t, cfg.Validate())

	cfg.LedgerDriver = LedgerDriverMySQL
	require.NoError(t, cfg.Validate())
}
