package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig points CONFIG_FILE at a temporary YAML file with the given body.
// An empty body points it at a path that doesn't exist.
func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if body != "" {
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	t.Setenv(configFileENV, path)
}

func TestNew(t *testing.T) {
	t.Run("reports missing required keys by env and file name", func(tt *testing.T) {
		writeConfig(tt, "")
		tt.Setenv("DATABASE_FILE_PATH", "")

		cfg, err := New()
		assert.Nil(tt, cfg)
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), "missing required config: DATABASE_FILE_PATH (env) / database_file_path (file)")
	})

	t.Run("falls back to defaults", func(tt *testing.T) {
		writeConfig(tt, "")
		tt.Setenv("DATABASE_FILE_PATH", "/tmp/egline.db")

		cfg, err := New()
		require.NoError(tt, err)
		assert.Equal(tt, "/tmp/egline.db", cfg.DatabaseFilePath)
		assert.Equal(tt, 5*time.Second, cfg.DatabaseBusyTimeout)
		assert.Equal(tt, 5, cfg.DatabaseMaxRetries)
		assert.Equal(tt, "0.0.0.0", cfg.ServerHost)
		assert.Equal(tt, 8000, cfg.ServerPort)
		assert.Equal(tt, "./storage", cfg.StorageDir)
		assert.Equal(tt, 5, cfg.LoginRateBurst)
		assert.InDelta(tt, 1.0, cfg.LoginRateLimit, 0.0001)
		assert.Equal(tt, "0 4 * * *", cfg.RatingReconcileSchedule)
	})

	t.Run("reads the yaml file", func(tt *testing.T) {
		writeConfig(tt, `
database_file_path: /data/egline.db
database_debug: true
database_busy_timeout: 3s
storage_dir: /data/blobs
rating_reconcile_schedule: ""
`)
		os.Unsetenv("DATABASE_FILE_PATH")

		cfg, err := New()
		require.NoError(tt, err)
		assert.Equal(tt, "/data/egline.db", cfg.DatabaseFilePath)
		assert.True(tt, cfg.DatabaseDebug)
		assert.Equal(tt, 3*time.Second, cfg.DatabaseBusyTimeout)
		assert.Equal(tt, "/data/blobs", cfg.StorageDir)
		assert.Empty(tt, cfg.RatingReconcileSchedule)
	})

	t.Run("lets the environment win over the file", func(tt *testing.T) {
		writeConfig(tt, "database_file_path: /data/file.db\nserver_port: 8080\n")
		tt.Setenv("DATABASE_FILE_PATH", "/data/env.db")
		tt.Setenv("SERVER_PORT", "9090")
		tt.Setenv("LOGIN_RATE_LIMIT", "2.5")

		cfg, err := New()
		require.NoError(tt, err)
		assert.Equal(tt, "/data/env.db", cfg.DatabaseFilePath)
		assert.Equal(tt, 9090, cfg.ServerPort)
		assert.InDelta(tt, 2.5, cfg.LoginRateLimit, 0.0001)
	})

	t.Run("fails on an unreadable file", func(tt *testing.T) {
		writeConfig(tt, "database_file_path: [unterminated\n")

		_, err := New()
		require.Error(tt, err)
		assert.Contains(tt, err.Error(), "failed to load config file")
	})
}

func TestNewForTest(t *testing.T) {
	cfg := NewForTest()
	assert.Equal(t, ":memory:", cfg.DatabaseFilePath)
	assert.Equal(t, "127.0.0.1", cfg.ServerHost)
	assert.Zero(t, cfg.ServerPort)
	assert.Empty(t, cfg.RatingReconcileSchedule)
}

func TestKnownKeys(t *testing.T) {
	keys := knownKeys()
	for _, k := range []string{"database_file_path", "storage_dir", "login_rate_burst", "rating_reconcile_schedule"} {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, "path")
}
