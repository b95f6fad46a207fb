package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/logger"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, defaults, cfg)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, consts.DefaultCacheEntries, cfg.CacheEntries)
	assert.Equal(t, consts.DefaultMaxInputLength, cfg.MaxInputLength)
	assert.Equal(t, "serve.lock", filepath.Base(cfg.LockPath))
	assert.False(t, cfg.Pprof)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level":"debug","cache_entries":0,"max_input_length":-1}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, logger.LevelDebug, cfg.Level())
	assert.Equal(t, 0, cfg.CacheEntries)
	assert.Equal(t, consts.DefaultMaxInputLength, cfg.MaxInputLength)
	assert.Equal(t, DefaultConfig().ListenAddr, cfg.ListenAddr)
	assert.True(t, cfg.HistoryEnabled)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"log_level":`},
		{"negative cache", `{"cache_entries":-5}`},
		{"unknown level", `{"log_level":"chatty"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:9000"
	cfg.HistoryEnabled = false
	cfg.Prompt = "calc> "
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	path := GetConfigPath()
	assert.Equal(t, "config.json", filepath.Base(path))
	assert.Contains(t, path, appName)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, DefaultConfig().Save(path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) { changes <- cfg })
	}()

	updated := DefaultConfig()
	updated.LogLevel = "error"
	require.Eventually(t, func() bool {
		// rewrite until the watcher has been registered and reports the change
		if err := updated.Save(path); err != nil {
			return false
		}
		select {
		case cfg := <-changes:
			return cfg.LogLevel == "error"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
