package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 30*time.Second, cfg.ProbeInterval)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 30*time.Minute, cfg.InactivityThreshold)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DB_TYPE":              "postgres",
		"DATABASE_URL":         "postgres://localhost/levelup?sslmode=disable",
		"LEVELUP_USER_ID":      "u1",
		"LOCAL_STORE":          "badger",
		"SYNC_INTERVAL":        "1m",
		"INACTIVITY_THRESHOLD": "10m",
		"TELEGRAM_CHAT_ID":     "-100123",
		"LOG_FORMAT":           "json",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "u1", cfg.UserID)
	assert.Equal(t, "badger", cfg.LocalStore)
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, 10*time.Minute, cfg.InactivityThreshold)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
	assert.NotNil(t, cfg.Logger())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"SYNC_INTERVAL": "soon"}, "SYNC_INTERVAL"},
		{"negative duration", map[string]string{"PROBE_INTERVAL": "-5s"}, "PROBE_INTERVAL"},
		{"bad hour", map[string]string{"NOTIFICATION_END_HOUR": "25"}, "NOTIFICATION_END_HOUR"},
		{"bad db type", map[string]string{"DB_TYPE": "mysql"}, "DB_TYPE"},
		{"bad store", map[string]string{"LOCAL_STORE": "redis"}, "LOCAL_STORE"},
		{"bad chat id", map[string]string{"TELEGRAM_CHAT_ID": "abc"}, "TELEGRAM_CHAT_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(env(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEVELUP_TEST_ONLY_ADDR=1\nLEVELUP_ADDR=:9191\n"), 0644))
	t.Setenv("LEVELUP_ADDR", "")
	os.Unsetenv("LEVELUP_ADDR")
	t.Cleanup(func() { os.Unsetenv("LEVELUP_TEST_ONLY_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.Addr)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}
