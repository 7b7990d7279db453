package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("STORAGE_DRIVER", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("FEEDBACK_DELAY", "2s")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.BotToken)
	require.Equal(t, int64(42), cfg.AdminID)
	require.Equal(t, StorageRedis, cfg.Storage.Driver)
	require.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	require.Equal(t, 2*time.Second, cfg.FeedbackDelay)
	require.Equal(t, 3000*time.Millisecond, cfg.ConfettiDelay)
	require.False(t, cfg.IsProduction())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "1")

	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	require.Equal(t, StorageSQLite, cfg.Storage.Driver)
	require.Equal(t, "quiz.db", cfg.Storage.DBPath)
	require.Equal(t, 1500*time.Millisecond, cfg.FeedbackDelay)
	require.Empty(t, cfg.HTTP.Addr)
	require.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_ID", "1")

	_, err := load(viper.New(), t.TempDir())
	require.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "1")
	t.Setenv("STORAGE_DRIVER", "postgres")

	_, err := load(viper.New(), t.TempDir())
	require.ErrorIs(t, err, ErrInvalidStorageDriver)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "app_env: production\nbot_token: file-token\nadmin_id: 7\nhttp_addr: \":8080\"\ncors_origins:\n  - http://quiz.test\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ADMIN_ID", "")

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)

	require.True(t, cfg.IsProduction())
	require.Equal(t, "file-token", cfg.BotToken)
	require.Equal(t, int64(7), cfg.AdminID)
	require.Equal(t, ":8080", cfg.HTTP.Addr)
	require.Equal(t, []string{"http://quiz.test"}, cfg.HTTP.CORSOrigins)
}
