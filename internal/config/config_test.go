package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"BOT_TOKEN", "OWNER_CHAT_ID", "DB_PATH", "TZ_NAME", "USAGE_SAMPLE_EVERY", "WORK_MINUTES"} {
		unsetEnv(t, k)
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data/reminder.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, cfg.UsageSampleEvery)
	assert.Equal(t, 30*time.Minute, cfg.WorkDuration())
	assert.Equal(t, 5*time.Minute, cfg.RestDuration())
	assert.True(t, cfg.AutoStart)
	assert.True(t, cfg.FullScreen)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OWNER_CHAT_ID", "42")
	t.Setenv("USAGE_SAMPLE_EVERY", "1m")
	t.Setenv("FULL_SCREEN_GRANTED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.EqualValues(t, 42, cfg.OwnerChatID)
	assert.Equal(t, time.Minute, cfg.UsageSampleEvery)
	assert.False(t, cfg.FullScreen)
}

func TestLoad_RejectsNonPositiveWork(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WORK_MINUTES", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	loc, err := Config{TZName: "Local"}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{TZName: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	_, err = Config{TZName: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}

// unsetEnv removes k for the duration of the test.
func unsetEnv(t *testing.T, k string) {
	t.Helper()
	t.Setenv(k, "")
	require.NoError(t, os.Unsetenv(k))
}
