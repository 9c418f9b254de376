package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jota2rz/led-scroller/internal/db"
)

func TestDefaultsSeeded(t *testing.T) {
	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	c := New(database)
	assert.Equal(t, "default", c.StartupPreset())
	assert.Equal(t, "./audio", c.AudioDir())
	assert.Equal(t, 30, c.FrameRate())
	assert.Equal(t, 2*time.Second, c.AudioWatchInterval())
}

func TestSetPersists(t *testing.T) {
	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	c := New(database)
	require.NoError(t, c.Set(KeyStartupPreset, "neon"))
	require.NoError(t, c.Set(KeyFrameRate, "60"))

	reloaded := New(database)
	assert.Equal(t, "neon", reloaded.StartupPreset())
	assert.Equal(t, 60, reloaded.FrameRate())
	assert.Equal(t, "neon", reloaded.All()[KeyStartupPreset])
}

func TestSetRejectsBadNumbers(t *testing.T) {
	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	c := New(database)
	assert.ErrorIs(t, c.Set(KeyFrameRate, "fast"), ErrInvalidSetting)
	assert.ErrorIs(t, c.Set(KeyAudioWatch, "0"), ErrInvalidSetting)
	assert.Equal(t, 30, c.FrameRate())
}

func TestAudioDirFollowsSetting(t *testing.T) {
	database, err := db.Open(db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	c := New(database)
	require.NoError(t, c.Set(KeyAudioDir, "/srv/music"))
	assert.Equal(t, "/srv/music", c.AudioDir())
	assert.Equal(t, "/srv/music", New(database).AudioDir())
}
