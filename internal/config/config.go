// Package config exposes the application settings kept in the config table.
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"
)

// Setting keys.
const (
	KeyStartupPreset = "startup_preset"
	KeyAudioDir      = "audio_dir"
	KeyFrameRate     = "frame_rate"
	KeyAudioWatch    = "audio_watch_seconds"
)

// ErrInvalidSetting is returned when a value does not parse for its key.
var ErrInvalidSetting = errors.New("invalid setting")

// Config provides thread-safe access to key-value settings stored in SQLite.
type Config struct {
	db    *sql.DB
	cache map[string]string
	mu    sync.RWMutex
}

// New creates a Config backed by the given database.
func New(db *sql.DB) *Config {
	c := &Config{
		db:    db,
		cache: make(map[string]string),
	}
	c.loadAll()
	return c
}

// Get returns the value for the given key, or the fallback if not found.
func (c *Config) Get(key, fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.cache[key]; ok {
		return v
	}
	return fallback
}

// Int returns the key parsed as an integer, or fallback when the stored
// value is missing or malformed.
func (c *Config) Int(key string, fallback int) int {
	n, err := strconv.Atoi(c.Get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// StartupPreset is the preset loaded when the server starts.
func (c *Config) StartupPreset() string { return c.Get(KeyStartupPreset, "default") }

// AudioDir is the folder scanned for audio files.
func (c *Config) AudioDir() string { return c.Get(KeyAudioDir, "./audio") }

// FrameRate is the particle animation rate in frames per second.
func (c *Config) FrameRate() int {
	if fps := c.Int(KeyFrameRate, 30); fps > 0 {
		return fps
	}
	return 30
}

// AudioWatchInterval is how often the audio folder is polled for changes.
func (c *Config) AudioWatchInterval() time.Duration {
	if s := c.Int(KeyAudioWatch, 2); s > 0 {
		return time.Duration(s) * time.Second
	}
	return 2 * time.Second
}

// Set persists a key-value pair to the database and updates the cache.
// Numeric settings are checked before they are stored.
func (c *Config) Set(key, value string) error {
	switch key {
	case KeyFrameRate, KeyAudioWatch:
		if n, err := strconv.Atoi(value); err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer", ErrInvalidSetting, key)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO config (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return err
	}
	c.cache[key] = value
	return nil
}

// All returns a copy of every config entry.
func (c *Config) All() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.cache)
}

func (c *Config) loadAll() {
	rows, err := c.db.Query("SELECT key, value FROM config")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var k, v string
		if rows.Scan(&k, &v) == nil {
			c.cache[k] = v
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("config rows iteration error", "error", err)
	}
}
