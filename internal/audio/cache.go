package audio

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"time"
)

// Cache stores analysed envelopes in SQLite keyed by path and mtime.
type Cache struct {
	db *sql.DB
}

// NewCache creates an envelope cache backed by the given database.
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Get returns the cached envelope for path, or false if it is missing or
// the file has been modified since.
func (c *Cache) Get(path string, modTime int64) (Envelope, bool) {
	var (
		windowUS int64
		levels   string
		env      Envelope
	)
	err := c.db.QueryRow(
		`SELECT window_us, tempo, peak, levels FROM audio_analysis WHERE path = ? AND mod_time = ?`,
		path, modTime,
	).Scan(&windowUS, &env.Tempo, &env.Peak, &levels)
	if err != nil {
		return Envelope{}, false
	}
	if err := json.Unmarshal([]byte(levels), &env.Levels); err != nil {
		slog.Warn("audio cache: bad levels", "path", path, "error", err)
		return Envelope{}, false
	}
	env.Window = time.Duration(windowUS) * time.Microsecond
	env.Duration = env.Window * time.Duration(len(env.Levels))
	return env, true
}

// Set stores env for path at modTime.
func (c *Cache) Set(path string, modTime int64, env Envelope) error {
	levels, err := json.Marshal(env.Levels)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(
		`INSERT INTO audio_analysis (path, mod_time, window_us, tempo, peak, levels) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET mod_time = excluded.mod_time, window_us = excluded.window_us,
		   tempo = excluded.tempo, peak = excluded.peak, levels = excluded.levels`,
		path, modTime, env.Window.Microseconds(), env.Tempo, env.Peak, string(levels),
	)
	return err
}

// Cleanup removes entries whose files no longer exist on disk.
func (c *Cache) Cleanup() {
	rows, err := c.db.Query(`SELECT path FROM audio_analysis`)
	if err != nil {
		slog.Warn("audio cache cleanup: query failed", "error", err)
		return
	}
	var gone []string
	for rows.Next() {
		var path string
		if rows.Scan(&path) != nil {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			gone = append(gone, path)
		}
	}
	rows.Close()

	for _, path := range gone {
		if _, err := c.db.Exec(`DELETE FROM audio_analysis WHERE path = ?`, path); err != nil {
			slog.Warn("audio cache cleanup: delete failed", "path", path, "error", err)
		}
	}
	if len(gone) > 0 {
		slog.Info("audio cache cleanup", "removed", len(gone))
	}
}
