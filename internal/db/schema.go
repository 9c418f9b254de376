package db

import "database/sql"

// ensureSchema creates the tables and seeds default settings.
func ensureSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Default settings (inserted only if not present)
	INSERT OR IGNORE INTO config (key, value) VALUES ('startup_preset', 'default');
	INSERT OR IGNORE INTO config (key, value) VALUES ('audio_dir', './audio');
	INSERT OR IGNORE INTO config (key, value) VALUES ('frame_rate', '30');
	INSERT OR IGNORE INTO config (key, value) VALUES ('audio_watch_seconds', '2');

	-- User presets; data is the preset's key-value record as a JSON object
	CREATE TABLE IF NOT EXISTS presets (
		name       TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Cached level envelopes for audio files (avoids re-decoding)
	CREATE TABLE IF NOT EXISTS audio_analysis (
		path       TEXT PRIMARY KEY,   -- absolute file path
		mod_time   INTEGER NOT NULL,   -- file modification time (Unix seconds)
		window_us  INTEGER NOT NULL,   -- envelope window length in microseconds
		tempo      REAL NOT NULL,      -- detected BPM, 0 if unknown
		levels     TEXT NOT NULL,      -- JSON array of normalised RMS levels
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}
