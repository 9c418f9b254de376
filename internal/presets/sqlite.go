package presets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jota2rz/led-scroller/internal/scene"
)

// SQLiteRepository stores user presets in the presets table. Each row holds
// the preset's key-value record as a JSON object.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns every stored preset. Rows that fail to decode are skipped
// and logged so one bad record does not hide the rest.
func (r *SQLiteRepository) List(ctx context.Context) (map[string]scene.Config, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name, data FROM presets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]scene.Config)
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		cfg, err := decodeRecord([]byte(data))
		if err != nil {
			slog.Warn("skipping unreadable preset", "name", name, "error", err)
			continue
		}
		out[name] = cfg
	}
	return out, rows.Err()
}

// Save inserts or replaces the named preset.
func (r *SQLiteRepository) Save(ctx context.Context, name string, cfg scene.Config) error {
	data, err := json.Marshal(cfg.Record())
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO presets (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		name, string(data),
	)
	return err
}

// Delete removes the named preset. Deleting a missing preset is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM presets WHERE name = ?", name)
	return err
}

// decodeRecord rebuilds a configuration from a stored record. Keys missing
// from the record keep the default preset's values.
func decodeRecord(data []byte) (scene.Config, error) {
	var rec map[string]string
	if err := json.Unmarshal(data, &rec); err != nil {
		return scene.Config{}, fmt.Errorf("decode preset record: %w", err)
	}
	cfg := Default()
	if err := cfg.ApplyRecord(rec); err != nil {
		return scene.Config{}, err
	}
	return cfg, nil
}
