package db

import (
	"database/sql"
	"log/slog"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database (used by tests).
const MemoryPath = ":memory:"

// Open initialises the SQLite database and ensures the schema exists.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if path == MemoryPath {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA busy_timeout=5000",
		}
		for _, p := range pragmas {
			if _, err := db.Exec(p); err != nil {
				slog.Warn("pragma failed", "pragma", p, "error", err)
			}
		}
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
