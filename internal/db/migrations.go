package db

import "database/sql"

// columnMigrations add columns introduced after a table was first created.
var columnMigrations = []struct {
	table, column, ddl string
}{
	{"audio_analysis", "peak", "ALTER TABLE audio_analysis ADD COLUMN peak REAL NOT NULL DEFAULT 0"},
}

// migrate upgrades databases created by older versions in place.
func migrate(db *sql.DB) error {
	for _, m := range columnMigrations {
		found, err := hasColumn(db, m.table, m.column)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if _, err := db.Exec(m.ddl); err != nil {
			return err
		}
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	var found bool
	for rows.Next() {
		var cid int
		var cname, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if rows.Scan(&cid, &cname, &ctype, &notnull, &dflt, &pk) == nil && cname == column {
			found = true
		}
	}
	return found, rows.Err()
}
