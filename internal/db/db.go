package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"skillfolio/internal/logger"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func dbPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "skillfolio.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "skillfolio.db")
}

// Open opens (or creates) the SQLite database in the default location
// and runs migrations.
func Open() (*DB, error) {
	return OpenPath(dbPath())
}

// OpenPath opens (or creates) the SQLite database at the given path and
// runs migrations.
func OpenPath(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Try to read current version
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS analysis_history (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp       TEXT NOT NULL,
				source          TEXT NOT NULL,
				topic_count     INTEGER NOT NULL,
				risk_tolerance  REAL NOT NULL,
				optimal_json    TEXT NOT NULL DEFAULT '{}',
				selected_json   TEXT NOT NULL DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_analysis_history_ts ON analysis_history(timestamp);

			CREATE TABLE IF NOT EXISTS frontier_points (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id       INTEGER NOT NULL REFERENCES analysis_history(id),
				point_index  INTEGER NOT NULL,
				risk         REAL NOT NULL,
				ret          REAL NOT NULL,
				sharpe_ratio REAL NOT NULL,
				weights_json TEXT NOT NULL DEFAULT '[]'
			);
			CREATE INDEX IF NOT EXISTS idx_frontier_run ON frontier_points(run_id);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}
