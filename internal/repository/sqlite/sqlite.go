// Package sqlite implements the repository interfaces on SQLite.
//
// DRIVER:
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without cgo. It registers itself with database/sql as "sqlite".
//
// TABLES:
//   - foods              reference foods and custom foods, told apart by source
//   - custom_meals       meal headers; deletes are soft (is_deleted)
//   - custom_meal_items  ordered line items with a nutrition snapshot
//
// Meal items do not reference foods with a foreign key. A custom food can be
// deleted while meals still list it; the snapshot keeps the meal's nutrition
// intact and a LEFT JOIN on read flags the item as deleted.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/fooddiary.db" → file-based database
//   - ":memory:"          → in-memory database, used by tests
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each new connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default; custom_meal_items cascades from custom_meals.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables idempotently.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS foods (
			id           TEXT PRIMARY KEY,
			source       TEXT NOT NULL,
			name         TEXT NOT NULL,
			brand        TEXT NOT NULL DEFAULT '',
			serving_size REAL NOT NULL,
			serving_unit TEXT NOT NULL,
			calories     REAL NOT NULL DEFAULT 0,
			protein_g    REAL NOT NULL DEFAULT 0,
			carbs_g      REAL NOT NULL DEFAULT 0,
			fat_g        REAL NOT NULL DEFAULT 0,
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_foods_source_name ON foods(source, name);
	`)
	if err != nil {
		return fmt.Errorf("creating foods table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS custom_meals (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			is_deleted INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_custom_meals_created_at ON custom_meals(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating custom_meals table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS custom_meal_items (
			meal_id      TEXT NOT NULL REFERENCES custom_meals(id) ON DELETE CASCADE,
			position     INTEGER NOT NULL,
			food_id      TEXT NOT NULL,
			quantity     REAL NOT NULL,
			food_name    TEXT NOT NULL,
			food_brand   TEXT NOT NULL DEFAULT '',
			serving_size REAL NOT NULL,
			serving_unit TEXT NOT NULL,
			calories     REAL NOT NULL,
			protein_g    REAL NOT NULL,
			carbs_g      REAL NOT NULL,
			fat_g        REAL NOT NULL,
			PRIMARY KEY (meal_id, position)
		);
		CREATE INDEX IF NOT EXISTS idx_custom_meal_items_food_id ON custom_meal_items(food_id);
	`)
	if err != nil {
		return fmt.Errorf("creating custom_meal_items table: %w", err)
	}

	return nil
}

// likePattern turns a user query into a LIKE pattern that matches it as a
// plain substring. Use with ESCAPE '\'.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}
