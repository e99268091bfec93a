package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL migration statements.
// Each entry is applied once in order. New migrations are appended at the end.
var migrations = []string{
	// Migration 0: storefront read models
	`CREATE TABLE IF NOT EXISTS catalog_items (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		price_min   REAL NOT NULL DEFAULT 0,
		price_max   REAL NOT NULL DEFAULT 0,
		published   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS services (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		published   INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS faqs (
		id         TEXT PRIMARY KEY,
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS site_settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ai_settings (
		key               TEXT PRIMARY KEY,
		enabled           INTEGER NOT NULL DEFAULT 1,
		system_prompt     TEXT NOT NULL DEFAULT '',
		tone              TEXT NOT NULL DEFAULT 'friendly',
		max_memory_chunks INTEGER NOT NULL DEFAULT 5,
		updated_at        TEXT NOT NULL
	)`,

	// Migration 5: conversation state, owned by the assistant
	`CREATE TABLE IF NOT EXISTS conversation_messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		user_id    TEXT NOT NULL,
		role       TEXT NOT NULL,
		content    TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS memory_entries (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		user_id    TEXT NOT NULL,
		content    TEXT NOT NULL,
		category   TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS inquiries (
		id                  TEXT PRIMARY KEY,
		reference_id        TEXT NOT NULL UNIQUE,
		user_id             TEXT NOT NULL,
		contact_name        TEXT NOT NULL,
		contact_phone       TEXT NOT NULL,
		contact_email       TEXT NOT NULL,
		occasion            TEXT,
		preferred_colors    TEXT,
		budget_min          REAL,
		budget_max          REAL,
		delivery_area       TEXT,
		event_date_time     TEXT,
		message_note        TEXT,
		selected_item_ids   TEXT NOT NULL DEFAULT '[]',
		status              TEXT NOT NULL DEFAULT 'NEW',
		whatsapp_sent       INTEGER NOT NULL DEFAULT 0,
		email_sent          INTEGER NOT NULL DEFAULT 0,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_user    ON conversation_messages(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_memory_user      ON memory_entries(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_user   ON inquiries(user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status)`,
}

// applyMigrations runs any migrations that have not yet been applied.
func applyMigrations(conn *sql.DB) error {
	// Ensure the migration tracking table exists first.
	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmt := range migrations {
		var count int
		row := conn.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, i)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", i, err)
		}
		if count > 0 {
			continue
		}

		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}

		if _, err := conn.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, i); err != nil {
			return fmt.Errorf("record migration %d: %w", i, err)
		}
	}

	return nil
}
