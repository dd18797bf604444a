package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Columns added to chats over time. Databases created before migrations
// existed may lack some of them.
var legacyChatColumns = []struct {
	name string
	ddl  string
}{
	{"first_name", "ALTER TABLE chats ADD COLUMN first_name TEXT"},
	{"username", "ALTER TABLE chats ADD COLUMN username TEXT"},
	{"last_start_ts", "ALTER TABLE chats ADD COLUMN last_start_ts INTEGER DEFAULT 0"},
	{"reminder_enabled", "ALTER TABLE chats ADD COLUMN reminder_enabled INTEGER DEFAULT 1"},
	{"reminder_time", "ALTER TABLE chats ADD COLUMN reminder_time TEXT DEFAULT ''"},
	{"language", "ALTER TABLE chats ADD COLUMN language TEXT DEFAULT 'uz'"},
	{"created_at", "ALTER TABLE chats ADD COLUMN created_at INTEGER DEFAULT 0"},
	{"last_interaction_ts", "ALTER TABLE chats ADD COLUMN last_interaction_ts INTEGER DEFAULT 0"},
	{"last_message_id", "ALTER TABLE chats ADD COLUMN last_message_id INTEGER DEFAULT NULL"},
}

type columnInfo struct {
	CID       int     `db:"cid"`
	Name      string  `db:"name"`
	Type      string  `db:"type"`
	NotNull   int     `db:"notnull"`
	Default   *string `db:"dflt_value"`
	PrimaryID int     `db:"pk"`
}

// upgradeLegacyChats adds missing columns to a pre-existing SQLite chats table.
// It is a no-op on fresh databases.
func upgradeLegacyChats(db *sqlx.DB, log *logrus.Entry) error {
	var cols []columnInfo
	if err := db.Select(&cols, "PRAGMA table_info('chats')"); err != nil {
		return fmt.Errorf("failed to inspect chats table: %w", err)
	}
	if len(cols) == 0 {
		return nil
	}

	have := make(map[string]bool, len(cols))
	for _, c := range cols {
		have[c.Name] = true
	}
	for _, c := range legacyChatColumns {
		if have[c.name] {
			continue
		}
		if _, err := db.Exec(c.ddl); err != nil {
			return fmt.Errorf("failed to add column %s to chats: %w", c.name, err)
		}
		log.WithField("column", c.name).Info("Migration: added legacy column to chats")
	}
	return nil
}
