package store

import (
	"fmt"
	"time"
)

// SaveOverride persists a saved-contact name for a conversation.
func (db *DB) SaveOverride(conversationID, name string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO contact_overrides (conversation_id, name, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at`,
		conversationID, name, now)
	return err
}

// ListOverrides returns all saved-contact overrides keyed by conversation id.
func (db *DB) ListOverrides() (map[string]string, error) {
	rows, err := db.Query(`SELECT conversation_id, name FROM contact_overrides`)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}
