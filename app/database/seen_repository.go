package database

import (
	"database/sql"
	"fmt"

	"github.com/dokibot/club-assistant/app/dedup"
)

var _ dedup.Store = (*SeenRepository)(nil)

// SeenRepository is the sqlite-backed seen-state store, used instead of the
// in-memory one when --state-db is set so dedup state survives restarts.
type SeenRepository struct {
	db *DB
}

func NewSeenRepository(db *DB) *SeenRepository {
	return &SeenRepository{db: db}
}

func (r *SeenRepository) IsNew(key, id string) (bool, error) {
	var one int
	err := r.db.QueryRow(`
		SELECT 1 FROM seen_items WHERE source_key = ? AND item_id = ? LIMIT 1
	`, key, id).Scan(&one)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check seen item: %w", err)
	}
	return false, nil
}

func (r *SeenRepository) MarkSeen(key, id string) error {
	_, err := r.db.Exec(`
		INSERT INTO seen_items (source_key, item_id) VALUES (?, ?)
		ON CONFLICT (source_key, item_id) DO NOTHING
	`, key, id)
	if err != nil {
		return fmt.Errorf("failed to mark item seen: %w", err)
	}
	return nil
}

func (r *SeenRepository) MarkSeenIfNew(key, id string) (bool, error) {
	result, err := r.db.Exec(`
		INSERT INTO seen_items (source_key, item_id) VALUES (?, ?)
		ON CONFLICT (source_key, item_id) DO NOTHING
	`, key, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark item seen: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *SeenRepository) Counts() (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT source_key, COUNT(*) FROM seen_items GROUP BY source_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count seen items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan seen count: %w", err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}
