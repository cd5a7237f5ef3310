package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrConflict is returned when an ingested id is already claimed by a brief
// with different content. The existing brief must not be overwritten.
var ErrConflict = errors.New("brief id already exists with different content")

const latestPointerKey = 1

// BriefRepository handles database operations for briefs and the latest pointer
type BriefRepository struct {
	db *DB
}

// NewBriefRepository creates a new brief repository
func NewBriefRepository(db *DB) *BriefRepository {
	return &BriefRepository{db: db}
}

// GetBrief returns the brief with the given id, or nil if absent
func (r *BriefRepository) GetBrief(id string) (*Brief, error) {
	row := r.db.QueryRow(`
		SELECT id, title, date, summary, category, body, items, is_latest, created_at
		FROM briefs
		WHERE id = ?
	`, id)

	b, err := scanBrief(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if IsTableMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}

	return b, nil
}

// ListBriefs returns all briefs ordered newest-first by date. A not yet
// provisioned table yields an empty list, not an error.
func (r *BriefRepository) ListBriefs() ([]Brief, error) {
	rows, err := r.db.Query(`
		SELECT id, title, date, summary, category, body, items, is_latest, created_at
		FROM briefs
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		if IsTableMissing(err) {
			return []Brief{}, nil
		}
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}
	defer rows.Close()

	briefs := []Brief{}
	for rows.Next() {
		b, err := scanBrief(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		briefs = append(briefs, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}

	return briefs, nil
}

// GetBriefCount returns the number of stored briefs
func (r *BriefRepository) GetBriefCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM briefs`).Scan(&count)
	if err != nil {
		if IsTableMissing(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count briefs: %w", err)
	}
	return count, nil
}

// GetLatestID returns the latest pointer's current brief id, or "" before
// the first ingestion
func (r *BriefRepository) GetLatestID() (string, error) {
	var id string
	err := r.db.QueryRow(`SELECT current_id FROM latest_pointer WHERE id = ?`, latestPointerKey).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		if IsTableMissing(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get latest pointer: %w", err)
	}
	return id, nil
}

// IngestBrief performs the idempotent ingest write. Re-submitting a brief
// identical to the stored one is a no-op (created=false); a divergent payload
// for an existing id returns ErrConflict. A genuinely new brief is inserted
// in one transaction together with the latest pointer update and, when a
// different brief was latest before, that brief's flag flip. All-or-nothing:
// a reader never observes two latest briefs, nor zero.
func (r *BriefRepository) IngestBrief(b Brief) (bool, error) {
	previousID, err := r.GetLatestID()
	if err != nil {
		return false, err
	}

	existing, err := r.GetBrief(b.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if briefContentEqual(existing, &b) {
			return false, nil
		}
		return false, ErrConflict
	}

	items, err := json.Marshal(b.Items)
	if err != nil {
		return false, fmt.Errorf("failed to encode items: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO briefs (id, title, date, summary, category, body, items, is_latest, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, b.ID, b.Title, b.Date, b.Summary, b.Category, b.Body, string(items), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to insert brief: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO latest_pointer (id, current_id)
		VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET current_id = excluded.current_id
	`, latestPointerKey, b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update latest pointer: %w", err)
	}

	if previousID != "" && previousID != b.ID {
		_, err = tx.Exec(`UPDATE briefs SET is_latest = 0 WHERE id = ?`, previousID)
		if err != nil {
			return false, fmt.Errorf("failed to clear previous latest flag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit ingest transaction: %w", err)
	}

	return true, nil
}

// briefContentEqual compares stored content against an incoming payload
// field by field; item order is significant
func briefContentEqual(a, b *Brief) bool {
	return a.Title == b.Title &&
		a.Date == b.Date &&
		a.Summary == b.Summary &&
		a.Category == b.Category &&
		a.Body == b.Body &&
		slices.Equal(a.Items, b.Items)
}

func scanBrief(scan func(dest ...any) error) (*Brief, error) {
	var b Brief
	var items string
	err := scan(&b.ID, &b.Title, &b.Date, &b.Summary, &b.Category, &b.Body,
		&items, &b.IsLatest, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &b.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return &b, nil
}
