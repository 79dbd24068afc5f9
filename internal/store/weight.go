// ABOUTME: Weight entry persistence scoped to the owning user
// ABOUTME: Recent-history reads are capped and ordered newest first

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultWeightLimit = 50
	maxWeightLimit     = 200
)

const weightColumns = `id, user_id, entry_date, weight_kg, source, created_at, updated_at`

// GetLatestWeightEntry returns the user's most recent measurement by entry
// date, or ErrNotFound when none exist. Ties on date break toward the most
// recently created row.
func (s *SQLiteStore) GetLatestWeightEntry(ctx context.Context, userID string) (*WeightEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+weightColumns+`
		FROM weight_entries
		WHERE user_id = ?
		ORDER BY entry_date DESC, created_at DESC
		LIMIT 1
	`, userID)

	entry, err := s.scanWeightEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateWeightEntry records a measurement for entry.UserID on entry.EntryDate.
// The date is normalized; missing ID and timestamps are filled in.
func (s *SQLiteStore) CreateWeightEntry(ctx context.Context, entry *WeightEntry) (*WeightEntry, error) {
	if entry.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}
	if entry.WeightKG <= 0 {
		return nil, fmt.Errorf("%w: weight_kg must be positive", ErrInvalidArgument)
	}

	date, err := NormalizeDate(entry.EntryDate)
	if err != nil {
		return nil, err
	}
	entry.EntryDate = date

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weight_entries (id, user_id, entry_date, weight_kg, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.UserID,
		entry.EntryDate,
		entry.WeightKG,
		nullStringPtr(entry.Source),
		entry.CreatedAt.Format(time.RFC3339),
		entry.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting weight entry: %w", err)
	}

	s.logger.Debug("created weight entry", "id", entry.ID, "user_id", entry.UserID, "date", entry.EntryDate)
	return entry, nil
}

// ListRecentWeightEntries returns up to limit measurements, newest first.
// Non-positive limits fall back to the default; oversized limits are clamped.
func (s *SQLiteStore) ListRecentWeightEntries(ctx context.Context, userID string, limit int) ([]*WeightEntry, error) {
	if limit <= 0 {
		limit = defaultWeightLimit
	}
	if limit > maxWeightLimit {
		limit = maxWeightLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+weightColumns+`
		FROM weight_entries
		WHERE user_id = ?
		ORDER BY entry_date DESC, created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying weight entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*WeightEntry
	for rows.Next() {
		entry, err := s.scanWeightEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating weight entry rows: %w", err)
	}
	return entries, nil
}

// DeleteWeightEntry removes one measurement. A missing or foreign entry
// reports ErrNotAuthorized.
func (s *SQLiteStore) DeleteWeightEntry(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM weight_entries WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting weight entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotAuthorized
	}

	s.logger.Debug("deleted weight entry", "id", id, "user_id", userID)
	return nil
}

func (s *SQLiteStore) scanWeightEntry(row rowScanner) (*WeightEntry, error) {
	var entry WeightEntry
	var source sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&entry.WeightKG,
		&source,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning weight entry row: %w", err)
	}

	entry.Source = stringPtr(source)
	entry.CreatedAt = s.parseTime(createdAt, "created_at", entry.ID)
	entry.UpdatedAt = s.parseTime(updatedAt, "updated_at", entry.ID)
	return &entry, nil
}
