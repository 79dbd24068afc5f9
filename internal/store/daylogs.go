// ABOUTME: Day log persistence with race-safe get-or-create semantics
// ABOUTME: One row per (user, date), enforced by a UNIQUE constraint plus retry

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// getOrCreateRetries bounds the insert/re-select loop. Two passes suffice:
// either our insert wins or a concurrent one did and the re-select finds it.
const getOrCreateRetries = 2

// GetOrCreateDayLog returns the day log for (userID, date), creating it if
// absent. The date is normalized to YYYY-MM-DD; invalid input fails with
// ErrInvalidDate. Safe under concurrent calls for the same date: a losing
// insert hits the UNIQUE(user_id, log_date) constraint and re-selects the
// winner's row instead of surfacing the conflict.
func (s *SQLiteStore) GetOrCreateDayLog(ctx context.Context, userID, date string) (*DayLog, error) {
	normalized, err := NormalizeDate(date)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < getOrCreateRetries; attempt++ {
		log, err := s.getDayLog(ctx, userID, normalized)
		if err == nil {
			return log, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		log = &DayLog{
			ID:      uuid.New().String(),
			UserID:  userID,
			LogDate: normalized,
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO day_logs (id, user_id, log_date, target_calories_override, notes, created_at)
			VALUES (?, ?, ?, NULL, NULL, ?)
		`, log.ID, userID, normalized, time.Now().UTC().Format(time.RFC3339))
		if err == nil {
			s.logger.Debug("created day log", "id", log.ID, "user_id", userID, "log_date", normalized)
			return log, nil
		}
		if !isConstraintViolation(err) {
			return nil, fmt.Errorf("inserting day log: %w", err)
		}
		// Lost the race; loop re-selects the existing row.
	}

	return nil, fmt.Errorf("get-or-create day log for %s: retries exhausted", normalized)
}

// getDayLog looks up a day log by (user, normalized date).
func (s *SQLiteStore) getDayLog(ctx context.Context, userID, normalizedDate string) (*DayLog, error) {
	query := `
		SELECT id, user_id, log_date, target_calories_override, notes
		FROM day_logs
		WHERE user_id = ? AND log_date = ?
	`

	var log DayLog
	var override sql.NullFloat64
	var notes sql.NullString

	err := s.db.QueryRowContext(ctx, query, userID, normalizedDate).Scan(
		&log.ID,
		&log.UserID,
		&log.LogDate,
		&override,
		&notes,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying day log: %w", err)
	}

	log.TargetCaloriesOverride = floatPtr(override)
	log.Notes = stringPtr(notes)
	return &log, nil
}

// ownsDayLog verifies that dayLogID exists and belongs to userID.
// A missing row and a foreign row both come back ErrNotAuthorized.
func (s *SQLiteStore) ownsDayLog(ctx context.Context, userID, dayLogID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM day_logs WHERE id = ? AND user_id = ?`, dayLogID, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotAuthorized
	}
	if err != nil {
		return fmt.Errorf("checking day log ownership: %w", err)
	}
	return nil
}
