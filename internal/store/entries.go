// ABOUTME: Meal entry CRUD with ownership checks through the day log chain
// ABOUTME: Entry order is dense per (day_log_id, meal_id) group, assigned atomically on insert

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// entryColumns selects all entry fields plus the computed total_calories:
// the override when present, otherwise 4p + 4c + 9f.
const entryColumns = `
	id, day_log_id, meal_id, name, protein_g, carbs_g, fat_g, calories_override,
	COALESCE(calories_override, protein_g * 4 + carbs_g * 4 + fat_g * 9) AS total_calories,
	order_index, created_at
`

// AddMealEntry inserts one entry into the given day log after verifying the
// day log belongs to userID. The order index is computed inside the insert
// statement (1 + current group max, or 0 for an empty group), so concurrent
// inserts into the same group cannot both claim the same slot.
func (s *SQLiteStore) AddMealEntry(ctx context.Context, userID, dayLogID string, entry NewMealEntry) (*MealEntry, error) {
	if err := validateNewEntry(&entry); err != nil {
		return nil, err
	}
	if err := s.ownsDayLog(ctx, userID, dayLogID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO meal_entries (id, day_log_id, meal_id, name, protein_g, carbs_g, fat_g, calories_override, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(order_index) + 1, 0) FROM meal_entries WHERE day_log_id = ? AND meal_id IS ?),
			?)
	`

	_, err := s.db.ExecContext(ctx, query,
		id,
		dayLogID,
		nullStringPtr(entry.MealID),
		entry.Name,
		entry.ProteinG,
		entry.CarbsG,
		entry.FatG,
		nullFloatPtr(entry.CaloriesOverride),
		dayLogID,
		nullStringPtr(entry.MealID),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting meal entry: %w", err)
	}

	s.logger.Debug("added meal entry", "id", id, "day_log_id", dayLogID, "name", entry.Name)
	return s.getMealEntry(ctx, id)
}

// UpdateMealEntry applies partial updates to an entry after resolving its day
// log and verifying ownership. A missing entry and a foreign entry both
// report ErrNotAuthorized.
func (s *SQLiteStore) UpdateMealEntry(ctx context.Context, userID, entryID string, updates MealEntryUpdate) error {
	if err := s.ownsMealEntry(ctx, userID, entryID); err != nil {
		return err
	}

	var sets []string
	var args []any

	if updates.Name != nil {
		trimmed := strings.TrimSpace(*updates.Name)
		if trimmed == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
		}
		sets = append(sets, "name = ?")
		args = append(args, trimmed)
	}
	if updates.ProteinG != nil {
		if *updates.ProteinG < 0 {
			return fmt.Errorf("%w: protein_g must be non-negative", ErrInvalidArgument)
		}
		sets = append(sets, "protein_g = ?")
		args = append(args, *updates.ProteinG)
	}
	if updates.CarbsG != nil {
		if *updates.CarbsG < 0 {
			return fmt.Errorf("%w: carbs_g must be non-negative", ErrInvalidArgument)
		}
		sets = append(sets, "carbs_g = ?")
		args = append(args, *updates.CarbsG)
	}
	if updates.FatG != nil {
		if *updates.FatG < 0 {
			return fmt.Errorf("%w: fat_g must be non-negative", ErrInvalidArgument)
		}
		sets = append(sets, "fat_g = ?")
		args = append(args, *updates.FatG)
	}
	switch {
	case updates.ClearCaloriesOverride:
		sets = append(sets, "calories_override = NULL")
	case updates.CaloriesOverride != nil:
		sets = append(sets, "calories_override = ?")
		args = append(args, *updates.CaloriesOverride)
	}
	switch {
	case updates.ClearMealID:
		sets = append(sets, "meal_id = NULL")
	case updates.MealID != nil:
		sets = append(sets, "meal_id = ?")
		args = append(args, *updates.MealID)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, entryID)
	query := "UPDATE meal_entries SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating meal entry: %w", err)
	}

	s.logger.Debug("updated meal entry", "id", entryID)
	return nil
}

// DeleteMealEntry removes one entry after verifying ownership.
func (s *SQLiteStore) DeleteMealEntry(ctx context.Context, userID, entryID string) error {
	if err := s.ownsMealEntry(ctx, userID, entryID); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM meal_entries WHERE id = ?`, entryID); err != nil {
		return fmt.Errorf("deleting meal entry: %w", err)
	}

	s.logger.Debug("deleted meal entry", "id", entryID)
	return nil
}

// BulkAddMealEntries inserts several entries into one day log in a single
// transaction. Order indexes continue each (meal_id) group's sequence, seeded
// from the current max per group.
func (s *SQLiteStore) BulkAddMealEntries(ctx context.Context, userID, dayLogID string, items []NewMealEntry) ([]*MealEntry, error) {
	if len(items) == 0 {
		return nil, nil
	}
	for i := range items {
		if err := validateNewEntry(&items[i]); err != nil {
			return nil, err
		}
	}
	if err := s.ownsDayLog(ctx, userID, dayLogID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Seed a running counter per distinct meal group from the stored max.
	nextIndex := make(map[string]int)
	for _, item := range items {
		key := groupKey(item.MealID)
		if _, seeded := nextIndex[key]; seeded {
			continue
		}
		var next int
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(order_index) + 1, 0)
			FROM meal_entries
			WHERE day_log_id = ? AND meal_id IS ?
		`, dayLogID, nullStringPtr(item.MealID)).Scan(&next)
		if err != nil {
			return nil, fmt.Errorf("seeding order index: %w", err)
		}
		nextIndex[key] = next
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		key := groupKey(item.MealID)
		id := uuid.New().String()

		_, err := tx.ExecContext(ctx, `
			INSERT INTO meal_entries (id, day_log_id, meal_id, name, protein_g, carbs_g, fat_g, calories_override, order_index, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			dayLogID,
			nullStringPtr(item.MealID),
			item.Name,
			item.ProteinG,
			item.CarbsG,
			item.FatG,
			nullFloatPtr(item.CaloriesOverride),
			nextIndex[key],
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting meal entry: %w", err)
		}

		nextIndex[key]++
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bulk insert: %w", err)
	}

	s.logger.Debug("bulk added meal entries", "day_log_id", dayLogID, "count", len(ids))

	entries := make([]*MealEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := s.getMealEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// BulkDeleteMealEntries deletes the given entries only if every one of them
// belongs to a day log owned by userID. One foreign entry fails the whole
// batch with ErrNotAuthorized and nothing is deleted. IDs that match no row
// are skipped. Returns the number of rows deleted.
func (s *SQLiteStore) BulkDeleteMealEntries(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT day_log_id FROM meal_entries WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("querying entry day logs: %w", err)
	}
	var dayLogIDs []string
	for rows.Next() {
		var dlID string
		if err := rows.Scan(&dlID); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("scanning day log id: %w", err)
		}
		dayLogIDs = append(dayLogIDs, dlID)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, fmt.Errorf("iterating day log ids: %w", err)
	}
	_ = rows.Close()

	// All-or-nothing authorization: every referenced day log must be owned.
	for _, dlID := range dayLogIDs {
		if err := s.ownsDayLog(ctx, userID, dlID); err != nil {
			return 0, err
		}
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM meal_entries WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting meal entries: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	s.logger.Debug("bulk deleted meal entries", "user_id", userID, "count", affected)
	return int(affected), nil
}

// ListMealEntriesByDay returns a day log's entries grouped by meal (unassigned
// bucket first) and ordered within each group.
func (s *SQLiteStore) ListMealEntriesByDay(ctx context.Context, userID, dayLogID string) ([]*MealEntry, error) {
	if err := s.ownsDayLog(ctx, userID, dayLogID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM meal_entries WHERE day_log_id = ? ORDER BY meal_id, order_index`,
		dayLogID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying meal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*MealEntry
	for rows.Next() {
		entry, err := s.scanMealEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meal entry rows: %w", err)
	}
	return entries, nil
}

// getMealEntry fetches one entry by ID without an ownership check: callers
// either just inserted the row or already verified the chain.
func (s *SQLiteStore) getMealEntry(ctx context.Context, id string) (*MealEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM meal_entries WHERE id = ?`, id,
	)
	entry, err := s.scanMealEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ownsMealEntry resolves an entry's day log and verifies ownership.
func (s *SQLiteStore) ownsMealEntry(ctx context.Context, userID, entryID string) error {
	var dayLogID string
	err := s.db.QueryRowContext(ctx,
		`SELECT day_log_id FROM meal_entries WHERE id = ?`, entryID,
	).Scan(&dayLogID)
	if err == sql.ErrNoRows {
		return ErrNotAuthorized
	}
	if err != nil {
		return fmt.Errorf("resolving meal entry: %w", err)
	}
	return s.ownsDayLog(ctx, userID, dayLogID)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMealEntry reads one entry row including the computed total.
func (s *SQLiteStore) scanMealEntry(row rowScanner) (*MealEntry, error) {
	var entry MealEntry
	var mealID sql.NullString
	var override sql.NullFloat64
	var createdAt string

	err := row.Scan(
		&entry.ID,
		&entry.DayLogID,
		&mealID,
		&entry.Name,
		&entry.ProteinG,
		&entry.CarbsG,
		&entry.FatG,
		&override,
		&entry.TotalCalories,
		&entry.OrderIndex,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning meal entry row: %w", err)
	}

	entry.MealID = stringPtr(mealID)
	entry.CaloriesOverride = floatPtr(override)
	entry.CreatedAt = s.parseTime(createdAt, "created_at", entry.ID)
	return &entry, nil
}

// validateNewEntry trims the name and checks macro ranges, mutating in place.
func validateNewEntry(entry *NewMealEntry) error {
	entry.Name = strings.TrimSpace(entry.Name)
	if entry.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	if entry.ProteinG < 0 || entry.CarbsG < 0 || entry.FatG < 0 {
		return fmt.Errorf("%w: macro grams must be non-negative", ErrInvalidArgument)
	}
	return nil
}

// groupKey maps a nullable meal ID to a map key for order-index counters.
func groupKey(mealID *string) string {
	if mealID == nil {
		return ""
	}
	return *mealID
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
