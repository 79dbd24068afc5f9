// ABOUTME: Meal template persistence: list, create, and archive
// ABOUTME: Templates are soft-deleted via the archived flag so old entries keep their grouping

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListMeals returns the user's meal templates ordered by their display order.
// Archived templates are excluded unless includeArchived is set.
func (s *SQLiteStore) ListMeals(ctx context.Context, userID string, includeArchived bool) ([]*Meal, error) {
	query := `
		SELECT id, user_id, name, order_index, archived,
		       target_protein_g, target_carbs_g, target_fat_g, target_calories,
		       created_at, updated_at
		FROM meals
		WHERE user_id = ?
	`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY order_index, created_at`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying meals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var meals []*Meal
	for rows.Next() {
		var meal Meal
		var protein, carbs, fat, calories sql.NullFloat64
		var createdAt, updatedAt string

		err := rows.Scan(
			&meal.ID,
			&meal.UserID,
			&meal.Name,
			&meal.OrderIndex,
			&meal.Archived,
			&protein,
			&carbs,
			&fat,
			&calories,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning meal row: %w", err)
		}

		meal.TargetProteinG = floatPtr(protein)
		meal.TargetCarbsG = floatPtr(carbs)
		meal.TargetFatG = floatPtr(fat)
		meal.TargetCalories = floatPtr(calories)
		meal.CreatedAt = s.parseTime(createdAt, "created_at", meal.ID)
		meal.UpdatedAt = s.parseTime(updatedAt, "updated_at", meal.ID)
		meals = append(meals, &meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meal rows: %w", err)
	}
	return meals, nil
}

// CreateMeal inserts a new template for meal.UserID. Missing ID and
// timestamps are filled in; a zero OrderIndex takes the next slot in the
// user's sequence.
func (s *SQLiteStore) CreateMeal(ctx context.Context, meal *Meal) error {
	if meal.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}
	meal.Name = strings.TrimSpace(meal.Name)
	if meal.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}

	if meal.ID == "" {
		meal.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = now
	}
	meal.UpdatedAt = now

	if meal.OrderIndex == 0 {
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(order_index) + 1, 0) FROM meals WHERE user_id = ?`,
			meal.UserID,
		).Scan(&meal.OrderIndex)
		if err != nil {
			return fmt.Errorf("seeding meal order index: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meals (id, user_id, name, order_index, archived,
			target_protein_g, target_carbs_g, target_fat_g, target_calories,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		meal.ID,
		meal.UserID,
		meal.Name,
		meal.OrderIndex,
		meal.Archived,
		nullFloatPtr(meal.TargetProteinG),
		nullFloatPtr(meal.TargetCarbsG),
		nullFloatPtr(meal.TargetFatG),
		nullFloatPtr(meal.TargetCalories),
		meal.CreatedAt.Format(time.RFC3339),
		meal.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting meal: %w", err)
	}

	s.logger.Info("created meal", "id", meal.ID, "user_id", meal.UserID, "name", meal.Name)
	return nil
}

// ArchiveMeal soft-deletes a template. Entries referencing it are untouched.
// Archiving an already-archived meal is a no-op; a missing or foreign meal
// reports ErrNotAuthorized.
func (s *SQLiteStore) ArchiveMeal(ctx context.Context, userID, mealID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE meals SET archived = 1, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, time.Now().UTC().Format(time.RFC3339), mealID, userID)
	if err != nil {
		return fmt.Errorf("archiving meal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotAuthorized
	}

	s.logger.Info("archived meal", "id", mealID, "user_id", userID)
	return nil
}
