// ABOUTME: Day summary aggregation for history views, plus profile persistence
// ABOUTME: Summary targets resolve day override, then profile target, then suggested

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetDaySummaries aggregates the user's day logs between startDate and
// endDate inclusive, newest first. Days with no day log are omitted; a log
// with no entries still appears with zero totals. Each summary's target
// resolves the day's override first, then the profile target, then the
// profile's suggested value, and stays nil when none are set.
func (s *SQLiteStore) GetDaySummaries(ctx context.Context, userID, startDate, endDate string) ([]*DaySummary, error) {
	start, err := NormalizeDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := NormalizeDate(endDate)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("%w: start date after end date", ErrInvalidArgument)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT dl.log_date,
		       COALESCE(SUM(COALESCE(me.calories_override, me.protein_g * 4 + me.carbs_g * 4 + me.fat_g * 9)), 0),
		       COALESCE(SUM(me.protein_g), 0),
		       COALESCE(SUM(me.carbs_g), 0),
		       COALESCE(SUM(me.fat_g), 0),
		       COUNT(me.id),
		       dl.target_calories_override,
		       dl.notes
		FROM day_logs dl
		LEFT JOIN meal_entries me ON me.day_log_id = dl.id
		WHERE dl.user_id = ? AND dl.log_date >= ? AND dl.log_date <= ?
		GROUP BY dl.id
		ORDER BY dl.log_date DESC
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying day summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []*DaySummary
	for rows.Next() {
		var summary DaySummary
		var override sql.NullFloat64
		var notes sql.NullString

		err := rows.Scan(
			&summary.LogDate,
			&summary.TotalCalories,
			&summary.TotalProtein,
			&summary.TotalCarbs,
			&summary.TotalFat,
			&summary.EntryCount,
			&override,
			&notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning day summary row: %w", err)
		}

		summary.TargetCalories = floatPtr(override)
		summary.Notes = stringPtr(notes)
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating day summary rows: %w", err)
	}

	// Fill in profile-level targets for days without an override.
	needsProfile := false
	for _, summary := range summaries {
		if summary.TargetCalories == nil {
			needsProfile = true
			break
		}
	}
	if needsProfile {
		profile, err := s.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		fallback := profile.TargetCalories
		if fallback == nil {
			fallback = profile.SuggestedCalories
		}
		if fallback != nil {
			for _, summary := range summaries {
				if summary.TargetCalories == nil {
					v := *fallback
					summary.TargetCalories = &v
				}
			}
		}
	}

	return summaries, nil
}

// GetProfile returns the user's profile, or an empty profile when none has
// been saved yet.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var target, suggested sql.NullFloat64
	err := s.db.QueryRowContext(ctx,
		`SELECT target_calories, suggested_calories FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&target, &suggested)
	if err == sql.ErrNoRows {
		return &Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	return &Profile{
		UserID:            userID,
		TargetCalories:    floatPtr(target),
		SuggestedCalories: floatPtr(suggested),
	}, nil
}

// UpsertProfile creates or replaces the user's profile row.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *Profile) error {
	if profile.UserID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, target_calories, suggested_calories)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			target_calories = excluded.target_calories,
			suggested_calories = excluded.suggested_calories
	`,
		profile.UserID,
		nullFloatPtr(profile.TargetCalories),
		nullFloatPtr(profile.SuggestedCalories),
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}

	s.logger.Info("saved profile", "user_id", profile.UserID)
	return nil
}
