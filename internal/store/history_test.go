// ABOUTME: Tests for meals, weight entries, profiles, and day summary aggregation
// ABOUTME: Exercises target resolution order and the weight history limit clamp

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeals(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("create assigns sequential order", func(t *testing.T) {
		breakfast := &Meal{UserID: "user-1", Name: "Breakfast"}
		require.NoError(t, s.CreateMeal(ctx, breakfast))
		lunch := &Meal{UserID: "user-1", Name: "Lunch", TargetCalories: ptrF(700)}
		require.NoError(t, s.CreateMeal(ctx, lunch))

		assert.Equal(t, 0, breakfast.OrderIndex)
		assert.Equal(t, 1, lunch.OrderIndex)
	})

	t.Run("create rejects blank names", func(t *testing.T) {
		err := s.CreateMeal(ctx, &Meal{UserID: "user-1", Name: " "})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("list orders by display order", func(t *testing.T) {
		meals, err := s.ListMeals(ctx, "user-1", false)
		require.NoError(t, err)
		require.Len(t, meals, 2)
		assert.Equal(t, "Breakfast", meals[0].Name)
		assert.Equal(t, "Lunch", meals[1].Name)
		require.NotNil(t, meals[1].TargetCalories)
		assert.Equal(t, 700.0, *meals[1].TargetCalories)
	})

	t.Run("archive hides unless included", func(t *testing.T) {
		meals, err := s.ListMeals(ctx, "user-1", false)
		require.NoError(t, err)
		require.NoError(t, s.ArchiveMeal(ctx, "user-1", meals[0].ID))

		visible, err := s.ListMeals(ctx, "user-1", false)
		require.NoError(t, err)
		assert.Len(t, visible, 1)

		all, err := s.ListMeals(ctx, "user-1", true)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("archive foreign meal is not authorized", func(t *testing.T) {
		meals, err := s.ListMeals(ctx, "user-1", false)
		require.NoError(t, err)
		err = s.ArchiveMeal(ctx, "user-2", meals[0].ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestWeightEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("latest with no data", func(t *testing.T) {
		_, err := s.GetLatestWeightEntry(ctx, "user-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create and fetch latest", func(t *testing.T) {
		_, err := s.CreateWeightEntry(ctx, &WeightEntry{
			UserID: "user-1", EntryDate: "2026-03-01", WeightKG: 81.2,
		})
		require.NoError(t, err)
		_, err = s.CreateWeightEntry(ctx, &WeightEntry{
			UserID: "user-1", EntryDate: "2026-03-05", WeightKG: 80.6, Source: ptrS("scale"),
		})
		require.NoError(t, err)

		latest, err := s.GetLatestWeightEntry(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "2026-03-05", latest.EntryDate)
		assert.Equal(t, 80.6, latest.WeightKG)
		require.NotNil(t, latest.Source)
		assert.Equal(t, "scale", *latest.Source)
	})

	t.Run("create validates weight and date", func(t *testing.T) {
		_, err := s.CreateWeightEntry(ctx, &WeightEntry{UserID: "user-1", EntryDate: "2026-03-01", WeightKG: 0})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = s.CreateWeightEntry(ctx, &WeightEntry{UserID: "user-1", EntryDate: "bad", WeightKG: 80})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("list newest first with clamped limit", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			_, err := s.CreateWeightEntry(ctx, &WeightEntry{
				UserID:    "user-2",
				EntryDate: fmt.Sprintf("2026-04-%02d", i+1),
				WeightKG:  75,
			})
			require.NoError(t, err)
		}

		entries, err := s.ListRecentWeightEntries(ctx, "user-2", 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "2026-04-10", entries[0].EntryDate)

		// Zero falls back to the default; oversized limits just return
		// everything available.
		entries, err = s.ListRecentWeightEntries(ctx, "user-2", 0)
		require.NoError(t, err)
		assert.Len(t, entries, 10)

		entries, err = s.ListRecentWeightEntries(ctx, "user-2", 10_000)
		require.NoError(t, err)
		assert.Len(t, entries, 10)
	})

	t.Run("oversized limit is capped at the maximum", func(t *testing.T) {
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 250; i++ {
			_, err := s.CreateWeightEntry(ctx, &WeightEntry{
				UserID:    "user-3",
				EntryDate: base.AddDate(0, 0, i).Format("2006-01-02"),
				WeightKG:  75,
			})
			require.NoError(t, err)
		}

		entries, err := s.ListRecentWeightEntries(ctx, "user-3", 500)
		require.NoError(t, err)
		require.Len(t, entries, 200)
		// Newest of the 250 comes first; the oldest 50 fall off the end.
		assert.Equal(t, base.AddDate(0, 0, 249).Format("2006-01-02"), entries[0].EntryDate)
		assert.Equal(t, base.AddDate(0, 0, 50).Format("2006-01-02"), entries[199].EntryDate)
	})

	t.Run("delete is owner scoped", func(t *testing.T) {
		latest, err := s.GetLatestWeightEntry(ctx, "user-1")
		require.NoError(t, err)

		err = s.DeleteWeightEntry(ctx, "user-2", latest.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)

		require.NoError(t, s.DeleteWeightEntry(ctx, "user-1", latest.ID))

		remaining, err := s.GetLatestWeightEntry(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "2026-03-01", remaining.EntryDate)
	})
}

func TestProfiles(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("missing profile comes back empty", func(t *testing.T) {
		profile, err := s.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, profile.TargetCalories)
		assert.Nil(t, profile.SuggestedCalories)
	})

	t.Run("upsert then replace", func(t *testing.T) {
		require.NoError(t, s.UpsertProfile(ctx, &Profile{
			UserID: "user-1", TargetCalories: ptrF(2200), SuggestedCalories: ptrF(2400),
		}))

		profile, err := s.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, profile.TargetCalories)
		assert.Equal(t, 2200.0, *profile.TargetCalories)

		require.NoError(t, s.UpsertProfile(ctx, &Profile{
			UserID: "user-1", SuggestedCalories: ptrF(2400),
		}))
		profile, err = s.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Nil(t, profile.TargetCalories)
	})
}

func TestGetDaySummaries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	day1, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-05-01")
	require.NoError(t, err)
	_, err = s.BulkAddMealEntries(ctx, "user-1", day1.ID, []NewMealEntry{
		{Name: "eggs", ProteinG: 18, FatG: 15},
		{Name: "shake", CaloriesOverride: ptrF(300)},
	})
	require.NoError(t, err)

	_, err = s.GetOrCreateDayLog(ctx, "user-1", "2026-05-02")
	require.NoError(t, err)

	t.Run("aggregates totals newest first", func(t *testing.T) {
		summaries, err := s.GetDaySummaries(ctx, "user-1", "2026-05-01", "2026-05-03")
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, "2026-05-02", summaries[0].LogDate)
		assert.Zero(t, summaries[0].EntryCount)
		assert.Zero(t, summaries[0].TotalCalories)

		assert.Equal(t, "2026-05-01", summaries[1].LogDate)
		assert.Equal(t, 2, summaries[1].EntryCount)
		assert.Equal(t, 18*4.0+15*9.0+300, summaries[1].TotalCalories)
		assert.Equal(t, 18.0, summaries[1].TotalProtein)
	})

	t.Run("no targets resolve to nil", func(t *testing.T) {
		summaries, err := s.GetDaySummaries(ctx, "user-1", "2026-05-01", "2026-05-01")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Nil(t, summaries[0].TargetCalories)
	})

	t.Run("suggested target fills in", func(t *testing.T) {
		require.NoError(t, s.UpsertProfile(ctx, &Profile{
			UserID: "user-1", SuggestedCalories: ptrF(2500),
		}))

		summaries, err := s.GetDaySummaries(ctx, "user-1", "2026-05-01", "2026-05-01")
		require.NoError(t, err)
		require.NotNil(t, summaries[0].TargetCalories)
		assert.Equal(t, 2500.0, *summaries[0].TargetCalories)
	})

	t.Run("explicit target beats suggested", func(t *testing.T) {
		require.NoError(t, s.UpsertProfile(ctx, &Profile{
			UserID: "user-1", TargetCalories: ptrF(2000), SuggestedCalories: ptrF(2500),
		}))

		summaries, err := s.GetDaySummaries(ctx, "user-1", "2026-05-01", "2026-05-01")
		require.NoError(t, err)
		require.NotNil(t, summaries[0].TargetCalories)
		assert.Equal(t, 2000.0, *summaries[0].TargetCalories)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := s.GetDaySummaries(ctx, "user-1", "2026-05-10", "2026-05-01")
		assert.ErrorIs(t, err, ErrInvalidArgument)

		_, err = s.GetDaySummaries(ctx, "user-1", "bad", "2026-05-01")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("other users' days are invisible", func(t *testing.T) {
		summaries, err := s.GetDaySummaries(ctx, "user-2", "2026-05-01", "2026-05-03")
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})
}
