// ABOUTME: Tests for meal entry operations: ordering, totals, and ownership
// ABOUTME: Covers single and bulk paths plus the not-found/forbidden collapse

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

func TestAddMealEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-10")
	require.NoError(t, err)

	t.Run("computes calories from macros", func(t *testing.T) {
		entry, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{
			Name: "chicken breast", ProteinG: 30, CarbsG: 0, FatG: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, 165.0, entry.TotalCalories)
		assert.Nil(t, entry.CaloriesOverride)
		assert.Equal(t, 0, entry.OrderIndex)
	})

	t.Run("override wins over macros", func(t *testing.T) {
		entry, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{
			Name: "protein bar", ProteinG: 20, CarbsG: 25, FatG: 8,
			CaloriesOverride: ptrF(230),
		})
		require.NoError(t, err)
		assert.Equal(t, 230.0, entry.TotalCalories)
		require.NotNil(t, entry.CaloriesOverride)
		assert.Equal(t, 230.0, *entry.CaloriesOverride)
	})

	t.Run("order index is per meal group", func(t *testing.T) {
		meal := &Meal{UserID: "user-1", Name: "Breakfast"}
		require.NoError(t, s.CreateMeal(ctx, meal))

		first, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{
			Name: "eggs", MealID: &meal.ID,
		})
		require.NoError(t, err)
		second, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{
			Name: "toast", MealID: &meal.ID,
		})
		require.NoError(t, err)

		// The meal group starts its own sequence even though the unassigned
		// bucket already has entries.
		assert.Equal(t, 0, first.OrderIndex)
		assert.Equal(t, 1, second.OrderIndex)
	})

	t.Run("rejects blank names", func(t *testing.T) {
		_, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "   "})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("rejects negative macros", func(t *testing.T) {
		_, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "x", ProteinG: -1})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("foreign day log is not authorized", func(t *testing.T) {
		_, err := s.AddMealEntry(ctx, "user-2", log.ID, NewMealEntry{Name: "x"})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("missing day log is not authorized", func(t *testing.T) {
		_, err := s.AddMealEntry(ctx, "user-1", "no-such-log", NewMealEntry{Name: "x"})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestUpdateMealEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-11")
	require.NoError(t, err)
	entry, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{
		Name: "rice", ProteinG: 4, CarbsG: 45, FatG: 1, CaloriesOverride: ptrF(200),
	})
	require.NoError(t, err)

	t.Run("partial update leaves other fields", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-1", entry.ID, MealEntryUpdate{
			CarbsG: ptrF(60),
		})
		require.NoError(t, err)

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "rice", entries[0].Name)
		assert.Equal(t, 60.0, entries[0].CarbsG)
		assert.Equal(t, 200.0, entries[0].TotalCalories)
	})

	t.Run("clearing override recomputes total", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-1", entry.ID, MealEntryUpdate{
			ClearCaloriesOverride: true,
		})
		require.NoError(t, err)

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].CaloriesOverride)
		assert.Equal(t, 4*4.0+60*4.0+1*9.0, entries[0].TotalCalories)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-1", entry.ID, MealEntryUpdate{})
		assert.NoError(t, err)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-1", entry.ID, MealEntryUpdate{Name: ptrS("  ")})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("foreign entry is not authorized", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-2", entry.ID, MealEntryUpdate{Name: ptrS("stolen")})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("missing entry is not authorized", func(t *testing.T) {
		err := s.UpdateMealEntry(ctx, "user-1", "no-such-entry", MealEntryUpdate{Name: ptrS("x")})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestDeleteMealEntry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-12")
	require.NoError(t, err)
	entry, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "apple", CarbsG: 25})
	require.NoError(t, err)

	t.Run("foreign delete fails and keeps the row", func(t *testing.T) {
		err := s.DeleteMealEntry(ctx, "user-2", entry.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("owner delete removes the row", func(t *testing.T) {
		require.NoError(t, s.DeleteMealEntry(ctx, "user-1", entry.ID))

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("second delete is not authorized", func(t *testing.T) {
		err := s.DeleteMealEntry(ctx, "user-1", entry.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestBulkAddMealEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-13")
	require.NoError(t, err)

	// Pre-existing entry so the bulk sequence has to continue from it.
	seed, err := s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "coffee"})
	require.NoError(t, err)
	require.Equal(t, 0, seed.OrderIndex)

	t.Run("continues each group's sequence", func(t *testing.T) {
		entries, err := s.BulkAddMealEntries(ctx, "user-1", log.ID, []NewMealEntry{
			{Name: "oats", CarbsG: 40},
			{Name: "banana", CarbsG: 27},
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 1, entries[0].OrderIndex)
		assert.Equal(t, 2, entries[1].OrderIndex)
		assert.Equal(t, "oats", entries[0].Name)
	})

	t.Run("one bad item fails the whole batch", func(t *testing.T) {
		before, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)

		_, err = s.BulkAddMealEntries(ctx, "user-1", log.ID, []NewMealEntry{
			{Name: "ok"},
			{Name: ""},
		})
		assert.ErrorIs(t, err, ErrInvalidArgument)

		after, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})

	t.Run("empty batch returns nothing", func(t *testing.T) {
		entries, err := s.BulkAddMealEntries(ctx, "user-1", log.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("foreign day log is not authorized", func(t *testing.T) {
		_, err := s.BulkAddMealEntries(ctx, "user-2", log.ID, []NewMealEntry{{Name: "x"}})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

func TestBulkDeleteMealEntries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-14")
	require.NoError(t, err)
	mine, err := s.BulkAddMealEntries(ctx, "user-1", log.ID, []NewMealEntry{
		{Name: "a"}, {Name: "b"}, {Name: "c"},
	})
	require.NoError(t, err)

	otherLog, err := s.GetOrCreateDayLog(ctx, "user-2", "2026-03-14")
	require.NoError(t, err)
	theirs, err := s.AddMealEntry(ctx, "user-2", otherLog.ID, NewMealEntry{Name: "z"})
	require.NoError(t, err)

	t.Run("one foreign entry fails the whole batch", func(t *testing.T) {
		count, err := s.BulkDeleteMealEntries(ctx, "user-1", []string{mine[0].ID, theirs.ID})
		assert.ErrorIs(t, err, ErrNotAuthorized)
		assert.Zero(t, count)

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("missing ids are skipped", func(t *testing.T) {
		count, err := s.BulkDeleteMealEntries(ctx, "user-1", []string{mine[0].ID, "no-such-entry"})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("deletes remaining owned entries", func(t *testing.T) {
		count, err := s.BulkDeleteMealEntries(ctx, "user-1", []string{mine[1].ID, mine[2].ID})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("empty id list", func(t *testing.T) {
		count, err := s.BulkDeleteMealEntries(ctx, "user-1", nil)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestListMealEntriesByDay(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	log, err := s.GetOrCreateDayLog(ctx, "user-1", "2026-03-15")
	require.NoError(t, err)

	meal := &Meal{UserID: "user-1", Name: "Lunch"}
	require.NoError(t, s.CreateMeal(ctx, meal))

	_, err = s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "snack"})
	require.NoError(t, err)
	_, err = s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "soup", MealID: &meal.ID})
	require.NoError(t, err)
	_, err = s.AddMealEntry(ctx, "user-1", log.ID, NewMealEntry{Name: "bread", MealID: &meal.ID})
	require.NoError(t, err)

	t.Run("groups unassigned first, then by meal and order", func(t *testing.T) {
		entries, err := s.ListMealEntriesByDay(ctx, "user-1", log.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "snack", entries[0].Name)
		assert.Nil(t, entries[0].MealID)
		assert.Equal(t, "soup", entries[1].Name)
		assert.Equal(t, "bread", entries[2].Name)
	})

	t.Run("foreign list is not authorized", func(t *testing.T) {
		_, err := s.ListMealEntriesByDay(ctx, "user-2", log.ID)
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}
