// ABOUTME: Store interfaces and data types for leanlog persistence
// ABOUTME: Defines API key, day log, meal, entry, and weight models plus ownership-checked operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNotAuthorized is returned when a resource does not exist or belongs to a
// different user. The two cases are deliberately indistinguishable so callers
// cannot probe for the existence of other users' rows.
var ErrNotAuthorized = errors.New("not authorized")

// ErrInvalidDate is returned when a date string is not a valid calendar date.
var ErrInvalidDate = errors.New("invalid date")

// ErrInvalidArgument is returned for empty required strings and out-of-range values.
var ErrInvalidArgument = errors.New("invalid argument")

// APIKey is a hashed bearer credential for the MCP endpoint.
// A key is valid iff RevokedAt is nil. Keys are soft-deleted, never removed.
type APIKey struct {
	ID         string
	UserID     string
	Name       string
	HashedKey  string // scrypt$<salt-hex>$<hash-hex>
	CreatedAt  time.Time
	LastUsedAt *time.Time
	RevokedAt  *time.Time
}

// Profile holds per-user calorie targets used to resolve day summary targets.
type Profile struct {
	UserID            string
	TargetCalories    *float64
	SuggestedCalories *float64
}

// DayLog is the per-user, per-date container for meal entries.
// At most one row exists per (UserID, LogDate).
type DayLog struct {
	ID                     string
	UserID                 string
	LogDate                string // YYYY-MM-DD
	TargetCaloriesOverride *float64
	Notes                  *string
}

// Meal is a user-defined category template (e.g. "Breakfast") with optional
// macro targets. Ordering is a dense integer sequence per user.
type Meal struct {
	ID             string
	UserID         string
	Name           string
	OrderIndex     int
	Archived       bool
	TargetProteinG *float64
	TargetCarbsG   *float64
	TargetFatG     *float64
	TargetCalories *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MealEntry is one logged food item attached to a day log, and optionally to a
// meal template. A nil MealID places the entry in the unassigned bucket.
// TotalCalories is CaloriesOverride when set, otherwise 4p + 4c + 9f.
type MealEntry struct {
	ID               string
	DayLogID         string
	MealID           *string
	Name             string
	ProteinG         float64
	CarbsG           float64
	FatG             float64
	CaloriesOverride *float64
	TotalCalories    float64
	OrderIndex       int
	CreatedAt        time.Time
}

// WeightEntry is one weight measurement for a user on a date.
type WeightEntry struct {
	ID        string
	UserID    string
	EntryDate string // YYYY-MM-DD
	WeightKG  float64
	Source    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DaySummary aggregates one day log's entries for history views.
type DaySummary struct {
	LogDate        string
	TotalCalories  float64
	TotalProtein   float64
	TotalCarbs     float64
	TotalFat       float64
	EntryCount     int
	TargetCalories *float64
	Notes          *string
}

// NewMealEntry is the input for AddMealEntry and BulkAddMealEntries items.
type NewMealEntry struct {
	MealID           *string
	Name             string
	ProteinG         float64
	CarbsG           float64
	FatG             float64
	CaloriesOverride *float64
}

// MealEntryUpdate holds partial updates for a meal entry. Nil pointer fields
// are left unchanged; the Clear flags set their column to NULL explicitly.
type MealEntryUpdate struct {
	Name                  *string
	ProteinG              *float64
	CarbsG                *float64
	FatG                  *float64
	CaloriesOverride      *float64
	ClearCaloriesOverride bool
	MealID                *string
	ClearMealID           bool
}

// KeyStore defines API key persistence for the auth gate and admin CLI.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *APIKey) error
	ListAPIKeysForUser(ctx context.Context, userID string) ([]*APIKey, error)
	ListActiveAPIKeys(ctx context.Context) ([]*APIKey, error)
	TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error
	RevokeAPIKey(ctx context.Context, userID, id string) error
}

// NutritionStore defines ownership-checked operations over day logs, meal
// templates, meal entries, and profiles. Every method takes the authenticated
// user's ID first and never trusts caller-supplied foreign keys.
type NutritionStore interface {
	GetOrCreateDayLog(ctx context.Context, userID, date string) (*DayLog, error)
	AddMealEntry(ctx context.Context, userID, dayLogID string, entry NewMealEntry) (*MealEntry, error)
	UpdateMealEntry(ctx context.Context, userID, entryID string, updates MealEntryUpdate) error
	DeleteMealEntry(ctx context.Context, userID, entryID string) error
	BulkAddMealEntries(ctx context.Context, userID, dayLogID string, items []NewMealEntry) ([]*MealEntry, error)
	BulkDeleteMealEntries(ctx context.Context, userID string, ids []string) (int, error)
	ListMealEntriesByDay(ctx context.Context, userID, dayLogID string) ([]*MealEntry, error)

	ListMeals(ctx context.Context, userID string, includeArchived bool) ([]*Meal, error)
	CreateMeal(ctx context.Context, meal *Meal) error
	ArchiveMeal(ctx context.Context, userID, mealID string) error

	GetDaySummaries(ctx context.Context, userID, startDate, endDate string) ([]*DaySummary, error)

	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
}

// WeightStore defines ownership-scoped weight entry CRUD.
type WeightStore interface {
	GetLatestWeightEntry(ctx context.Context, userID string) (*WeightEntry, error)
	CreateWeightEntry(ctx context.Context, entry *WeightEntry) (*WeightEntry, error)
	ListRecentWeightEntries(ctx context.Context, userID string, limit int) ([]*WeightEntry, error)
	DeleteWeightEntry(ctx context.Context, userID, id string) error
}

// Store combines all persistence concerns. SQLiteStore implements everything.
type Store interface {
	KeyStore
	NutritionStore
	WeightStore

	// Close releases any resources held by the store
	Close() error
}

// CaloriesFromMacros computes calories from macro grams (4/4/9 kcal per gram).
// Storage applies the same formula when no override is present; anything
// estimating calories before insert must agree with it.
func CaloriesFromMacros(proteinG, carbsG, fatG float64) float64 {
	return proteinG*4 + carbsG*4 + fatG*9
}

// NormalizeDate validates and canonicalizes a date string to YYYY-MM-DD.
// Accepts plain calendar dates and RFC3339 timestamps (truncated to the date).
func NormalizeDate(input string) (string, error) {
	if t, err := time.Parse("2006-01-02", input); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", ErrInvalidDate
}
