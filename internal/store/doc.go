// Package store provides persistent storage for leanlog-gateway using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with specialized
// interfaces:
//
//   - KeyStore: API key lifecycle (create, list, touch, revoke)
//   - NutritionStore: Day logs, meal entries, meal templates, profiles
//   - WeightStore: Weight entry CRUD
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # Data Models
//
//   - APIKey: Scrypt-hashed credential with revocation and usage tracking
//   - DayLog: Per-user, per-date container for meal entries (unique per day)
//   - MealEntry: A logged food item with macros and optional calorie override
//   - Meal: Reusable meal template with optional macro targets
//   - WeightEntry: Dated body-weight measurement in kilograms
//   - Profile: Per-user calorie targets
//   - DaySummary: Aggregated macros and calories for one day
//
// # Ownership
//
// Every read and write is scoped by the authenticated user's ID. Operations
// against rows the user does not own return ErrNotAuthorized, and so do
// operations against rows that do not exist at all, so callers cannot
// distinguish foreign data from missing data.
//
// # Calories
//
// An entry's total calories are computed in SQL, not stored:
//
//	COALESCE(calories_override, protein_g*4 + carbs_g*4 + fat_g*9)
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are stored as RFC 3339 text. Dates are stored as YYYY-MM-DD
// text; NormalizeDate canonicalizes inputs before they reach a query.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: Requested entity does not exist
//   - ErrNotAuthorized: Entity is missing or owned by another user
//   - ErrInvalidDate: Date string is not YYYY-MM-DD or RFC 3339
//   - ErrInvalidArgument: Input failed validation
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewSQLiteStore with a path under t.TempDir() for integration tests
// against real SQLite.
package store
