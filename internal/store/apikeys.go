// ABOUTME: API key persistence for the MCP authentication gate
// ABOUTME: Keys are soft-deleted via revoked_at and never removed

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateAPIKey inserts a new API key row. ID and CreatedAt are filled in when zero.
func (s *SQLiteStore) CreateAPIKey(ctx context.Context, key *APIKey) error {
	if key.ID == "" {
		key.ID = uuid.New().String()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}
	if key.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if key.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}
	if key.HashedKey == "" {
		return fmt.Errorf("%w: hashed key is required", ErrInvalidArgument)
	}

	query := `
		INSERT INTO api_keys (id, user_id, name, hashed_key, created_at, last_used_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, NULL, NULL)
	`

	_, err := s.db.ExecContext(ctx, query,
		key.ID,
		key.UserID,
		key.Name,
		key.HashedKey,
		key.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	s.logger.Debug("created api key", "id", key.ID, "user_id", key.UserID, "name", key.Name)
	return nil
}

// ListAPIKeysForUser returns all of a user's keys, newest first, revoked included.
func (s *SQLiteStore) ListAPIKeysForUser(ctx context.Context, userID string) ([]*APIKey, error) {
	query := `
		SELECT id, user_id, name, hashed_key, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying api keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanAPIKeys(rows)
}

// ListActiveAPIKeys returns every non-revoked key across all users.
// The auth gate scans these linearly on each request; acceptable at the
// expected key count, noted as a scaling caveat.
func (s *SQLiteStore) ListActiveAPIKeys(ctx context.Context) ([]*APIKey, error) {
	query := `
		SELECT id, user_id, name, hashed_key, created_at, last_used_at, revoked_at
		FROM api_keys
		WHERE revoked_at IS NULL
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying active api keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return s.scanAPIKeys(rows)
}

// TouchAPIKey records that a key was used. Called fire-and-forget from the auth
// gate; concurrent touches are last-write-wins.
func (s *SQLiteStore) TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE api_keys SET last_used_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, usedAt.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating last_used_at: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeAPIKey soft-deletes a key by setting revoked_at. The row stays so
// auditing and the key list survive revocation. Revoking an already-revoked
// key is a no-op; a missing or foreign key reports ErrNotAuthorized.
func (s *SQLiteStore) RevokeAPIKey(ctx context.Context, userID, id string) error {
	query := `
		UPDATE api_keys
		SET revoked_at = ?
		WHERE id = ? AND user_id = ? AND revoked_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), id, userID)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish "already revoked" from "not yours / missing"
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM api_keys WHERE id = ? AND user_id = ?`, id, userID,
		).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotAuthorized
		}
		if err != nil {
			return fmt.Errorf("checking api key ownership: %w", err)
		}
		return nil
	}

	s.logger.Info("revoked api key", "id", id, "user_id", userID)
	return nil
}

// scanAPIKeys reads API key rows from a result set.
func (s *SQLiteStore) scanAPIKeys(rows *sql.Rows) ([]*APIKey, error) {
	var keys []*APIKey
	for rows.Next() {
		var key APIKey
		var createdAt string
		var lastUsedAt, revokedAt sql.NullString

		if err := rows.Scan(
			&key.ID,
			&key.UserID,
			&key.Name,
			&key.HashedKey,
			&createdAt,
			&lastUsedAt,
			&revokedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}

		key.CreatedAt = s.parseTime(createdAt, "created_at", key.ID)
		key.LastUsedAt = s.parseTimePtr(lastUsedAt, "last_used_at", key.ID)
		key.RevokedAt = s.parseTimePtr(revokedAt, "revoked_at", key.ID)

		keys = append(keys, &key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api key rows: %w", err)
	}
	return keys, nil
}
