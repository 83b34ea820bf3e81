package matrix

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store defines the interface for durable matrix persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Store interface {
	// Load reads the persisted snapshot. An empty database yields an
	// empty snapshot, not an error.
	Load(ctx context.Context) (Snapshot, error)

	// Save persists a snapshot, replacing any previous state atomically.
	Save(ctx context.Context, snap Snapshot) error
}

// SQLiteStore implements Store using the feature_flags table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed matrix store.
// The db parameter should be an open SQLite connection with migrations applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Load reads all enabled pairs from the feature_flags table.
func (s *SQLiteStore) Load(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT device_id, feature_id FROM feature_flags WHERE enabled = 1",
	)
	if err != nil {
		return nil, fmt.Errorf("querying feature flags: %w", err)
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var deviceID, featureID string
		if err := rows.Scan(&deviceID, &featureID); err != nil {
			return nil, fmt.Errorf("scanning feature flag row: %w", err)
		}
		if snap[deviceID] == nil {
			snap[deviceID] = make(map[string]bool)
		}
		snap[deviceID][featureID] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feature flags: %w", err)
	}
	return snap, nil
}

// Save replaces the persisted state with the given snapshot in a single
// transaction, so a crash mid-save never leaves a partial matrix.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM feature_flags"); err != nil {
		return fmt.Errorf("clearing feature flags: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for deviceID, features := range snap {
		for featureID, enabled := range features {
			if !enabled {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO feature_flags (device_id, feature_id, enabled, updated_at) VALUES (?, ?, 1, ?)",
				deviceID, featureID, now,
			); err != nil {
				return fmt.Errorf("inserting feature flag (%s, %s): %w", deviceID, featureID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing feature flags: %w", err)
	}
	return nil
}
