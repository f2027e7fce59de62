package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

// Get returns when the show's snapshot was last written, or nil for a
// show that was never saved.
func (s *SyncStateStore) Get(ctx context.Context, showID string) (*time.Time, error) {
	var lastUpdated sql.NullTime
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &lastUpdated,
		"SELECT last_updated FROM sync_state WHERE show_id = $1",
		showID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !lastUpdated.Valid {
		return nil, nil
	}
	t := lastUpdated.Time.UTC()
	return &t, nil
}

func (s *SyncStateStore) Update(ctx context.Context, showID string, lastUpdated *time.Time) error {
	query := `
		INSERT INTO sync_state (show_id, last_updated)
		VALUES ($1, $2)
		ON CONFLICT (show_id) DO UPDATE SET
			last_updated = EXCLUDED.last_updated`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, showID, lastUpdated)
	return err
}
