package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"podcast_syncer/internal/domain"
)

// SnapshotStore persists one show's snapshot across the episodes,
// episode_links and sync_state tables. Save replaces all three in a single
// transaction.
type SnapshotStore struct {
	showID   string
	tx       *TransactionManager
	episodes *EpisodeStore
	links    *LinkStore
	state    *SyncStateStore
	logger   *slog.Logger
}

func NewSnapshotStore(db *sqlx.DB, showID string, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		showID:   showID,
		tx:       NewTransactionManager(db),
		episodes: NewEpisodeStore(db),
		links:    NewLinkStore(db),
		state:    NewSyncStateStore(db),
		logger:   logger.With("store", "postgres"),
	}
}

func (s *SnapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		records, err := s.episodes.ListByShow(ctx, s.showID)
		if err != nil {
			return fmt.Errorf("list episodes: %w", err)
		}
		for _, r := range records {
			snap.Merge(r)
		}

		links, err := s.links.ListByShow(ctx, s.showID)
		if err != nil {
			return fmt.Errorf("list links: %w", err)
		}
		if links != nil {
			snap.Links = links
		}

		snap.LastUpdated, err = s.state.Get(ctx, s.showID)
		if err != nil {
			return fmt.Errorf("get sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	s.logger.Debug("snapshot loaded", "episodes", len(snap.Episodes), "links", len(snap.Links))
	return snap, nil
}

func (s *SnapshotStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, n := range snap.Numbers() {
			rec := snap.Episodes[n]
			rec.Number = n
			if err := s.episodes.Upsert(ctx, s.showID, rec); err != nil {
				return fmt.Errorf("upsert episode %d: %w", n, err)
			}
		}
		if err := s.episodes.DeleteExcept(ctx, s.showID, snap.Numbers()); err != nil {
			return fmt.Errorf("prune episodes: %w", err)
		}
		if err := s.links.Replace(ctx, s.showID, snap.Links); err != nil {
			return fmt.Errorf("replace links: %w", err)
		}
		if err := s.state.Update(ctx, s.showID, snap.LastUpdated); err != nil {
			return fmt.Errorf("update sync state: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
