package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"podcast_syncer/internal/domain"
)

// PageFetcher returns the rendered HTML of a page once waitSelector matches.
type PageFetcher interface {
	Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
}

type EpisodeResolver interface {
	Resolve(ctx context.Context, link domain.Link) (domain.EpisodeRecord, error)
}

type SnapshotStore interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}

type FeedWriter interface {
	Write(ctx context.Context, snap *domain.Snapshot) error
}

type Publisher interface {
	Publish(ctx context.Context, showID string, rec *domain.EpisodeRecord) error
	Close() error
}
