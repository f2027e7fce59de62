package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"podcast_syncer/internal/discovery"
	"podcast_syncer/internal/domain"
	"podcast_syncer/internal/resolver"
)

type Options struct {
	ShowID        string
	IndexURL      string
	WaitSelector  string
	RenderTimeout time.Duration
	Rules         discovery.Rules
}

// SyncService runs one incremental pass for a single show: discover links
// on the index page, resolve the ones newer than the stored head, persist
// and regenerate the feed.
type SyncService struct {
	pages     PageFetcher
	resolver  EpisodeResolver
	store     SnapshotStore
	feed      FeedWriter
	publisher Publisher
	logger    *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewSyncService(
	pages PageFetcher,
	resolver EpisodeResolver,
	store SnapshotStore,
	feed FeedWriter,
	publisher Publisher,
	logger *slog.Logger,
	opts Options,
) *SyncService {
	return &SyncService{
		pages:     pages,
		resolver:  resolver,
		store:     store,
		feed:      feed,
		publisher: publisher,
		logger:    logger.With("show", opts.ShowID),
		opts:      opts,
		now:       time.Now,
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := s.now()
	s.logger.Info("starting sync",
		"index_url", s.opts.IndexURL,
		"min_episode", s.opts.Rules.MinEpisode,
	)

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	html, err := s.pages.Fetch(ctx, s.opts.IndexURL, s.opts.WaitSelector, s.opts.RenderTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	links, err := discovery.Discover(html, s.opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("discover links: %w", err)
	}
	if len(links) == 0 {
		s.logger.Warn("no episode links found on index page")
	}

	head, _ := snap.Head()
	fresh := discovery.Diff(links, head)

	s.logger.Info("links discovered",
		"discovered", len(links),
		"new", len(fresh),
		"stored_episodes", len(snap.Episodes),
	)

	stats := &domain.SyncStats{
		ShowID:     s.opts.ShowID,
		Discovered: len(links),
		New:        len(fresh),
	}

	dirty := false
	for _, link := range fresh {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("sync interrupted: %w", err)
		}

		rec, err := s.resolver.Resolve(ctx, link)
		if err != nil {
			if ctx.Err() != nil {
				return stats, fmt.Errorf("sync interrupted: %w", ctx.Err())
			}
			stats.Failed++
			s.logger.Warn("failed to resolve episode",
				"episode", link.Number,
				"url", link.URL,
				"error", err,
			)
			if s.recordFailure(snap, link, err) {
				dirty = true
			}
			continue
		}

		snap.Merge(rec)
		stats.Resolved++
		if err := s.checkpoint(ctx, snap); err != nil {
			return stats, err
		}
		dirty = false

		s.logger.Info("episode resolved", "episode", rec.Number, "title", rec.Title)

		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, s.opts.ShowID, &rec); err != nil {
				s.logger.Warn("failed to publish episode", "episode", rec.Number, "error", err)
			} else {
				stats.Published++
			}
		}
	}

	if snap.PrependLinks(discovery.URLs(fresh)) > 0 {
		dirty = true
	}
	if dirty {
		if err := s.checkpoint(ctx, snap); err != nil {
			return stats, err
		}
	}

	if err := s.feed.Write(ctx, snap); err != nil {
		return stats, fmt.Errorf("write feed: %w", err)
	}

	stats.Duration = s.now().Sub(startTime)

	s.logger.Info("sync completed",
		"discovered", stats.Discovered,
		"new", stats.New,
		"resolved", stats.Resolved,
		"failed", stats.Failed,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// RegenerateFeed rewrites the feed from the stored snapshot without
// touching the network.
func (s *SyncService) RegenerateFeed(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := s.feed.Write(ctx, snap); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

// recordFailure keeps a stub for an episode seen for the first time so the
// link and any captured identifier survive. Existing records are left alone.
func (s *SyncService) recordFailure(snap *domain.Snapshot, link domain.Link, err error) bool {
	if _, ok := snap.Episodes[link.Number]; ok {
		return false
	}

	stub := domain.EpisodeRecord{Number: link.Number, ArticleURL: link.URL}
	var resErr *resolver.Error
	if errors.As(err, &resErr) {
		stub.Identifier = resErr.Identifier
	}
	snap.Merge(stub)
	return true
}

func (s *SyncService) checkpoint(ctx context.Context, snap *domain.Snapshot) error {
	stamp := s.now().UTC()
	snap.LastUpdated = &stamp
	if err := s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
