package feed

import (
	"context"
	"fmt"
	"log/slog"

	"podcast_syncer/internal/domain"
	"podcast_syncer/internal/fileutil"
)

// Writer renders a snapshot and atomically replaces the feed file.
type Writer struct {
	path    string
	channel domain.Channel
	logger  *slog.Logger
}

func NewWriter(path string, channel domain.Channel, logger *slog.Logger) *Writer {
	return &Writer{
		path:    path,
		channel: channel,
		logger:  logger.With("feed", path),
	}
}

func (w *Writer) Write(_ context.Context, snap *domain.Snapshot) error {
	data, err := Render(snap, w.channel)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}

	items := len(snap.Resolved())
	if items == 0 {
		w.logger.Info("feed written without episodes")
	} else {
		w.logger.Info("feed written", "items", items)
	}
	return nil
}
