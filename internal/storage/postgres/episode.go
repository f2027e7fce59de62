package postgres

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"podcast_syncer/internal/domain"
)

type episodeRow struct {
	Number      int      `db:"number"`
	Identifier  string   `db:"episode_id"`
	ArticleURL  string   `db:"article_url"`
	Title       string   `db:"title"`
	PublishDate string   `db:"publish_date"`
	Summary     string   `db:"summary"`
	StreamURL   string   `db:"stream_url"`
	Duration    *float64 `db:"duration"`
	Cover       string   `db:"cover"`
	Raw         []byte   `db:"raw_data"`
}

func (r episodeRow) record() domain.EpisodeRecord {
	rec := domain.EpisodeRecord{
		Number:      r.Number,
		Identifier:  r.Identifier,
		ArticleURL:  r.ArticleURL,
		Title:       r.Title,
		PublishDate: r.PublishDate,
		Summary:     r.Summary,
		StreamURL:   r.StreamURL,
		Duration:    r.Duration,
		Cover:       r.Cover,
	}
	if len(r.Raw) > 0 {
		rec.Raw = json.RawMessage(r.Raw)
	}
	return rec
}

type EpisodeStore struct {
	db *sqlx.DB
}

func NewEpisodeStore(db *sqlx.DB) *EpisodeStore {
	return &EpisodeStore{db: db}
}

func (s *EpisodeStore) ListByShow(ctx context.Context, showID string) ([]domain.EpisodeRecord, error) {
	query := `
		SELECT number, episode_id, article_url, title, publish_date, summary,
			stream_url, duration, cover, raw_data
		FROM episodes
		WHERE show_id = $1
		ORDER BY number DESC`

	var rows []episodeRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, showID); err != nil {
		return nil, err
	}

	records := make([]domain.EpisodeRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// Upsert writes rec whole, replacing every column of an existing row.
func (s *EpisodeStore) Upsert(ctx context.Context, showID string, rec domain.EpisodeRecord) error {
	query := `
		INSERT INTO episodes (
			show_id, number, episode_id, article_url, title, publish_date,
			summary, stream_url, duration, cover, raw_data, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW()
		)
		ON CONFLICT (show_id, number) DO UPDATE SET
			episode_id = EXCLUDED.episode_id,
			article_url = EXCLUDED.article_url,
			title = EXCLUDED.title,
			publish_date = EXCLUDED.publish_date,
			summary = EXCLUDED.summary,
			stream_url = EXCLUDED.stream_url,
			duration = EXCLUDED.duration,
			cover = EXCLUDED.cover,
			raw_data = EXCLUDED.raw_data,
			updated_at = NOW()`

	var raw any
	if len(rec.Raw) > 0 {
		raw = []byte(rec.Raw)
	}

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		showID,
		rec.Number,
		rec.Identifier,
		rec.ArticleURL,
		rec.Title,
		rec.PublishDate,
		rec.Summary,
		rec.StreamURL,
		rec.Duration,
		rec.Cover,
		raw,
	)
	return err
}

// DeleteExcept removes the show's episodes whose number is not in keep.
func (s *EpisodeStore) DeleteExcept(ctx context.Context, showID string, keep []int) error {
	nums := make([]int64, len(keep))
	for i, n := range keep {
		nums[i] = int64(n)
	}

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM episodes WHERE show_id = $1 AND NOT (number = ANY($2))",
		showID, pq.Array(nums),
	)
	return err
}
