package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// LinkStore keeps the ordered article link log of each show. Position 0
// is the newest link.
type LinkStore struct {
	db *sqlx.DB
}

func NewLinkStore(db *sqlx.DB) *LinkStore {
	return &LinkStore{db: db}
}

func (s *LinkStore) ListByShow(ctx context.Context, showID string) ([]string, error) {
	var links []string
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &links,
		"SELECT url FROM episode_links WHERE show_id = $1 ORDER BY position",
		showID,
	)
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *LinkStore) Replace(ctx context.Context, showID string, links []string) error {
	exec := GetExecutor(ctx, s.db)

	if _, err := exec.ExecContext(ctx, "DELETE FROM episode_links WHERE show_id = $1", showID); err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	query := `
		INSERT INTO episode_links (show_id, position, url)
		SELECT $1, t.ord - 1, t.url
		FROM unnest($2::text[]) WITH ORDINALITY AS t(url, ord)`

	_, err := exec.ExecContext(ctx, query, showID, pq.Array(links))
	return err
}
