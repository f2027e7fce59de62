package export

import (
	"fmt"

	"github.com/gilliek/go-opml/opml"

	"podcast_syncer/internal/domain"
)

// OPML lists each resolved episode as an audio outline pointing at its
// stream, newest first.
func OPML(snap *domain.Snapshot, ch domain.Channel) ([]byte, error) {
	records := snap.Resolved()

	doc := opml.OPML{
		Version: "2.0",
		Head:    opml.Head{Title: ch.Title + " Episodes"},
		Body:    opml.Body{Outlines: make([]opml.Outline, 0, len(records))},
	}
	for _, r := range records {
		doc.Body.Outlines = append(doc.Body.Outlines, opml.Outline{
			Text:    r.Title,
			Title:   r.Title,
			Type:    "audio",
			XMLURL:  r.StreamURL,
			HTMLURL: r.ArticleURL,
		})
	}

	out, err := doc.XML()
	if err != nil {
		return nil, fmt.Errorf("marshal opml: %w", err)
	}
	return []byte(out + "\n"), nil
}
