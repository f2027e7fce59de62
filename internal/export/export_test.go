package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gilliek/go-opml/opml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"podcast_syncer/internal/domain"
)

func ptr[T any](v T) *T { return &v }

var channel = domain.Channel{Title: "Newslaundry Hafta"}

func fixture() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Merge(domain.EpisodeRecord{
		Number:      544,
		Title:       `Hafta 544: "Voter rolls"`,
		ArticleURL:  "https://www.newslaundry.com/podcast/hafta-544",
		PublishDate: "2025-07-05T08:00:00.000Z",
		Summary:     "<p>weekly</p>",
		StreamURL:   "https://sphinx.acast.com/544.mp3",
		Duration:    ptr(3725.0),
		Cover:       "https://assets.example.com/544.jpg",
	})
	snap.Merge(domain.EpisodeRecord{Number: 543, Title: "Hafta 543", StreamURL: "https://sphinx.acast.com/543.mp3"})
	snap.Merge(domain.EpisodeRecord{Number: 545, Identifier: "pending"})
	return snap
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" OPML ")
	require.NoError(t, err)
	assert.Equal(t, FormatOPML, f)
	assert.Equal(t, ".opml", f.Extension())

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("csv")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestOPML(t *testing.T) {
	data, err := Render(FormatOPML, fixture(), channel)
	require.NoError(t, err)

	doc, err := opml.NewOPML(data)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, "Newslaundry Hafta Episodes", doc.Head.Title)

	outlines := doc.Body.Outlines
	require.Len(t, outlines, 2)
	assert.Equal(t, `Hafta 544: "Voter rolls"`, outlines[0].Text)
	assert.Equal(t, "audio", outlines[0].Type)
	assert.Equal(t, "https://sphinx.acast.com/544.mp3", outlines[0].XMLURL)
	assert.Equal(t, "https://www.newslaundry.com/podcast/hafta-544", outlines[0].HTMLURL)
	assert.Equal(t, "Hafta 543", outlines[1].Text)
}

func TestOPML_Empty(t *testing.T) {
	data, err := OPML(domain.NewSnapshot(), channel)
	require.NoError(t, err)

	doc, err := opml.NewOPML(data)
	require.NoError(t, err)
	assert.Empty(t, doc.Body.Outlines)
}

func TestXLSX(t *testing.T) {
	data, err := Render(FormatXLSX, fixture(), channel)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"episode", "title", "publish_date", "summary", "stream_url", "duration", "cover"}, rows[0])
	assert.Equal(t, []string{
		"544",
		`Hafta 544: "Voter rolls"`,
		"2025-07-05T08:00:00.000Z",
		"<p>weekly</p>",
		"https://sphinx.acast.com/544.mp3",
		"3725",
		"https://assets.example.com/544.jpg",
	}, rows[1])
	assert.Equal(t, "543", rows[2][0])
	assert.Equal(t, "Hafta 543", rows[2][1])
}
