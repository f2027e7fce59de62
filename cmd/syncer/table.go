package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"podcast_syncer/internal/domain"
	"podcast_syncer/internal/feed"
)

const titleWidth = 60

var episodeColumns = []table.ColumnConfig{
	{Name: "#", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	{Name: "Title"},
	{Name: "Published"},
	{Name: "Duration", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	{Name: "Status"},
}

// renderEpisodeTable lists records in the given order with a status footer.
func renderEpisodeTable(records []domain.EpisodeRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "Published", "Duration", "Status"})

	pending := 0
	for _, r := range records {
		status := "resolved"
		if !r.Resolved() {
			status = "pending"
			pending++
		}
		tw.AppendRow(table.Row{
			r.Number,
			truncate(r.Title, titleWidth),
			publishedDay(r.PublishDate),
			feed.FormatDuration(r.Duration),
			status,
		})
	}

	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d resolved, %d pending", len(records)-pending, pending)})
	tw.SetColumnConfigs(episodeColumns)
	return tw.Render()
}

func publishedDay(value string) string {
	if len(value) >= len("2006-01-02") {
		return value[:len("2006-01-02")]
	}
	return value
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
