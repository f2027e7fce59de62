// Package feed renders a show snapshot as an RSS 2.0 podcast feed with
// itunes and content extensions.
package feed

import (
	"encoding/xml"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"podcast_syncer/internal/domain"
)

const (
	itunesNS  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	contentNS = "http://purl.org/rss/1.0/modules/content/"

	audioType = "audio/mpeg"
)

var strictPolicy = bluemonday.StrictPolicy()

type rssDocument struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	ItunesNS  string     `xml:"xmlns:itunes,attr"`
	ContentNS string     `xml:"xmlns:content,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string          `xml:"title"`
	Description   string          `xml:"description"`
	Link          string          `xml:"link"`
	Language      string          `xml:"language"`
	LastBuildDate string          `xml:"lastBuildDate,omitempty"`
	Image         *rssImage       `xml:"image,omitempty"`
	Author        string          `xml:"itunes:author,omitempty"`
	Summary       string          `xml:"itunes:summary,omitempty"`
	ItunesImage   *itunesImage    `xml:"itunes:image,omitempty"`
	Category      *itunesCategory `xml:"itunes:category,omitempty"`
	Explicit      string          `xml:"itunes:explicit"`
	Type          string          `xml:"itunes:type,omitempty"`
	Items         []rssItem       `xml:"item"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

type itunesImage struct {
	Href string `xml:"href,attr"`
}

type itunesCategory struct {
	Text string `xml:"text,attr"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	Link        string        `xml:"link"`
	GUID        *rssGUID      `xml:"guid,omitempty"`
	PubDate     string        `xml:"pubDate,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	Summary     string        `xml:"itunes:summary,omitempty"`
	Episode     int           `xml:"itunes:episode"`
	EpisodeType string        `xml:"itunes:episodeType"`
	Duration    string        `xml:"itunes:duration"`
	Image       *itunesImage  `xml:"itunes:image,omitempty"`
	Content     *cdata        `xml:"content:encoded,omitempty"`
}

type rssGUID struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int64  `xml:"length,attr"`
}

type cdata struct {
	Text string `xml:",cdata"`
}

// Render builds the feed for the resolved episodes of snap, newest first.
// The output depends only on snap and ch.
func Render(snap *domain.Snapshot, ch domain.Channel) ([]byte, error) {
	doc := rssDocument{
		Version:   "2.0",
		ItunesNS:  itunesNS,
		ContentNS: contentNS,
		Channel:   channelFor(ch),
	}
	if snap.LastUpdated != nil {
		doc.Channel.LastBuildDate = snap.LastUpdated.UTC().Format(time.RFC1123Z)
	}

	records := snap.Resolved()
	doc.Channel.Items = make([]rssItem, 0, len(records))
	for _, r := range records {
		doc.Channel.Items = append(doc.Channel.Items, itemFor(r, ch))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal feed: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	return append(out, '\n'), nil
}

func channelFor(ch domain.Channel) rssChannel {
	c := rssChannel{
		Title:       ch.Title,
		Description: ch.Description,
		Link:        ch.Link,
		Language:    ch.Language,
		Author:      ch.Author,
		Summary:     ch.Description,
		Explicit:    fmt.Sprintf("%t", ch.Explicit),
		Type:        ch.Type,
	}
	if ch.Image != "" {
		c.Image = &rssImage{URL: ch.Image, Title: ch.Title, Link: ch.Link}
		c.ItunesImage = &itunesImage{Href: ch.Image}
	}
	if ch.Category != "" {
		c.Category = &itunesCategory{Text: ch.Category}
	}
	return c
}

func itemFor(r domain.EpisodeRecord, ch domain.Channel) rssItem {
	plain := StripMarkup(r.Summary)

	it := rssItem{
		Title:       r.Title,
		Description: plain,
		Link:        firstNonEmpty(r.ArticleURL, ch.Link),
		PubDate:     pubDate(r.PublishDate),
		Summary:     plain,
		Episode:     r.Number,
		EpisodeType: "full",
		Duration:    FormatDuration(r.Duration),
	}
	if r.Identifier != "" {
		it.GUID = &rssGUID{IsPermaLink: "false", Value: r.Identifier}
	}
	if r.StreamURL != "" {
		it.Enclosure = &rssEnclosure{URL: r.StreamURL, Type: audioType, Length: enclosureLength(r.Duration)}
	}
	if image := firstNonEmpty(r.Cover, ch.Image); image != "" {
		it.Image = &itunesImage{Href: image}
	}
	if r.Summary != "" {
		it.Content = &cdata{Text: r.Summary}
	}
	return it
}

// StripMarkup returns the text content of an HTML fragment.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// maxSeconds caps durations so the integer conversions below stay in range.
const maxSeconds = 10 * 365 * 24 * 3600

// publish dates without a zone are read as UTC
var pubDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func clampSeconds(seconds *float64) float64 {
	if seconds == nil || !(*seconds > 0) {
		return 0
	}
	return math.Min(*seconds, maxSeconds)
}

// FormatDuration renders seconds as HH:MM:SS. Missing or negative values
// render as 00:00:00.
func FormatDuration(seconds *float64) string {
	total := int(clampSeconds(seconds))
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total%3600/60, total%60)
}

// enclosureLength estimates the byte size from the duration, as the
// publisher exposes no content length.
func enclosureLength(seconds *float64) int64 {
	return int64(clampSeconds(seconds) * 1024)
}

func pubDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.RFC1123Z)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
