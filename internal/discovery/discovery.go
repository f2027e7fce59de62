// Package discovery finds episode article links on a show index page and
// works out which of them are new since the last sync.
package discovery

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"podcast_syncer/internal/domain"
)

// Rules controls how links are extracted from an index page.
type Rules struct {
	BaseURL        string
	ItemSelector   string
	EpisodePattern *regexp.Regexp
	MinEpisode     int
}

// Discover returns the episode links found in html, newest first.
// A page without matching items yields an empty result and no error.
func Discover(html string, rules Rules) ([]domain.Link, error) {
	if rules.EpisodePattern == nil {
		return nil, fmt.Errorf("discover: episode pattern is required")
	}

	base, err := url.Parse(rules.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	selector := rules.ItemSelector
	if selector == "" {
		selector = "article"
	}

	seen := make(map[domain.Link]struct{})
	var links []domain.Link

	doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)

		number, ok := episodeNumber(rules.EpisodePattern, href)
		if !ok || number < rules.MinEpisode {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}

		link := domain.Link{Number: number, URL: base.ResolveReference(ref).String()}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	sort.Slice(links, func(i, j int) bool {
		if links[i].Number != links[j].Number {
			return links[i].Number > links[j].Number
		}
		return links[i].URL < links[j].URL
	})

	return links, nil
}

func episodeNumber(pattern *regexp.Regexp, href string) (int, bool) {
	m := pattern.FindStringSubmatch(href)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Diff returns the prefix of discovered that precedes head. When head is
// empty or no longer on the page, every discovered link is new.
func Diff(discovered []domain.Link, head string) []domain.Link {
	if head == "" {
		return discovered
	}
	for i, link := range discovered {
		if link.URL == head {
			return discovered[:i]
		}
	}
	return discovered
}

// URLs returns the URL of each link, preserving order.
func URLs(links []domain.Link) []string {
	urls := make([]string, len(links))
	for i, l := range links {
		urls[i] = l.URL
	}
	return urls
}
