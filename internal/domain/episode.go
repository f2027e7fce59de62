package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EpisodeRecord is the stored metadata of one published episode.
// Field names on the wire follow the historical store file.
type EpisodeRecord struct {
	Number      int             `json:"-"`
	Identifier  string          `json:"episode_id,omitempty"`
	ArticleURL  string          `json:"article_url,omitempty"`
	Title       string          `json:"title,omitempty"`
	PublishDate string          `json:"publish_date,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	StreamURL   string          `json:"stream_url,omitempty"`
	Duration    *float64        `json:"duration,omitempty"`
	Cover       string          `json:"cover,omitempty"`
	Raw         json.RawMessage `json:"raw_data,omitempty"`
}

// UnmarshalJSON accepts duration as a number or a numeric string. A
// duration that is neither decodes as nil and keeps the rest of the record.
func (r *EpisodeRecord) UnmarshalJSON(data []byte) error {
	type plain EpisodeRecord
	aux := struct {
		*plain
		Duration json.RawMessage `json:"duration"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Duration = ParseSeconds(aux.Duration)
	return nil
}

// ParseSeconds reads a JSON number or numeric string. Null, empty and
// unparseable values yield nil.
func ParseSeconds(raw json.RawMessage) *float64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// Resolved reports whether the record carries enough metadata to be published.
func (r EpisodeRecord) Resolved() bool {
	return r.Title != ""
}

// Link is an article URL discovered on a show index page.
type Link struct {
	Number int
	URL    string
}

// Snapshot is the persisted state of one show: episodes by number, the
// newest-first article link log and the time of the last write.
type Snapshot struct {
	Episodes    map[int]EpisodeRecord
	Links       []string
	LastUpdated *time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Episodes: make(map[int]EpisodeRecord),
		Links:    []string{},
	}
}

// Head returns the most recently persisted link.
func (s *Snapshot) Head() (string, bool) {
	if len(s.Links) == 0 {
		return "", false
	}
	return s.Links[0], true
}

// Merge stores record under its number, replacing any existing record whole.
func (s *Snapshot) Merge(record EpisodeRecord) {
	if s.Episodes == nil {
		s.Episodes = make(map[int]EpisodeRecord)
	}
	s.Episodes[record.Number] = record
}

// PrependLinks puts urls in front of the link log, keeping their order.
// URLs already in the log are skipped. It returns how many were added.
func (s *Snapshot) PrependLinks(urls []string) int {
	known := make(map[string]struct{}, len(s.Links))
	for _, u := range s.Links {
		known[u] = struct{}{}
	}

	fresh := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := known[u]; ok {
			continue
		}
		known[u] = struct{}{}
		fresh = append(fresh, u)
	}
	if len(fresh) == 0 {
		return 0
	}

	s.Links = append(fresh, s.Links...)
	return len(fresh)
}

// Resolved returns the resolved records ordered by descending episode number.
func (s *Snapshot) Resolved() []EpisodeRecord {
	records := make([]EpisodeRecord, 0, len(s.Episodes))
	for _, r := range s.Episodes {
		if r.Resolved() {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Number > records[j].Number
	})
	return records
}

// Numbers returns every stored episode number in descending order.
func (s *Snapshot) Numbers() []int {
	nums := make([]int, 0, len(s.Episodes))
	for n := range s.Episodes {
		nums = append(nums, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(nums)))
	return nums
}

// Channel is the show-level metadata written into generated feeds.
type Channel struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Link        string `yaml:"link"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
	Category    string `yaml:"category"`
	Explicit    bool   `yaml:"explicit"`
	Type        string `yaml:"type"`
	Image       string `yaml:"image"`
}
