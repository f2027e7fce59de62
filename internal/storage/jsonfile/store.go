// Package jsonfile persists a show snapshot as a single JSON document.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"podcast_syncer/internal/domain"
	"podcast_syncer/internal/fileutil"
)

// timestamps written by older tooling carry no zone
var lastUpdatedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

type Store struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With("store", path),
	}
}

func (s *Store) Path() string {
	return s.path
}

type rawDocument struct {
	Episodes    json.RawMessage `json:"episodes"`
	Links       json.RawMessage `json:"links"`
	LastUpdated json.RawMessage `json:"last_updated"`
}

type document struct {
	Episodes    map[string]domain.EpisodeRecord `json:"episodes"`
	Links       []string                        `json:"links"`
	LastUpdated *string                         `json:"last_updated"`
}

// Load reads the snapshot. A missing file is a first run. A document or
// section with an unexpected shape is replaced by its empty default and
// logged; only I/O errors are returned.
func (s *Store) Load(_ context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("store not found, starting empty")
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return snap, nil
	}

	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("store is not a JSON object, starting empty", "error", err)
		return snap, nil
	}

	snap.Episodes = s.decodeEpisodes(raw.Episodes)
	snap.Links = s.decodeLinks(raw.Links)
	snap.LastUpdated = s.decodeLastUpdated(raw.LastUpdated)

	return snap, nil
}

func (s *Store) decodeEpisodes(raw json.RawMessage) map[int]domain.EpisodeRecord {
	episodes := make(map[int]domain.EpisodeRecord)
	if isNull(raw) {
		return episodes
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		s.logger.Warn("episodes collection malformed, using empty", "error", err)
		return episodes
	}

	for key, value := range entries {
		number, err := strconv.Atoi(key)
		if err != nil || number < 1 {
			s.logger.Warn("skipping episode with invalid number", "key", key)
			continue
		}
		var record domain.EpisodeRecord
		if err := json.Unmarshal(value, &record); err != nil {
			s.logger.Warn("skipping malformed episode", "episode", number, "error", err)
			continue
		}
		record.Number = number
		episodes[number] = record
	}
	return episodes
}

func (s *Store) decodeLinks(raw json.RawMessage) []string {
	links := []string{}
	if isNull(raw) {
		return links
	}
	if err := json.Unmarshal(raw, &links); err != nil {
		s.logger.Warn("link list malformed, using empty", "error", err)
		return []string{}
	}
	return links
}

func (s *Store) decodeLastUpdated(raw json.RawMessage) *time.Time {
	if isNull(raw) {
		return nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn("last_updated malformed, ignoring", "error", err)
		return nil
	}
	for _, layout := range lastUpdatedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	s.logger.Warn("last_updated unparseable, ignoring", "value", value)
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Save atomically replaces the store file with snap.
func (s *Store) Save(_ context.Context, snap *domain.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	s.logger.Debug("store saved", "episodes", len(snap.Episodes), "links", len(snap.Links))
	return nil
}

// Encode renders snap in the store file format. The output depends only on
// the snapshot contents.
func Encode(snap *domain.Snapshot) ([]byte, error) {
	doc := document{
		Episodes: make(map[string]domain.EpisodeRecord, len(snap.Episodes)),
		Links:    snap.Links,
	}
	if doc.Links == nil {
		doc.Links = []string{}
	}
	for number, record := range snap.Episodes {
		doc.Episodes[strconv.Itoa(number)] = record
	}
	if snap.LastUpdated != nil {
		stamp := snap.LastUpdated.UTC().Format(time.RFC3339)
		doc.LastUpdated = &stamp
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal store: %w", err)
	}
	return append(data, '\n'), nil
}
