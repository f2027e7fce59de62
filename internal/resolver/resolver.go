// Package resolver turns an episode article link into a metadata record by
// capturing the backing API identifier the article page requests and then
// fetching that resource directly.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"podcast_syncer/internal/domain"
)

var ErrNoIdentifier = errors.New("no identifier captured")

type Stage string

const (
	StageCapture  Stage = "capture"
	StageMetadata Stage = "metadata"
)

// Error is a per-episode resolution failure. Identifier is set when the
// capture succeeded and the metadata fetch did not.
type Error struct {
	Stage      Stage
	Link       domain.Link
	Identifier string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("resolve episode %d (%s): %s: %v", e.Link.Number, e.Link.URL, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Observer interface {
	Observe(ctx context.Context, pageURL string, pattern *regexp.Regexp, timeout time.Duration) (string, bool, error)
}

type MetadataClient interface {
	GetEpisode(ctx context.Context, resourceURL string) (domain.EpisodeRecord, error)
}

type Config struct {
	// APIPattern matches the article page's request for its episode
	// resource. The identifier is the group named "id", or the first group.
	APIPattern *regexp.Regexp
	// MetadataURL is the resource URL template. {id} and any other
	// {name} of a named group in APIPattern are substituted.
	MetadataURL    string
	CaptureTimeout time.Duration
}

type Resolver struct {
	observer Observer
	client   MetadataClient
	cfg      Config
	logger   *slog.Logger
}

func New(observer Observer, client MetadataClient, cfg Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		observer: observer,
		client:   client,
		cfg:      cfg,
		logger:   logger,
	}
}

// Resolve captures the identifier for link and fetches its record.
func (r *Resolver) Resolve(ctx context.Context, link domain.Link) (domain.EpisodeRecord, error) {
	captured, found, err := r.observer.Observe(ctx, link.URL, r.cfg.APIPattern, r.cfg.CaptureTimeout)
	if err != nil {
		return domain.EpisodeRecord{}, &Error{Stage: StageCapture, Link: link, Err: err}
	}
	if !found {
		return domain.EpisodeRecord{}, &Error{Stage: StageCapture, Link: link, Err: ErrNoIdentifier}
	}

	id, resourceURL, ok := r.resourceFor(captured)
	if !ok {
		return domain.EpisodeRecord{}, &Error{Stage: StageCapture, Link: link, Err: ErrNoIdentifier}
	}

	r.logger.Debug("identifier captured", "episode", link.Number, "identifier", id)

	record, err := r.client.GetEpisode(ctx, resourceURL)
	if err != nil {
		return domain.EpisodeRecord{}, &Error{Stage: StageMetadata, Link: link, Identifier: id, Err: err}
	}

	record.Number = link.Number
	record.Identifier = id
	record.ArticleURL = link.URL
	return record, nil
}

func (r *Resolver) resourceFor(captured string) (string, string, bool) {
	re := r.cfg.APIPattern
	m := re.FindStringSubmatch(captured)
	if m == nil {
		return "", "", false
	}

	idx := re.SubexpIndex("id")
	if idx < 0 {
		idx = 1
	}
	if idx >= len(m) || m[idx] == "" {
		return "", "", false
	}
	id := m[idx]

	pairs := []string{"{id}", id}
	for i, name := range re.SubexpNames() {
		if name != "" && name != "id" {
			pairs = append(pairs, "{"+name+"}", m[i])
		}
	}
	return id, strings.NewReplacer(pairs...).Replace(r.cfg.MetadataURL), true
}
