package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podcast_syncer/internal/domain"
)

type fakeObserver struct {
	captured string
	found    bool
	err      error

	gotURL     string
	gotTimeout time.Duration
}

func (f *fakeObserver) Observe(_ context.Context, pageURL string, _ *regexp.Regexp, timeout time.Duration) (string, bool, error) {
	f.gotURL = pageURL
	f.gotTimeout = timeout
	return f.captured, f.found, f.err
}

type fakeClient struct {
	record domain.EpisodeRecord
	err    error
	gotURL string
	calls  int
}

func (f *fakeClient) GetEpisode(_ context.Context, resourceURL string) (domain.EpisodeRecord, error) {
	f.calls++
	f.gotURL = resourceURL
	return f.record, f.err
}

var link = domain.Link{Number: 544, URL: "https://www.newslaundry.com/podcast/hafta-544"}

func newResolver(obs Observer, client MetadataClient, pattern, tmpl string) *Resolver {
	return New(obs, client, Config{
		APIPattern:     regexp.MustCompile(pattern),
		MetadataURL:    tmpl,
		CaptureTimeout: 7 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolve(t *testing.T) {
	obs := &fakeObserver{
		captured: "https://www.newslaundry.com/acast-rest/shows/5ec3/episodes/6868c1f4?x=1",
		found:    true,
	}
	client := &fakeClient{record: domain.EpisodeRecord{Title: "Hafta 544", Number: 99}}

	r := newResolver(obs, client,
		`/acast-rest/shows/5ec3/episodes/([a-z0-9]+)`,
		"https://api.example.com/shows/5ec3/episodes/{id}",
	)

	rec, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)

	assert.Equal(t, link.URL, obs.gotURL)
	assert.Equal(t, 7*time.Second, obs.gotTimeout)
	assert.Equal(t, "https://api.example.com/shows/5ec3/episodes/6868c1f4", client.gotURL)
	assert.Equal(t, 544, rec.Number)
	assert.Equal(t, "6868c1f4", rec.Identifier)
	assert.Equal(t, link.URL, rec.ArticleURL)
	assert.Equal(t, "Hafta 544", rec.Title)
}

func TestResolve_NamedGroups(t *testing.T) {
	obs := &fakeObserver{captured: "https://nl.example/acast-rest/shows/abc123/episodes/ep42", found: true}
	client := &fakeClient{record: domain.EpisodeRecord{Title: "t"}}

	r := newResolver(obs, client,
		`/acast-rest/shows/(?P<show>[a-z0-9]+)/episodes/(?P<id>[a-z0-9]+)`,
		"https://nl.example/acast-rest/shows/{show}/episodes/{id}",
	)

	rec, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, "ep42", rec.Identifier)
	assert.Equal(t, "https://nl.example/acast-rest/shows/abc123/episodes/ep42", client.gotURL)
}

func TestResolve_NothingCaptured(t *testing.T) {
	client := &fakeClient{}
	r := newResolver(&fakeObserver{found: false}, client, `/episodes/([a-z0-9]+)`, "{id}")

	_, err := r.Resolve(context.Background(), link)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoIdentifier))
	var resErr *Error
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, StageCapture, resErr.Stage)
	assert.Empty(t, resErr.Identifier)
	assert.Zero(t, client.calls)
}

func TestResolve_ObserverError(t *testing.T) {
	r := newResolver(&fakeObserver{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}, &fakeClient{}, `/episodes/([a-z0-9]+)`, "{id}")

	_, err := r.Resolve(context.Background(), link)

	var resErr *Error
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, StageCapture, resErr.Stage)
	assert.Contains(t, err.Error(), "hafta-544")
}

func TestResolve_MetadataFailureKeepsIdentifier(t *testing.T) {
	obs := &fakeObserver{captured: "https://x/episodes/abc", found: true}
	client := &fakeClient{err: errors.New("unexpected status: 500")}
	r := newResolver(obs, client, `/episodes/([a-z0-9]+)`, "https://x/api/{id}")

	_, err := r.Resolve(context.Background(), link)

	var resErr *Error
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, StageMetadata, resErr.Stage)
	assert.Equal(t, "abc", resErr.Identifier)
	assert.Equal(t, link, resErr.Link)
}
