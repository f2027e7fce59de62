//go:build integration

package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"podcast_syncer/internal/discovery"
)

const episodesPath = "/acast-rest/shows/5ec3d9497cef7479d2ef4798/episodes/"

// pages served by the fixture server, keyed by path
var fixturePages = map[string]string{
	"/late-match": `<html><body><p>episode</p><script>
		setTimeout(function () {
			fetch("/static/app.js");
			fetch("` + episodesPath + `late1").then(function () {
				fetch("` + episodesPath + `later2");
			});
		}, 300);
	</script></body></html>`,
	"/no-match": `<html><body><script>
		fetch("/static/app.js");
		fetch("/api/other/episodes");
	</script></body></html>`,
	"/index": `<html><body><main id="list"></main><script>
		setTimeout(function () {
			document.getElementById("list").innerHTML =
				'<article><a href="/podcast/hafta-544-latest">Hafta 544</a></article>';
		}, 200);
	</script></body></html>`,
	"/redesigned": `<html><body><div class="card"><a href="/podcast/hafta-544-latest">Hafta 544</a></div></body></html>`,
}

type BrowserIntegrationSuite struct {
	suite.Suite
	ctx     context.Context
	server  *httptest.Server
	browser *Browser
	logger  *slog.Logger
}

func chromeBinary() string {
	if path := os.Getenv("CHROME_PATH"); path != "" {
		return path
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func (s *BrowserIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	execPath := chromeBinary()
	if execPath == "" {
		s.T().Skip("no chrome binary found")
	}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, episodesPath) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{}`)
			return
		}
		page, ok := fixturePages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	}))

	b, err := New(s.ctx, Config{ExecPath: execPath, Headless: true, NoSandbox: os.Geteuid() == 0}, s.logger)
	s.Require().NoError(err)
	s.browser = b
}

func (s *BrowserIntegrationSuite) TearDownSuite() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.server != nil {
		s.server.Close()
	}
}

func TestBrowserIntegrationSuite(t *testing.T) {
	suite.Run(t, new(BrowserIntegrationSuite))
}

func (s *BrowserIntegrationSuite) TestObserve_MatchAfterLoadWins() {
	url, found, err := s.browser.Observe(s.ctx, s.server.URL+"/late-match", apiPattern, 10*time.Second)

	s.Require().NoError(err)
	s.Require().True(found)
	s.True(strings.HasSuffix(url, episodesPath+"late1"), url)
}

func (s *BrowserIntegrationSuite) TestObserve_NotFoundIsNotAnError() {
	start := time.Now()

	url, found, err := s.browser.Observe(s.ctx, s.server.URL+"/no-match", apiPattern, 2*time.Second)

	s.Require().NoError(err)
	s.False(found)
	s.Empty(url)
	s.GreaterOrEqual(time.Since(start), 2*time.Second)
}

func (s *BrowserIntegrationSuite) TestObserve_CanceledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	time.AfterFunc(500*time.Millisecond, cancel)

	_, found, err := s.browser.Observe(ctx, s.server.URL+"/no-match", apiPattern, 10*time.Second)

	s.False(found)
	s.ErrorIs(err, context.Canceled)
}

func (s *BrowserIntegrationSuite) TestFetch_WaitsForRenderedItems() {
	html, err := s.browser.Fetch(s.ctx, s.server.URL+"/index", "article", 10*time.Second)

	s.Require().NoError(err)
	s.Contains(html, "hafta-544-latest")
}

func (s *BrowserIntegrationSuite) TestFetch_MissingSelectorYieldsNoLinks() {
	html, err := s.browser.Fetch(s.ctx, s.server.URL+"/redesigned", "article", 2*time.Second)
	s.Require().NoError(err)
	s.Contains(html, `class="card"`)

	links, err := discovery.Discover(html, discovery.Rules{
		BaseURL:        s.server.URL,
		ItemSelector:   "article",
		EpisodePattern: regexp.MustCompile(`hafta-(\d+)`),
	})
	s.Require().NoError(err)
	s.Empty(links)
}

func (s *BrowserIntegrationSuite) TestFetch_CanceledContextIsFatal() {
	ctx, cancel := context.WithCancel(s.ctx)
	time.AfterFunc(500*time.Millisecond, cancel)

	_, err := s.browser.Fetch(ctx, s.server.URL+"/redesigned", "article", 10*time.Second)

	s.ErrorIs(err, context.Canceled)
}
