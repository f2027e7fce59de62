package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesBuiltins(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Len(t, cfg.Shows, 2)
	hafta, ok := cfg.Show("hafta")
	require.True(t, ok)
	assert.Equal(t, "hafta_data.json", hafta.StorePath)
	assert.Equal(t, "article", hafta.ItemSelector)
	assert.Equal(t, "article", hafta.WaitSelector)

	assert.Equal(t, DriverJSON, cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60*time.Second, cfg.Browser.RenderTimeout)
	assert.Equal(t, 3, cfg.API.Retry.MaxAttempts)
	require.NotNil(t, cfg.Browser.Headless)
	assert.True(t, *cfg.Browser.Headless)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestLoad_ShowDefaultsAndEnvExpansion(t *testing.T) {
	t.Setenv("SYNCER_TEST_DIR", "/var/lib/syncer")

	path := writeConfig(t, `
log_level: debug
browser:
  capture_timeout: 5s
shows:
  - id: weekly
    store_path: ${SYNCER_TEST_DIR}/weekly.json
    index_url: https://example.com/podcast/weekly
    episode_pattern: 'weekly-(\d+)'
    api_pattern: '/api/episodes/([a-z0-9]+)'
    metadata_url: https://example.com/api/episodes/{id}
    min_episode: 40
    channel:
      title: Weekly
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Shows, 1)
	show := cfg.Shows[0]
	assert.Equal(t, "/var/lib/syncer/weekly.json", show.StorePath)
	assert.Equal(t, "weekly_feed.xml", show.FeedPath)
	assert.Equal(t, "https://example.com/podcast/weekly", show.BaseURL)
	assert.Equal(t, "https://example.com/podcast/weekly", show.Channel.Link)
	assert.Equal(t, "episodic", show.Channel.Type)
	assert.Equal(t, 40, show.MinEpisode)
	assert.Equal(t, 5*time.Second, cfg.Browser.CaptureTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidShows(t *testing.T) {
	cases := map[string]string{
		"missing capture group": `
shows:
  - id: a
    index_url: https://example.com
    episode_pattern: 'a-\d+'
    api_pattern: '/api/([a-z]+)'
    metadata_url: https://example.com/{id}
`,
		"duplicate id": `
shows:
  - id: a
    index_url: https://example.com
    episode_pattern: 'a-(\d+)'
    api_pattern: '/api/([a-z]+)'
    metadata_url: https://example.com/{id}
  - id: a
    index_url: https://example.com
    episode_pattern: 'a-(\d+)'
    api_pattern: '/api/([a-z]+)'
    metadata_url: https://example.com/{id}
`,
		"bad driver": `
storage:
  driver: mongo
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSelectShows(t *testing.T) {
	cfg := &Config{Shows: BuiltinShows()}

	all, err := cfg.SelectShows(nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	one, err := cfg.SelectShows([]string{"charcha"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "charcha", one[0].ID)

	_, err = cfg.SelectShows([]string{"nope"})
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "pods", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pods sslmode=disable", d.DSN())
}
