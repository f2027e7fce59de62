package browser

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var apiPattern = regexp.MustCompile(`/acast-rest/shows/5ec3d9497cef7479d2ef4798/episodes/([a-z0-9]+)`)

func TestCapture_FirstMatchWins(t *testing.T) {
	c := NewCapture(apiPattern)

	assert.False(t, c.Offer("https://www.newslaundry.com/static/app.js"))
	assert.True(t, c.Offer("https://www.newslaundry.com/acast-rest/shows/5ec3d9497cef7479d2ef4798/episodes/first1"))
	assert.False(t, c.Offer("https://www.newslaundry.com/acast-rest/shows/5ec3d9497cef7479d2ef4798/episodes/second2"))

	select {
	case got := <-c.Done():
		assert.Contains(t, got, "first1")
	default:
		t.Fatal("capture slot should be filled")
	}

	select {
	case got := <-c.Done():
		t.Fatalf("unexpected second delivery %q", got)
	default:
	}
}

func TestCapture_EmptyUntilMatch(t *testing.T) {
	c := NewCapture(apiPattern)
	c.Offer("https://example.com/nothing")

	select {
	case <-c.Done():
		t.Fatal("slot should be empty")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestCapture_ConcurrentOffersDeliverOnce(t *testing.T) {
	c := NewCapture(regexp.MustCompile(`/episodes/(\d+)`))

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Offer("https://x/episodes/1") {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, taken)
	assert.Len(t, c.Done(), 1)
}

func TestStaticPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "element.html")
	require.NoError(t, os.WriteFile(path, []byte("<article></article>"), 0o644))

	html, err := StaticPage{Path: path}.Fetch(context.Background(), "https://ignored", "article", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "<article></article>", html)

	_, err = StaticPage{Path: path + ".missing"}.Fetch(context.Background(), "", "", 0)
	assert.Error(t, err)
}
