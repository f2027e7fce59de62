package browser

import (
	"context"
	"fmt"
	"os"
	"time"
)

// StaticPage serves a saved copy of an index page in place of rendering it.
type StaticPage struct {
	Path string
}

func (p StaticPage) Fetch(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", fmt.Errorf("read saved page: %w", err)
	}
	return string(data), nil
}
