// Package browser drives a headless Chromium through chromedp. It renders
// index pages and watches the requests an article page makes.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

type Config struct {
	ExecPath  string
	Headless  bool
	NoSandbox bool
}

// Browser owns one Chromium process. Pages are opened one tab at a time.
type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// New starts the browser. Close must be called to stop it.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		if _, err := os.Stat(cfg.ExecPath); err == nil {
			opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
		} else {
			logger.Warn("browser executable not found, using default", "exec_path", cfg.ExecPath)
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		ctx: browserCtx,
		cancel: func() {
			cancelBrowser()
			cancelAlloc()
		},
		logger: logger.With("component", "browser"),
	}, nil
}

func (b *Browser) Close() error {
	b.cancel()
	return nil
}

// newTab opens a fresh tab that is closed when the returned func is called
// or ctx is done. The target is attached to the tab context so that
// per-call timeouts do not close it.
func (b *Browser) newTab(ctx context.Context) (context.Context, func(), error) {
	tabCtx, closeTab := chromedp.NewContext(b.ctx)
	stop := context.AfterFunc(ctx, closeTab)
	release := func() {
		stop()
		closeTab()
	}
	if err := chromedp.Run(tabCtx); err != nil {
		release()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("open tab: %w", err)
	}
	return tabCtx, release, nil
}

// Fetch renders url and returns the page HTML. Navigation gets timeout.
// waitSelector is then awaited for up to timeout more; when it never shows
// up the page is returned as rendered so callers see an empty listing.
func (b *Browser) Fetch(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error) {
	tabCtx, closeTab, err := b.newTab(ctx)
	if err != nil {
		return "", err
	}
	defer closeTab()

	if err := b.run(ctx, tabCtx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	if waitSelector != "" {
		err := b.run(ctx, tabCtx, timeout, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			b.logger.Warn("selector not found, using page as rendered", "url", url, "selector", waitSelector)
		case err != nil:
			return "", fmt.Errorf("render %s: %w", url, err)
		}
	}

	var html string
	if err := b.run(ctx, tabCtx, timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	b.logger.Debug("page rendered", "url", url, "bytes", len(html))
	return html, nil
}

// run executes actions on the tab under timeout. Cancellation of ctx is
// returned as ctx's own error.
func (b *Browser) run(ctx, tabCtx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, actions...)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
		return ctxErr
	}
	return err
}

// Observe opens pageURL in a new tab and returns the URL of the first
// outbound request matching pattern. found is false when nothing matched
// before timeout.
func (b *Browser) Observe(ctx context.Context, pageURL string, pattern *regexp.Regexp, timeout time.Duration) (string, bool, error) {
	tabCtx, closeTab, err := b.newTab(ctx)
	if err != nil {
		return "", false, err
	}
	defer closeTab()

	capture := NewCapture(pattern)
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventRequestWillBeSent); ok && e.Request != nil {
			capture.Offer(e.Request.URL)
		}
	})

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(runCtx, network.Enable(), chromedp.Navigate(pageURL))
	}()

	for {
		select {
		case match := <-capture.Done():
			return match, true, nil
		case err := <-navDone:
			navDone = nil
			if err != nil && runCtx.Err() == nil {
				return "", false, fmt.Errorf("navigate %s: %w", pageURL, err)
			}
		case <-runCtx.Done():
			select {
			case match := <-capture.Done():
				return match, true, nil
			default:
			}
			if err := ctx.Err(); err != nil {
				return "", false, err
			}
			return "", false, nil
		}
	}
}
