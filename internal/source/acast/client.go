package acast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"podcast_syncer/internal/domain"
)

const userAgent = "PodcastSyncer/1.0"

var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError reports a non-200 answer from the metadata endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Config holds metadata client configuration.
type Config struct {
	Timeout        time.Duration
	MinInterval    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client fetches episode metadata records by resource URL.
type Client struct {
	httpClient     *http.Client
	limiter        *rate.Limiter
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new metadata client.
func New(cfg Config, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(limit, 1),
		maxAttempts:    attempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "metadata"),
	}
}

// GetEpisode fetches and normalises the episode resource at resourceURL.
// The returned record carries the raw body and no number or identifier.
func (c *Client) GetEpisode(ctx context.Context, resourceURL string) (domain.EpisodeRecord, error) {
	var body []byte
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		body, err = c.doRequest(ctx, resourceURL)
		if err == nil {
			break
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return domain.EpisodeRecord{}, err
		}
		if attempt == c.maxAttempts {
			return domain.EpisodeRecord{}, fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"url", resourceURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return domain.EpisodeRecord{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return decodeEpisode(body)
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func decodeEpisode(body []byte) (domain.EpisodeRecord, error) {
	var resp EpisodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.EpisodeRecord{}, fmt.Errorf("decode response: %w", err)
	}

	show := resp.Shows
	return domain.EpisodeRecord{
		Title:       show.Title,
		PublishDate: show.PublishDate,
		Summary:     show.Summary,
		StreamURL:   show.StreamURL,
		Duration:    domain.ParseSeconds(show.Duration),
		Cover:       show.Cover,
		Raw:         json.RawMessage(body),
	}, nil
}
