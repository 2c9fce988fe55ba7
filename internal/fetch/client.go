// Package fetch downloads book pages over HTTP with rate limiting and retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// Config controls fetch behavior.
type Config struct {
	Timeout      time.Duration // Per-request timeout.
	Retries      int           // Attempts per URL, including the first.
	RatePerSec   float64       // Request rate across all URLs; <= 0 disables limiting.
	UserAgent    string
	MaxBodyBytes int64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		Retries:      3,
		RatePerSec:   1,
		UserAgent:    "fb2fetch/1.0",
		MaxBodyBytes: 32 << 20,
	}
}

// Page is a fetched document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Client fetches pages. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        Config
	log        *slog.Logger

	// retryDelay is the base backoff; tests shrink it.
	retryDelay time.Duration

	Stats *Stats
}

func NewClient(cfg Config, log *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = def.Retries
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(limit, 1),
		cfg:        cfg,
		log:        log,
		retryDelay: time.Second,
		Stats:      NewStats(time.Hour),
	}
}

// Get downloads url, retrying throttled, server-side and network failures with
// exponential backoff and jitter.
func (c *Client) Get(ctx context.Context, url string) (*Page, error) {
	var page *Page
	err := retry.Do(
		func() error {
			p, err := c.get(ctx, url)
			if err != nil {
				return err
			}
			page = p
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.cfg.Retries)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(c.retryDelay/2),
		retry.RetryIf(IsRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("retryable fetch error", "url", url, "attempt", n, "error", err)
		}),
	)
	if err != nil {
		c.Stats.RecordFailure()
		return nil, err
	}
	c.Stats.RecordSuccess(page.Duration, int64(len(page.Body)))
	return page, nil
}

func (c *Client) get(ctx context.Context, url string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > c.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("get %s: %w (%d bytes)", url, ErrBodyTooLarge, c.cfg.MaxBodyBytes)
	}

	return &Page{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		Duration:    time.Since(start),
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
