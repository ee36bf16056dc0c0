// Package googlebooks is a rate-limited client for the Google Books
// volumes API, used as the external genre-lookup collaborator.
package googlebooks

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/florilegium/florilegium-server/internal/ratelimit"
)

const (
	defaultBaseURL = "https://www.googleapis.com/books/v1"
	defaultTimeout = 10 * time.Second
	defaultRPS     = 2.0
	defaultBurst   = 1
	defaultRetries = 1
	defaultBackoff = 2 * time.Second

	// One bucket: the API rate-limits per project, not per endpoint.
	limiterKey = "volumes"
)

// Config holds client settings.
type Config struct {
	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string
	// APIKey is optional; anonymous requests get a lower quota.
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// MaxRetries bounds retries after a rate-limit response.
	MaxRetries int
	// RetryBackoff is the fixed sleep before each retry.
	RetryBackoff time.Duration
}

// Client is a rate-limited Google Books API client.
type Client struct {
	http       *http.Client
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
	baseURL    string
	apiKey     string
	maxRetries int
	backoff    time.Duration
}

// New creates a Google Books client. Zero config fields take defaults.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultBackoff
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		logger:     logger,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
	}
}

// doRequest executes one volumes query with rate limiting.
func (c *Client) doRequest(ctx context.Context, q string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	query.Set("q", q)
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}

	reqURL := c.baseURL + "/volumes?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Florilegium/1.0")

	c.logger.Debug("googlebooks request", "query", q)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusBadRequest:
		return nil, ErrBadRequest
	default:
		if resp.StatusCode >= 500 {
			return nil, ErrServer
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// volumesResponse is the subset of the API response the lookup needs.
type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Categories []string `json:"categories"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// queryCategory runs one volumes query, retrying on a rate-limit response,
// and returns the first usable category label.
func (c *Client) queryCategory(ctx context.Context, q string) (string, error) {
	var body []byte
	var err error
	for attempt := 0; ; attempt++ {
		body, err = c.doRequest(ctx, q)
		if err == nil {
			break
		}
		if attempt >= c.maxRetries || !isRetryable(err) {
			return "", wrapError("volumes", q, err)
		}
		c.logger.Warn("googlebooks rate limited, backing off",
			"query", q,
			"backoff", c.backoff,
			"attempt", attempt+1,
		)
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return "", wrapError("volumes", q, ctx.Err())
		}
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrapError("volumes", q, fmt.Errorf("parse response: %w", err))
	}

	for _, item := range resp.Items {
		for _, label := range item.VolumeInfo.Categories {
			if cat := MostSpecificCategory(label); cat != "" {
				return cat, nil
			}
		}
		// Only the first volume counts; further hits are other editions
		// and often shelved differently.
		break
	}
	return "", wrapError("volumes", q, ErrNotFound)
}

func isRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServer)
}

// MostSpecificCategory extracts the rightmost slash-delimited segment of a
// category label: "Fiction / Science Fiction / Space Opera" -> "Space Opera".
func MostSpecificCategory(label string) string {
	parts := strings.Split(label, "/")
	return strings.TrimSpace(parts[len(parts)-1])
}
