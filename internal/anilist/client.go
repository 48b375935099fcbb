package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"anisync/internal/shared"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultURL is the public AniList GraphQL endpoint.
	DefaultURL = "https://graphql.anilist.co"

	// DefaultRequestsPerMinute matches AniList's documented per-user allowance.
	DefaultRequestsPerMinute = 90

	// MaxPageSize is the largest perPage value the server honors.
	MaxPageSize = 50
)

// sleepFor blocks for d or until ctx is canceled. Tests replace it to avoid real waits.
var sleepFor = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client performs GraphQL requests against the AniList API.
//
// The zero value is not usable; construct with [NewClient].
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	requests   atomic.Int64
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	URL               string
	HTTPClient        *http.Client
	RequestsPerMinute int
	Logger            *log.Logger
}

// NewClient creates a Client with the provided options, filling in defaults for zero values.
func NewClient(opts ClientOpts) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		url:        opts.URL,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1),
		logger:     opts.Logger,
	}
}

// Requests returns how many non-rate-limited requests this client has completed.
//
// Responses the server rejected with a GraphQL error still count; 429 responses do not.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type gqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// Do posts one GraphQL request and returns the data payload.
//
// A 429 response sleeps out the server's Retry-After (plus a one-second
// margin, or 100ms when the header is missing) and resends the identical
// request, without bound, until a non-429 response arrives or ctx is
// canceled. Any other failure returns a [shared.ErrAPIRequest] carrying the
// server's error messages and is not retried.
//
// An empty token sends the request unauthenticated.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, token string) (json.RawMessage, error) {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryDelay(resp.Header)
			c.logger.Warn("rate limited", "retry_in", delay)
			if err := sleepFor(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		// Counts toward the per-run total even when the server rejects the
		// request below.
		c.requests.Add(1)

		var env gqlEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: malformed response (status %d)", shared.ErrAPIRequest, resp.StatusCode)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if len(env.Errors) > 0 {
				for _, e := range env.Errors {
					c.logger.Error("server error", "status", e.Status, "message", e.Message)
				}
				return nil, fmt.Errorf("%w: %s", shared.ErrAPIRequest, env.Errors[0].Message)
			}
			return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		return env.Data, nil
	}
}

// retryDelay derives the backoff for a 429 response. The extra second keeps
// a marginally early clock on our side from tripping the limit again.
func retryDelay(h http.Header) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs)*time.Second + time.Second
		}
	}
	return 100 * time.Millisecond
}
