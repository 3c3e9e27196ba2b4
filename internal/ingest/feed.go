package ingest

import (
	"context"
	"fmt"
	"time"

	"elo-ledger/internal/config"

	"github.com/valyala/fasthttp"
)

// FeedClient pulls raw-result JSON from an external producer. It is the only
// network dependency of the core and is optional; without FEED_URL the
// pull-ingest path is disabled.
type FeedClient struct {
	url    string
	apiKey string
	client *fasthttp.Client
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	if cfg.FeedURL == "" {
		return nil
	}
	return &FeedClient{
		url:    cfg.FeedURL,
		apiKey: cfg.FeedAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     10,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Fetch downloads the current feed payload and decodes it. Transport-level
// retry is left to the caller's retry policy.
func (c *FeedClient) Fetch(ctx context.Context) ([]RawMatchInput, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("feed request failed: %w", err)
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, fmt.Errorf("feed request failed: %w", err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode())
	}

	return Decode(resp.Body())
}
