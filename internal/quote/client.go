// Package quote estimates the price impact of a prospective swap.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient queries a quote service for price impact.
//
//	GET {endpoint}/impact?pair=A/B&side=BUY&amount=123.45
//	200 {"impact_pct": 1.25}
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

var _ engine.ImpactEstimator = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a quote client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type impactResponse struct {
	ImpactPct *float64 `json:"impact_pct"`
	Error     string   `json:"error,omitempty"`
}

// quoteError is a definitive rejection from the service; it is not retried.
type quoteError struct {
	status  int
	message string
}

func (e *quoteError) Error() string {
	return fmt.Sprintf("quote rejected (%d): %s", e.status, e.message)
}

// Estimate returns the estimated impact, retrying transient failures with
// exponential backoff.
func (c *HTTPClient) Estimate(ctx context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (domain.PriceImpactEstimate, error) {
	start := time.Now()
	pct, err := c.fetch(ctx, pair, side, notional)
	observability.RecordCollaboratorCall("quote", time.Since(start).Seconds(), err)
	if err != nil {
		return domain.PriceImpactEstimate{}, err
	}
	return domain.PriceImpactEstimate{
		Pair:               pair,
		Side:               side,
		NotionalAmount:     notional,
		EstimatedImpactPct: pct,
	}, nil
}

func (c *HTTPClient) fetch(ctx context.Context, pair domain.Pair, side domain.ActionKind, notional decimal.Decimal) (float64, error) {
	q := url.Values{}
	q.Set("pair", pair.String())
	q.Set("side", string(side))
	q.Set("amount", notional.String())
	target := c.endpoint + "/impact?" + q.Encode()

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return 0, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		var out impactResponse
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return 0, &quoteError{status: resp.StatusCode, message: out.Error}
		}
		if out.ImpactPct == nil || *out.ImpactPct < 0 {
			return 0, fmt.Errorf("quote response missing impact_pct: %s", string(body))
		}
		return *out.ImpactPct, nil
	}

	return 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}
