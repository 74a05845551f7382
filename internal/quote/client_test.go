package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akondltd/radbot/internal/domain"
)

var pair = domain.Pair{TokenA: "XRD", TokenB: "xUSDC"}

func TestHTTPClient_Estimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/impact", r.URL.Path)
		assert.Equal(t, "XRD/xUSDC", r.URL.Query().Get("pair"))
		assert.Equal(t, "SELL", r.URL.Query().Get("side"))
		assert.Equal(t, "2500.5", r.URL.Query().Get("amount"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"impact_pct": 1.75}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL)
	est, err := c.Estimate(context.Background(), pair, domain.ActionSell, decimal.RequireFromString("2500.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.75, est.EstimatedImpactPct)
	assert.Equal(t, pair, est.Pair)
	assert.Equal(t, domain.ActionSell, est.Side)
}

func TestHTTPClient_Retry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"impact_pct": 0.5}`))
	}))
	defer server.Close()

	c := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
	est, err := c.Estimate(context.Background(), pair, domain.ActionBuy, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, 0.5, est.EstimatedImpactPct)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_Failures(t *testing.T) {
	t.Run("rejection is not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "unknown pair"}`))
		}))
		defer server.Close()

		c := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond))
		_, err := c.Estimate(context.Background(), pair, domain.ActionBuy, decimal.NewFromInt(10))
		var qe *quoteError
		require.True(t, errors.As(err, &qe))
		assert.Equal(t, "unknown pair", qe.message)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewHTTPClient(server.URL, WithRetryDelay(time.Millisecond), WithMaxRetries(2))
		_, err := c.Estimate(context.Background(), pair, domain.ActionBuy, decimal.NewFromInt(10))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
	})

	t.Run("missing impact", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := NewHTTPClient(server.URL).Estimate(context.Background(), pair, domain.ActionBuy, decimal.NewFromInt(10))
		require.Error(t, err)
	})
}

func TestStatic(t *testing.T) {
	est, err := Static{Pct: 2}.Estimate(context.Background(), pair, domain.ActionBuy, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, 2.0, est.EstimatedImpactPct)
}
