package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Akondltd/radbot/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var testPair = domain.Pair{TokenA: "XRD", TokenB: "xUSDC"}

func fastConfig() *WSConfig {
	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 20 * time.Millisecond
	cfg.MaxReconnectDelay = 100 * time.Millisecond
	cfg.ReadTimeout = 2 * time.Second
	return &cfg
}

// priceServer reads the subscription and replies with the given frames.
func priceServer(t *testing.T, connects *atomic.Int32, frames func(n int32) []wsMessage) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		n := connects.Add(1)

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal subscribe: %v", err)
			return
		}
		if req.Op != "subscribe" || len(req.Pairs) != 1 || req.Pairs[0] != "XRD/xUSDC" {
			t.Errorf("unexpected subscribe request: %+v", req)
		}
		conn.WriteJSON(wsMessage{Type: "subscribed", ID: req.ID})

		for _, f := range frames(n) {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
		if n == 1 && connects != nil {
			// drop the first connection to force a reconnect
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func TestWSClient_StreamsPrices(t *testing.T) {
	var connects atomic.Int32
	server := priceServer(t, &connects, func(n int32) []wsMessage {
		return []wsMessage{
			{Type: "price", Pair: "XRD/xUSDC", Price: 0.04, Volume: 10, TimestampMs: int64(n) * 1000},
			{Type: "price", Pair: "bogus", Price: 1},
			{Type: "price", Pair: "XRD/xUSDC", Price: -1},
		}
	})
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), []domain.Pair{testPair}, fastConfig(), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	// one valid price per connection; the second arrives after a reconnect
	for want := int64(1); want <= 2; want++ {
		select {
		case u := <-client.Updates():
			if u.Pair != testPair || u.Price != 0.04 || u.TimestampMs != want*1000 {
				t.Errorf("unexpected update %+v", u)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timeout waiting for update %d", want)
		}
	}

	if connects.Load() < 2 {
		t.Errorf("expected a reconnect, got %d connections", connects.Load())
	}
}

func TestWSClient_CloseIsIdempotent(t *testing.T) {
	var connects atomic.Int32
	server := priceServer(t, &connects, func(int32) []wsMessage { return nil })
	defer server.Close()

	client, err := NewWSClient(context.Background(), wsURL(server), []domain.Pair{testPair}, fastConfig(), nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-client.Updates(); ok {
		t.Error("updates channel should be closed")
	}
}

func TestNewWSClient_Errors(t *testing.T) {
	if _, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", nil, nil, nil); err == nil {
		t.Error("expected error without pairs")
	}
	if _, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", []domain.Pair{testPair}, nil, nil); err == nil {
		t.Error("expected dial error")
	}
}

func TestParsePair(t *testing.T) {
	p, err := ParsePair("XRD/xUSDC")
	if err != nil || p != testPair {
		t.Fatalf("ParsePair: %v %+v", err, p)
	}
	for _, bad := range []string{"", "XRD", "/x", "x/", "a/b/c"} {
		if _, err := ParsePair(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
