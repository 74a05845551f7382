// Package redis provides a Redis-backed per-trade lock so several engine
// replicas never tick the same trade at once.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// ErrLockLost is returned by Release when the lock expired or was taken over.
var ErrLockLost = errors.New("redis lock lost")

// releaseScript deletes the key only while it still holds our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the expiry only while the key still holds our token.
var refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Config holds Redis connection and lock settings.
type Config struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	TTL        time.Duration // lock expiry; bounds a crashed holder
	RetryDelay time.Duration // poll interval while waiting
	Refresh    time.Duration // expiry extension period while held; TTL/3 by default
}

// TradeLocker implements a single-flight lock per trade with SET NX PX.
type TradeLocker struct {
	client *goredis.Client
	cfg    Config

	mu     sync.RWMutex
	onLost func(key string, err error)
}

// NewTradeLocker connects to Redis and verifies the connection.
func NewTradeLocker(ctx context.Context, cfg Config) (*TradeLocker, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewTradeLockerWithClient(client, cfg), nil
}

// NewTradeLockerWithClient wraps an existing client.
func NewTradeLockerWithClient(client *goredis.Client, cfg Config) *TradeLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = "radbot:lock"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}
	if cfg.Refresh <= 0 || cfg.Refresh >= cfg.TTL {
		cfg.Refresh = cfg.TTL / 3
	}
	return &TradeLocker{client: client, cfg: cfg}
}

// OnLost registers a callback for locks found gone, either by the refresh
// loop or on release.
func (l *TradeLocker) OnLost(fn func(key string, err error)) {
	l.mu.Lock()
	l.onLost = fn
	l.mu.Unlock()
}

func (l *TradeLocker) reportLost(key string, err error) {
	l.mu.RLock()
	fn := l.onLost
	l.mu.RUnlock()
	if fn != nil {
		fn(key, err)
	}
}

// Acquire blocks until the trade lock is held or ctx is done. While held the
// expiry is extended every Refresh period. The release function is idempotent.
func (l *TradeLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.cfg.Prefix + ":" + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.cfg.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.refreshLoop(context.WithoutCancel(ctx), key, redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			if err := l.release(context.WithoutCancel(ctx), redisKey, token); err != nil {
				l.reportLost(key, err)
			}
		})
	}, nil
}

// refreshLoop extends the lock until stop is closed or the lock is gone.
func (l *TradeLocker) refreshLoop(ctx context.Context, key, redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.cfg.Refresh)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		n, err := refreshScript.Run(ctx, l.client, []string{redisKey}, token, l.cfg.TTL.Milliseconds()).Int()
		switch {
		case err != nil:
			// transient; the next period retries before the TTL runs out
			continue
		case n == 0:
			l.reportLost(key, ErrLockLost)
			return
		}
	}
}

func (l *TradeLocker) release(ctx context.Context, redisKey, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", redisKey, err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

// Close closes the Redis connection.
func (l *TradeLocker) Close() error {
	return l.client.Close()
}
