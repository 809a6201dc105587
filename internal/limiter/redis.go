package limiter

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis is a limiter backed by expiring Redis keys: a failure counter that
// lives for one window and a block marker that lives for the lockout period.
type Redis struct {
	client   *redis.Client
	prefix   string
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

var _ Limiter = (*Redis)(nil)

// NewRedis constructs a Redis-backed limiter. Keys are namespaced by prefix.
func NewRedis(client *redis.Client, prefix string, window time.Duration, maxFails int, blockFor time.Duration) *Redis {
	if prefix == "" {
		prefix = "hk:login"
	}
	return &Redis{client: client, prefix: prefix, window: window, maxFails: maxFails, blockFor: blockFor}
}

func (l *Redis) keys(email string, ipHash []byte) (fails, block string) {
	id := email + ":" + hex.EncodeToString(ipHash)
	return fmt.Sprintf("%s:fails:%s", l.prefix, id), fmt.Sprintf("%s:block:%s", l.prefix, id)
}

// Allow reports whether login is allowed and, when blocked, the remaining lockout.
func (l *Redis) Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	_, blockKey := l.keys(email, ipHash)
	ttl, err := l.client.PTTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	// negative values mean "no such key" or "no expiry"
	if ttl > 0 {
		return false, ttl, nil
	}
	return true, 0, nil
}

// Success clears the counter and any block.
func (l *Redis) Success(ctx context.Context, email string, ipHash []byte) error {
	failsKey, blockKey := l.keys(email, ipHash)
	return l.client.Del(ctx, failsKey, blockKey).Err()
}

// Failure increments the counter and restarts its window in one MULTI, so the
// counter never outlives the window. Reaching maxFails sets a block.
func (l *Redis) Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	failsKey, blockKey := l.keys(email, ipHash)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, failsKey)
		pipe.PExpire(ctx, failsKey, l.window)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	if incr.Val() < int64(l.maxFails) {
		return false, 0, nil
	}

	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, blockKey, "1", l.blockFor)
		pipe.Del(ctx, failsKey)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return true, l.blockFor, nil
}
