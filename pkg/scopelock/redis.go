package scopelock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/relistr/mediakit/pkg/config"
)

const (
	keyNamespace = "mediakit"
	lockPrefix   = "scopelock"

	acquirePollInterval = 100 * time.Millisecond
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisLocker serializes scope operations across processes with a
// SetNX-held token. Intended for deployments where several workers mutate
// the same scope; single-process callers should prefer KeyedMutex.
type RedisLocker struct {
	store cmdable
	raw   *redis.Client
	ttl   time.Duration
}

// NewRedisLocker bootstraps a redis-backed locker and verifies connectivity.
func NewRedisLocker(ctx context.Context, cfg config.RedisConfig) (*RedisLocker, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{store: raw, raw: raw, ttl: ttl}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (r *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if r.store == nil {
		return nil, errors.New("redis locker not initialized")
	}

	lockKey := buildKey(lockPrefix, key)
	token := uuid.NewString()

	for {
		ok, err := r.store.SetNX(ctx, lockKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire scope lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(acquirePollInterval):
		}
	}

	release := func() {
		// Only the holder's token may delete the key; an expired lock
		// re-acquired by another holder is left alone.
		current, err := r.store.Get(context.Background(), lockKey).Result()
		if err != nil || current != token {
			return
		}
		_ = r.store.Del(context.Background(), lockKey).Err()
	}
	return release, nil
}

// Close releases the underlying redis connection pool.
func (r *RedisLocker) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

func buildKey(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}
