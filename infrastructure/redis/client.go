package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pricescanner/infrastructure/cartstore"
)

const keyNamespace = "pricescanner"

// globEscaper quotes the SCAN MATCH metacharacters so a prefix matches
// literally.
var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Publish(context.Context, string, any) *redis.IntCmd
	Scan(context.Context, uint64, string, int64) *redis.ScanCmd
}

// subscribeFunc opens a channel subscription and returns its message feed and
// a close func.
type subscribeFunc func(ctx context.Context, channel string) (<-chan *redis.Message, func() error, error)

// CartStorage keeps cart records as plain string keys and announces every
// save on a per-key pub/sub channel carrying the writer origin.
type CartStorage struct {
	store     cmdable
	subscribe subscribeFunc
	raw       *redis.Client
	log       zerolog.Logger
}

// New connects to redis and verifies connectivity.
func New(ctx context.Context, url string, log zerolog.Logger) (*CartStorage, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &CartStorage{
		store:     raw,
		subscribe: clientSubscriber(raw),
		raw:       raw,
		log:       log,
	}, nil
}

func clientSubscriber(raw *redis.Client) subscribeFunc {
	return func(ctx context.Context, channel string) (<-chan *redis.Message, func() error, error) {
		sub := raw.Subscribe(ctx, channel)
		if _, err := sub.Receive(ctx); err != nil {
			_ = sub.Close()
			return nil, nil, fmt.Errorf("subscribe %s: %w", channel, err)
		}
		return sub.Channel(), sub.Close, nil
	}
}

func (c *CartStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	val, err := c.store.Get(ctx, c.RecordKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, cartstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return []byte(val), nil
}

func (c *CartStorage) Save(ctx context.Context, key string, data []byte, origin string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := c.store.Set(ctx, c.RecordKey(key), string(data), 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	// The record is already durable; a lost notification only delays other tabs.
	if err := c.store.Publish(ctx, c.ChannelKey(key), origin).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("storage.publish.failed")
	}
	return nil
}

func (c *CartStorage) Watch(ctx context.Context, key string) (<-chan cartstore.Change, error) {
	if c.subscribe == nil {
		return nil, cartstore.ErrWatchUnsupported
	}
	msgs, closeFn, err := c.subscribe(ctx, c.ChannelKey(key))
	if err != nil {
		return nil, err
	}

	out := make(chan cartstore.Change, 1)
	go func() {
		defer close(out)
		defer func() {
			if err := closeFn(); err != nil {
				c.log.Debug().Err(err).Str("key", key).Msg("storage.unsubscribe.failed")
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- cartstore.Change{Key: key, Origin: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Keys lists stored record keys (without namespace) starting with prefix.
func (c *CartStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if c.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	match := globEscaper.Replace(c.RecordKey(prefix)) + "*"
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.store.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", match, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, c.RecordKey("")))
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (c *CartStorage) Ping(ctx context.Context) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *CartStorage) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// RecordKey returns the namespaced key holding a record.
func (c *CartStorage) RecordKey(key string) string {
	return buildKey("record", key)
}

// ChannelKey returns the pub/sub channel announcing changes to a record.
func (c *CartStorage) ChannelKey(key string) string {
	return buildKey("changes", key)
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
