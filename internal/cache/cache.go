package cache

import (
	"context"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"sync"
	"time"
)

// Cache keeps rendered blobs (charts) for a short time
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

type cacheItem struct {
	data       []byte
	expiration time.Time
}

// Memory is a process local cache
type Memory struct {
	mu    sync.Mutex
	items map[string]*cacheItem
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]*cacheItem), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, found := m.items[key]
	if !found {
		return nil, false
	}
	if !m.now().Before(item.expiration) {
		delete(m.items, key)
		return nil, false
	}
	return item.data, true
}

func (m *Memory) Set(_ context.Context, key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = &cacheItem{
		data:       data,
		expiration: m.now().Add(ttl),
	}
}

// Redis shares the cache between instances
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to addr and checks the connection
func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "could not connect to redis %s", addr)
	}
	return &Redis{client: client, prefix: "price-monitor:"}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Errorf("redis get %s: %v", key, err)
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		log.Errorf("redis set %s: %v", key, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
