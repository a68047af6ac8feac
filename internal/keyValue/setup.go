package keyValue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// store is where cached values live, redis or an in process map.
type store interface {
	get(ctx context.Context, key string) (string, error)
	set(ctx context.Context, key string, value string, expires time.Duration) error
	del(ctx context.Context, key string) error
}

var sugar *zap.SugaredLogger
var backend store
var local = newLocalStore()

var expiryOnce sync.Once

// Setup chooses between redis and the in process map.
// A nil redis client always means the map.
func Setup(_sugar *zap.SugaredLogger, redisClient *redis.Client, selfContained bool) {
	sugar = _sugar

	if selfContained || redisClient == nil {
		backend = local
		expiryOnce.Do(func() {
			go local.expireEvery(time.Minute)
		})
		return
	}
	backend = redisStore{client: redisClient}
}

// Get returns "" for missing and expired keys.
func Get(key string) (string, error) {
	sugar.Debugf("Getting value of key [%s]", key)
	return backend.get(context.Background(), key)
}

func Set(key string, value string, expires time.Duration) error {
	sugar.Debugf("Setting key [%s] for %s", key, expires)
	return backend.set(context.Background(), key, value, expires)
}

func Delete(key string) error {
	sugar.Debugf("Deleting key [%s]", key)
	return backend.del(context.Background(), key)
}

type entry struct {
	value   string
	expires time.Time
}

type localStore struct {
	mutex   sync.RWMutex
	entries map[string]entry
}

func newLocalStore() *localStore {
	return &localStore{entries: make(map[string]entry)}
}

func (l *localStore) get(_ context.Context, key string) (string, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	e, exists := l.entries[key]
	if !exists || e.expires.Before(time.Now()) {
		return "", nil
	}
	return e.value, nil
}

func (l *localStore) set(_ context.Context, key string, value string, expires time.Duration) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.entries[key] = entry{value: value, expires: time.Now().Add(expires)}
	return nil
}

func (l *localStore) del(_ context.Context, key string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.entries, key)
	return nil
}

func (l *localStore) expireEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for now := range ticker.C {
		l.removeExpired(now)
	}
}

func (l *localStore) removeExpired(now time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for key, e := range l.entries {
		if e.expires.Before(now) {
			delete(l.entries, key)
		}
	}
}

type redisStore struct {
	client *redis.Client
}

func (r redisStore) get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (r redisStore) set(ctx context.Context, key string, value string, expires time.Duration) error {
	return r.client.Set(ctx, key, value, expires).Err()
}

func (r redisStore) del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
