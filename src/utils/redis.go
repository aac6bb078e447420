package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"Backend-QA-Portal/src/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serialises work on a key across requests (and across instances when
// backed by Redis).
type Locker interface {
	// TryLock returns ok=false without waiting when the key is already held.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// NewLocker ใช้ Redis ถ้ามี ถ้าไม่มี (dev mode) ใช้ lock ในโปรเซส
func NewLocker(client *redis.Client) Locker {
	if client == nil {
		return NewLocalLocker()
	}
	return &RedisLocker{client: client}
}

type RedisLocker struct {
	client *redis.Client
}

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, "lock:"+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	unlock := func() {
		// context ใหม่ เพราะ ctx ของ request อาจถูก cancel ไปแล้ว
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = unlockScript.Run(c, l.client, []string{"lock:" + key}, token).Err()
	}
	return unlock, true, nil
}

type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localLease
}

type localLease struct {
	token   string
	expires time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]localLease{}}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lease, ok := l.held[key]; ok && time.Now().Before(lease.expires) {
		return nil, false, nil
	}
	token := uuid.NewString()
	l.held[key] = localLease{token: token, expires: time.Now().Add(ttl)}
	unlock := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// ปล่อยเฉพาะ lease ของตัวเอง
		if lease, ok := l.held[key]; ok && lease.token == token {
			delete(l.held, key)
		}
	}
	return unlock, true, nil
}

// --- Redis Cache Helper ---

func SetCache(ctx context.Context, client *redis.Client, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, b, ttl)
}

func GetCache(ctx context.Context, client *redis.Client, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log := logger.Component("cache")
			log.Warn().Err(err).Str("key", key).Msg("⚠️ redis get failed")
		}
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func DelCachePattern(ctx context.Context, client *redis.Client, pattern string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
