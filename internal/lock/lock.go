package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never removes a lock taken over by another process.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease-based lock shared by every importer pointed at the same
// Redis instance.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration

	mu    sync.Mutex
	token string
}

func NewRedis(client *redis.Client, key string, ttl time.Duration) *Redis {
	return &Redis{client: client, key: key, ttl: ttl}
}

// TryLock acquires the lease without waiting. It returns false when another
// holder owns it.
func (r *Redis) TryLock(ctx context.Context) (bool, error) {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", r.key, err)
	}
	if !ok {
		return false, nil
	}

	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return true, nil
}

func (r *Redis) Unlock(ctx context.Context) error {
	r.mu.Lock()
	token := r.token
	r.token = ""
	r.mu.Unlock()

	if token == "" {
		return nil
	}

	if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", r.key, err)
	}
	return nil
}

// Local serialises runs within a single process.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) TryLock(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

func (l *Local) Unlock(context.Context) error {
	l.mu.Unlock()
	return nil
}
