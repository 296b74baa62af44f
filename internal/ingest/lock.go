package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker is a distributed per-document lock. Grounded on the teacher's
// Redis AcquireLock/ReleaseLock (SETNX + a Lua compare-and-delete), used
// here to serialize concurrent reprocessing of the same document_id across
// multiple server instances — a bare in-process mutex wouldn't see a
// reprocess request landing on a different pod.
type Locker struct {
	client *redis.Client
}

// NewLocker wraps an existing Redis client.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Acquire tries to take the lock for documentID, returning a token to pass
// to Release and true on success. A false without error means someone else
// holds the lock right now.
func (l *Locker) Acquire(ctx context.Context, documentID string, ttl time.Duration) (string, bool, error) {
	key := lockKey(documentID)
	token := fmt.Sprintf("%d", time.Now().UnixNano())
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("ingest: acquiring lock for %s: %w", documentID, err)
	}
	return token, ok, nil
}

// Release drops the lock iff it's still held by token.
func (l *Locker) Release(ctx context.Context, documentID, token string) error {
	key := lockKey(documentID)
	_, err := l.client.Eval(ctx, releaseScript, []string{key}, token).Result()
	if err != nil {
		return fmt.Errorf("ingest: releasing lock for %s: %w", documentID, err)
	}
	return nil
}

func lockKey(documentID string) string {
	return "resumatch:ingest:lock:" + documentID
}
