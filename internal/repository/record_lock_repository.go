package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/recordclean/internal/config"
)

// releaseLock deletes the lock only if it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RecordLockRepository guards record writes with a redis SET NX lock so two
// writers never rewrite the same record at once.
type RecordLockRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRecordLockRepository(rdb *redis.Client, ttl time.Duration) *RecordLockRepository {
	return &RecordLockRepository{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock for one record. ok is false when another writer
// holds it. The returned release func is safe to call once.
func (r *RecordLockRepository) Acquire(ctx context.Context, collection, recordID string) (func(), bool, error) {
	key := config.CacheKey.RecordLockKey(collection, recordID)
	token := uuid.New().String()

	ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// Background context: release must run even if ctx was cancelled.
		_ = releaseLock.Run(context.Background(), r.rdb, []string{key}, token).Err()
	}
	return release, true, nil
}
