package coord

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campustransit/bus-reservation-backend/internal/config"
)

// Locker provides short-TTL mutual exclusion around the booking, cancel and
// scan critical sections. The TTL bounds how long a crashed holder can stall
// other writers; the database transaction remains the authoritative check.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Lock key builders. Locks are never held two at a time.

func BookKey(tripID string) string    { return "book:" + tripID }
func CancelKey(tripID string) string  { return "cancel:" + tripID }
func ScanKey(bookingID string) string { return "scan:" + bookingID }

// RedisLocker implements Locker with SET NX PX against a shared Redis.
type RedisLocker struct {
	client *redis.Client
}

// NewClient connects to Redis and verifies the connection
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker creates a Locker over an established client
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire attempts to take the lock, returning false when another holder has
// it. The sentinel expires after ttl even if Release is never called.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the lock. Releasing a lock that already expired is a no-op.
func (l *RedisLocker) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
