package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockTTL = 10 * time.Second

// releaseScript deletes the key only when it still holds the caller's token,
// so a holder whose lock expired cannot free a lock taken after it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RegistrationLock is a short-lived per-email mutex backed by SET NX.
// Key format: register:<email>, value: a per-acquire token.
type RegistrationLock struct {
	client   *redis.Client
	ttl      time.Duration
	newToken func() string
}

// NewRegistrationLock creates a RegistrationLock wrapping the given Redis client.
func NewRegistrationLock(client *redis.Client) *RegistrationLock {
	return &RegistrationLock{client: client, ttl: lockTTL, newToken: uuid.NewString}
}

// Acquire reports whether the caller now holds the lock for email and returns
// the token to release it with. The lock expires after lockTTL even if never
// released.
func (l *RegistrationLock) Acquire(ctx context.Context, email string) (string, bool, error) {
	token := l.newToken()
	ok, err := l.client.SetNX(ctx, key(email), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("registration lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the lock for email if it is still held under token.
func (l *RegistrationLock) Release(ctx context.Context, email, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key(email)}, token).Err(); err != nil {
		return fmt.Errorf("release registration lock: %w", err)
	}
	return nil
}

func (l *RegistrationLock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RegistrationLock) Close() error {
	return l.client.Close()
}

func key(email string) string {
	return "register:" + email
}
