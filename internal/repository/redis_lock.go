package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/clearpath-signup/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	emailLockPrefix = "identity_lock:"

	defaultLockTTL  = 10 * time.Second
	lockPollEvery   = 50 * time.Millisecond
	lockWaitTimeout = 3 * time.Second
)

// ErrLockTimeout блокировка не получена за отведенное время
var ErrLockTimeout = errors.New("lock wait timeout")

// unlockScript снимает блокировку только владельцем
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisEmailLocker блокировка find-or-create по email через SET NX PX
type RedisEmailLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisEmailLocker создает блокировку по email
func NewRedisEmailLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisEmailLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisEmailLocker{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Lock ждет освобождения блокировки не дольше lockWaitTimeout
func (l *RedisEmailLocker) Lock(ctx context.Context, email string) (func(), error) {
	key := emailLockPrefix + email
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, lockWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(lockPollEvery)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire identity lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-waitCtx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}

	unlock := func() {
		// Контекст запроса может быть уже отменен
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warnw("Failed to release identity lock", "key", key, "error", err)
		}
	}
	return unlock, nil
}
