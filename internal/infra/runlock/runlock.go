package runlock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-tax-reminder/internal/domain"
)

const (
	lockKeyPrefix = "tax-reminder:lock:"

	defaultLockTTL = 10 * time.Minute
)

var ErrInvalidLockData = errors.New("invalid lock data")

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local record = cjson.decode(raw)
if record["token"] == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type lockRecord struct {
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Guard is a Redis SETNX lock that keeps a dispatch run from overlapping
// with an identical one. The TTL bounds how long a crashed holder blocks.
type Guard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGuard(client *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Guard{
		client: client,
		ttl:    ttl,
	}
}

func (g *Guard) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	fullKey := lockKeyPrefix + key
	token := uuid.NewString()

	data, err := json.Marshal(lockRecord{Token: token, AcquiredAt: time.Now().UTC()})
	if err != nil {
		return nil, ErrInvalidLockData
	}

	ok, err := g.client.SetNX(ctx, fullKey, data, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		inProgress := &domain.RunInProgressError{Key: key}
		heldSince, held, err := g.Holder(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "failed to read run lock holder",
				slog.String("key", fullKey),
				slog.String("error", err.Error()),
			)
		} else if held {
			inProgress.HeldSince = heldSince
		}

		slog.WarnContext(ctx, "run lock already held",
			slog.String("key", fullKey),
			slog.Time("held_since", inProgress.HeldSince),
		)
		return nil, inProgress
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, g.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("failed to release run lock: %w", err)
		}
		return nil
	}

	return release, nil
}

// Holder returns when the current holder of key acquired it.
func (g *Guard) Holder(ctx context.Context, key string) (time.Time, bool, error) {
	data, err := g.client.Get(ctx, lockKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}

	var record lockRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return time.Time{}, false, ErrInvalidLockData
	}

	return record.AcquiredAt, true, nil
}
