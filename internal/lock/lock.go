package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

var ErrRoomBusy = errors.New("room_locked")

// Locker serializes ledger operations on a room across processes. A nil
// Locker is valid and means database row locks alone do the serializing.
type Locker struct {
	client *redis.Client
	script *redis.Script
}

func NewLocker(client *redis.Client) *Locker {
	if client == nil {
		return nil
	}
	return &Locker{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func roomKey(roomID snowflake.ID) string {
	return fmt.Sprintf("rentledger:room:%s", roomID.String())
}

// WithRoomLock runs fn while holding the room's lock. When no redis client is
// configured it just runs fn.
func (l *Locker) WithRoomLock(ctx context.Context, roomID snowflake.ID, ttl time.Duration, fn func() error) error {
	if l == nil || l.client == nil {
		return fn()
	}

	key := roomKey(roomID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRoomBusy
	}
	defer func() {
		_ = l.script.Run(context.WithoutCancel(ctx), l.client, []string{key}, token).Err()
	}()

	return fn()
}
