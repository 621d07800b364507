package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "ticket:"

// reserveLockScript acquires NX locks on every key or none. The EXISTS
// pre-pass keeps the common conflict case cheap; the SET NX result is still
// checked because another client may land between the two passes.
var reserveLockScript = redis.NewScript(`
for i = 1, #KEYS do
  if redis.call("EXISTS", KEYS[i]) == 1 then
    return 0
  end
end
for i = 1, #KEYS do
  local result = redis.call("SET", KEYS[i], "true", "EX", ARGV[1], "NX")
  if result == false then
    return 0
  end
end
return 1
`)

// LockManager holds the distributed per-ticket reservation locks in Redis.
// A lock's TTL is the server-side source of truth for hold expiry; the
// client-side reservation manager mirrors it but never extends it.
type LockManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLockManager returns a lock manager using ttl for new holds.
func NewLockManager(client *redis.Client, ttl time.Duration) *LockManager {
	return &LockManager{client: client, ttl: ttl}
}

// Preload loads the Lua script into the Redis script cache so the first
// reserve call does not pay the EVAL round trip.
func (m *LockManager) Preload(ctx context.Context) error {
	if err := reserveLockScript.Load(ctx, m.client).Err(); err != nil {
		return fmt.Errorf("failed to preload reserve lock script: %w", err)
	}
	return nil
}

// TTL returns the hold duration applied to new locks.
func (m *LockManager) TTL() time.Duration {
	return m.ttl
}

// Reserve atomically locks every ticket id or none, returning
// ErrTicketsLocked when any id already carries a hold.
func (m *LockManager) Reserve(ctx context.Context, ticketIDs []string) error {
	keys := make([]string, len(ticketIDs))
	for i, id := range ticketIDs {
		keys[i] = lockKeyPrefix + id
	}

	res, err := reserveLockScript.Run(ctx, m.client, keys, int(m.ttl.Seconds())).Int()
	if err != nil {
		return fmt.Errorf("failed to reserve tickets: %w", err)
	}
	if res == 0 {
		return ErrTicketsLocked
	}
	return nil
}

// Release drops the locks for ticketIDs. Missing locks are ignored.
func (m *LockManager) Release(ctx context.Context, ticketIDs []string) error {
	pipe := m.client.Pipeline()
	for _, id := range ticketIDs {
		pipe.Del(ctx, lockKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to release tickets: %w", err)
	}
	return nil
}

// Refresh resets the TTL on existing locks. It fails if any lock has already
// expired, so a lapsed hold cannot be resurrected.
func (m *LockManager) Refresh(ctx context.Context, ticketIDs []string, ttl time.Duration) error {
	pipe := m.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(ticketIDs))
	for i, id := range ticketIDs {
		cmds[i] = pipe.Expire(ctx, lockKeyPrefix+id, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to refresh tickets: %w", err)
	}
	for i, cmd := range cmds {
		if !cmd.Val() {
			return fmt.Errorf("failed to refresh ticket %s: hold already expired", ticketIDs[i])
		}
	}
	return nil
}

// IsLocked reports whether a single ticket carries a hold.
func (m *LockManager) IsLocked(ctx context.Context, ticketID string) (bool, error) {
	exists, err := m.client.Exists(ctx, lockKeyPrefix+ticketID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check ticket lock: %w", err)
	}
	return exists > 0, nil
}

// LockedSet returns, for each ticket id, whether it currently carries a
// hold. Used to enrich availability snapshots with the advisory reserved
// flag.
func (m *LockManager) LockedSet(ctx context.Context, ticketIDs []string) (map[string]bool, error) {
	pipe := m.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(ticketIDs))
	for i, id := range ticketIDs {
		cmds[i] = pipe.Exists(ctx, lockKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to check ticket locks: %w", err)
	}

	locked := make(map[string]bool, len(ticketIDs))
	for i, cmd := range cmds {
		locked[ticketIDs[i]] = cmd.Val() > 0
	}
	return locked, nil
}

// AllLocked reports whether every ticket id currently carries a hold.
func (m *LockManager) AllLocked(ctx context.Context, ticketIDs []string) (bool, error) {
	locked, err := m.LockedSet(ctx, ticketIDs)
	if err != nil {
		return false, err
	}
	for _, id := range ticketIDs {
		if !locked[id] {
			return false, nil
		}
	}
	return true, nil
}
