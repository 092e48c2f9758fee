package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 7 * 24 * time.Hour

// Store persists session state in Redis as JSON.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A non-positive ttl uses seven days.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func key(id string) string { return "session:" + id }

func lockKey(id string) string { return "session:" + id + ":busy" }

// Get loads the state for id.
// Returns nil, nil when there is none.
func (s *Store) Get(ctx context.Context, id string) (*State, error) {
	val, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session get %s: %w", id, err)
	}

	var st State
	if err := json.Unmarshal(val, &st); err != nil {
		return nil, fmt.Errorf("unmarshaling session %s: %w", id, err)
	}
	return &st, nil
}

// Save writes st and refreshes its TTL.
func (s *Store) Save(ctx context.Context, st *State) error {
	if st == nil {
		return nil
	}

	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling session %s: %w", st.ID, err)
	}

	if err := s.client.Set(ctx, key(st.ID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("session set %s: %w", st.ID, err)
	}
	return nil
}

// Delete removes the state for id. Deleting a missing session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id), lockKey(id)).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", id, err)
	}
	return nil
}

// unlockScript deletes the busy key only while it still holds the caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock marks id busy under token for at most ttl. It reports false when the
// session is already busy.
func (s *Store) Lock(ctx context.Context, id, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(id), token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("session lock %s: %w", id, err)
	}
	return ok, nil
}

// Unlock clears the busy mark for id if it is still held under token. A mark
// that expired and was taken by another send is left alone.
func (s *Store) Unlock(ctx context.Context, id, token string) error {
	if err := unlockScript.Run(ctx, s.client, []string{lockKey(id)}, token).Err(); err != nil {
		return fmt.Errorf("session unlock %s: %w", id, err)
	}
	return nil
}
