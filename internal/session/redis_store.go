package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix     = "studygenie:session:"
	redisMaxCASRetries = 5
)

type stringGetter interface {
	Get(ctx context.Context, key string) *redisv9.StringCmd
}

// RedisStore keeps each session as a JSON document. Put is a WATCH/MULTI
// compare-and-swap so concurrent writers from several processes never lose
// an update.
type RedisStore struct {
	client   *redisv9.Client
	ttl      time.Duration
	maxTurns int
	now      func() time.Time
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration, maxTurns int) *RedisStore {
	return &RedisStore{
		client:   client,
		ttl:      ttl,
		maxTurns: maxTurns,
		now:      time.Now,
	}
}

func (s *RedisStore) Get(ctx context.Context, id string) (Context, error) {
	cur, found, err := s.load(ctx, s.client, id)
	if err != nil {
		return Context{}, err
	}
	if !found {
		return Context{ID: id}, nil
	}
	return cur, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, delta Delta) (Context, error) {
	if id == "" {
		return Context{}, ErrInvalidID
	}

	key := s.key(id)
	var merged Context
	for attempt := 0; attempt < redisMaxCASRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redisv9.Tx) error {
			cur, _, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			merged = merge(cur, id, delta, s.maxTurns, s.now())

			payload, err := json.Marshal(merged)
			if err != nil {
				return fmt.Errorf("marshal session failed: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
				pipe.Set(ctx, key, payload, s.ttl)
				return nil
			})
			return err
		}, key)
		if err == nil {
			return merged, nil
		}
		if errors.Is(err, redisv9.TxFailedErr) {
			continue
		}
		return Context{}, fmt.Errorf("redis put session failed: %w", err)
	}
	return Context{}, ErrConflict
}

func (s *RedisStore) load(ctx context.Context, cmd stringGetter, id string) (Context, bool, error) {
	raw, err := cmd.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return Context{}, false, nil
	}
	if err != nil {
		return Context{}, false, fmt.Errorf("redis get session failed: %w", err)
	}

	var cur Context
	if err := json.Unmarshal(raw, &cur); err != nil {
		return Context{}, false, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return cur, true, nil
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}
