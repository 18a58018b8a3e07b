package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "markov:seen:"

// Store remembers which message ids were already handled so replayed gateway
// dispatches are not ingested twice.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
		ReadTimeout: 2 * time.Second,
	})
	return NewWithClient(rdb, ttl)
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func seenKey(messageID string) string {
	return keyPrefix + messageID
}

// FirstSeen marks messageID as seen and reports whether it was new.
func (s *Store) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, seenKey(messageID), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}
