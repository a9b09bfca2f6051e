package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sessions stores live refresh sessions keyed by token jti. Entries expire
// with the refresh token TTL; logout deletes them early so a stolen
// refresh token stops working server-side.
type Sessions struct {
	client *redis.Client
}

func New(ctx context.Context, addr, password string, db int) (*Sessions, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Sessions{client: client}, nil
}

func (s *Sessions) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.Sessions.Close: %w", err)
	}
	return nil
}

func (s *Sessions) Put(ctx context.Context, jti string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(jti), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.Put: %w", err)
	}
	return nil
}

func (s *Sessions) Exists(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, sessionKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis.Sessions.Exists: %w", err)
	}
	return true, nil
}

func (s *Sessions) Delete(ctx context.Context, jti string) error {
	if err := s.client.Del(ctx, sessionKey(jti)).Err(); err != nil {
		return fmt.Errorf("redis.Sessions.Delete: %w", err)
	}
	return nil
}

// sessionKey returns the Redis key for a refresh session jti.
func sessionKey(jti string) string {
	return "session:" + jti
}
