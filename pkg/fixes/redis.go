package fixes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis.
//
// Layout:
//
//	<prefix>:channels          set of channel numbers
//	<prefix>:fixes:<channel>   hash sensor id -> JSON Fix
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client. An empty prefix becomes "lightnav".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "lightnav"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStore(client, prefix), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) channelsKey() string {
	return s.prefix + ":channels"
}

func (s *RedisStore) fixesKey(channel int) string {
	return fmt.Sprintf("%s:fixes:%d", s.prefix, channel)
}

// Put stores fix in the channel's hash.
func (s *RedisStore) Put(ctx context.Context, fix Fix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to marshal fix: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, s.channelsKey(), fix.Channel)
	pipe.HSet(ctx, s.fixesKey(fix.Channel), fix.SensorID, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store fix %d/%s: %w", fix.Channel, fix.SensorID, err)
	}
	return nil
}

// Get retrieves one fix.
func (s *RedisStore) Get(ctx context.Context, channel int, sensorID string) (Fix, error) {
	data, err := s.client.HGet(ctx, s.fixesKey(channel), sensorID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Fix{}, ErrNotFound
	}
	if err != nil {
		return Fix{}, fmt.Errorf("failed to read fix %d/%s: %w", channel, sensorID, err)
	}

	var fix Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		return Fix{}, fmt.Errorf("failed to parse fix %d/%s: %w", channel, sensorID, err)
	}
	return fix, nil
}

// List returns every stored fix.
func (s *RedisStore) List(ctx context.Context) ([]Fix, error) {
	members, err := s.client.SMembers(ctx, s.channelsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	var out []Fix
	for _, m := range members {
		channel, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		all, err := s.client.HGetAll(ctx, s.fixesKey(channel)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read channel %d: %w", channel, err)
		}
		for id, raw := range all {
			var fix Fix
			if err := json.Unmarshal([]byte(raw), &fix); err != nil {
				return nil, fmt.Errorf("failed to parse fix %d/%s: %w", channel, id, err)
			}
			out = append(out, fix)
		}
	}

	Sort(out)
	return out, nil
}
