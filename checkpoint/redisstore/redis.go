// Package redisstore implements checkpoint.Store on Redis, grounded
// on the teacher's store/redis package: a key-prefix scheme plus a Set
// index, written through redis.Pipeline for atomic multi-key writes.
// Adapted from the teacher's checkpoint-ID/execution-ID index to a
// thread-ID/version index, since this domain's identity is ThreadID.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentmap-go/agentmap/checkpoint"
)

// Store implements checkpoint.Store using a Redis client.
type Store struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "agentmap:"
	TTL      time.Duration // expiration for checkpoints, default 0 (no expiration)
}

// New creates a Redis-backed checkpoint store.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewWithClient(client, opts.Prefix, opts.TTL)
}

// NewWithClient wraps an already-constructed client, enabling tests
// against a miniredis instance or a shared pool.
func NewWithClient(client redis.Cmdable, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "agentmap:"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) versionKey(threadID string, version int) string {
	return fmt.Sprintf("%sthread:%s:v:%d", s.prefix, threadID, version)
}

func (s *Store) indexKey(threadID string) string {
	return fmt.Sprintf("%sthread:%s:versions", s.prefix, threadID)
}

func (s *Store) Save(ctx context.Context, cp *checkpoint.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	key := s.versionKey(cp.ThreadID, cp.Version)
	indexKey := s.indexKey(cp.ThreadID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)
	pipe.SAdd(ctx, indexKey, cp.Version)
	if s.ttl > 0 {
		pipe.Expire(ctx, indexKey, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint to redis: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error) {
	versions, err := s.sortedVersions(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}

	latest := versions[len(versions)-1]
	data, err := s.client.Get(ctx, s.versionKey(threadID, latest)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint from redis: %w", err)
	}

	var cp checkpoint.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

func (s *Store) List(ctx context.Context, threadID string) ([]*checkpoint.Checkpoint, error) {
	versions, err := s.sortedVersions(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return []*checkpoint.Checkpoint{}, nil
	}

	keys := make([]string, len(versions))
	for i, v := range versions {
		keys[i] = s.versionKey(threadID, v)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkpoints: %w", err)
	}

	out := make([]*checkpoint.Checkpoint, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		strData, ok := result.(string)
		if !ok {
			continue
		}
		var cp checkpoint.Checkpoint
		if err := json.Unmarshal([]byte(strData), &cp); err != nil {
			continue
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, threadID string, version int) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.versionKey(threadID, version))
	pipe.SRem(ctx, s.indexKey(threadID), version)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, threadID string) error {
	versions, err := s.sortedVersions(ctx, threadID)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, v := range versions {
		pipe.Del(ctx, s.versionKey(threadID, v))
	}
	pipe.Del(ctx, s.indexKey(threadID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

func (s *Store) sortedVersions(ctx context.Context, threadID string) ([]int, error) {
	members, err := s.client.SMembers(ctx, s.indexKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoint versions: %w", err)
	}

	versions := make([]int, 0, len(members))
	for _, m := range members {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	for i := 1; i < len(versions); i++ {
		for j := i; j > 0 && versions[j-1] > versions[j]; j-- {
			versions[j-1], versions[j] = versions[j], versions[j-1]
		}
	}
	return versions, nil
}

var _ checkpoint.Store = (*Store)(nil)
