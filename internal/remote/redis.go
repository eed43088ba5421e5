package remote

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const (
	fieldData    = "data"
	fieldUpdated = "updated"
)

// RedisStore keeps each document in a hash with the blob and its
// lastUpdated in unix nanoseconds.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(ctx context.Context, url, namespace string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "redis: parse url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrap(err, "redis: ping")
	}
	return NewRedisStoreFromClient(client, namespace), nil
}

func NewRedisStoreFromClient(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *RedisStore) Fetch(ctx context.Context, key string) (*Blob, error) {
	vals, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, eris.Wrapf(err, "redis: fetch %s", key)
	}
	data, ok := vals[fieldData]
	if !ok {
		return nil, nil
	}
	blob := &Blob{Data: []byte(data)}
	if raw, ok := vals[fieldUpdated]; ok {
		ns, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "redis: %s has bad timestamp", key)
		}
		blob.LastUpdated = time.Unix(0, ns).UTC()
	}
	return blob, nil
}

func (s *RedisStore) Push(ctx context.Context, key string, blob Blob) error {
	err := s.client.HSet(ctx, s.key(key),
		fieldData, blob.Data,
		fieldUpdated, strconv.FormatInt(blob.LastUpdated.UnixNano(), 10),
	).Err()
	return eris.Wrapf(err, "redis: push %s", key)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
