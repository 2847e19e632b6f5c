package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

var _ Store = (*RedisStore)(nil)

// RedisStore keeps sessions as JSON values with a native TTL, so expired
// entries simply vanish and Load reports them as absent.
type RedisStore struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	nowTime    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, defaultTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:     client,
		defaultTTL: defaultTTL,
		nowTime:    time.Now,
	}
}

func (s *RedisStore) Create(ctx context.Context, data Data) (string, error) {
	ttl := s.defaultTTL
	if !data.ExpiresAt.IsZero() {
		ttl = data.ExpiresAt.Sub(s.nowTime())
		if ttl <= 0 {
			return "", errors.New("[RedisStore.Create] session expiry is in the past")
		}
	} else {
		data.ExpiresAt = s.nowTime().Add(s.defaultTTL)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "[RedisStore.Create] marshalling session")
	}

	id := newSessionID()
	if err := s.client.Set(ctx, redisKeyPrefix+id, payload, ttl).Err(); err != nil {
		return "", errors.Wrap(err, "[RedisStore.Create] storing session")
	}
	return id, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Data, error) {
	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "[RedisStore.Load] fetching session")
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, errors.Wrap(err, "[RedisStore.Load] unmarshalling session")
	}
	return &data, nil
}

func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return errors.Wrap(err, "[RedisStore.Destroy] deleting session")
	}
	return nil
}
