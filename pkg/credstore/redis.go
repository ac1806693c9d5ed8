package credstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis hash. Intended for server-side
// deployments (BFF, bot, background worker) that hold a portal session on
// behalf of a user and need it to survive process restarts.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

const (
	redisFieldAccess  = "access_token"
	redisFieldRefresh = "refresh_token"
	redisFieldUser    = "user"
)

// NewRedisStore creates a Redis-backed credential store. All state lives in
// a single hash under key, so Clear is one DEL and writes stay atomic.
func NewRedisStore(client redis.UniversalClient, key string) (*RedisStore, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if key == "" {
		return nil, ErrInvalidPath
	}
	return &RedisStore{client: client, key: key}, nil
}

func (r *RedisStore) Credentials(ctx context.Context) (Credentials, error) {
	values, err := r.client.HMGet(ctx, r.key, redisFieldAccess, redisFieldRefresh).Result()
	if err != nil {
		return Credentials{}, errors.Join(ErrStorageFailed, err)
	}

	var creds Credentials
	if s, ok := values[0].(string); ok {
		creds.AccessToken = s
	}
	if s, ok := values[1].(string); ok {
		creds.RefreshToken = s
	}
	return creds, nil
}

func (r *RedisStore) SetCredentials(ctx context.Context, creds Credentials) error {
	err := r.client.HSet(ctx, r.key,
		redisFieldAccess, creds.AccessToken,
		redisFieldRefresh, creds.RefreshToken,
	).Err()
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (r *RedisStore) CachedUser(ctx context.Context) (*UserSnapshot, error) {
	data, err := r.client.HGet(ctx, r.key, redisFieldUser).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Join(ErrStorageFailed, err)
	}

	var user UserSnapshot
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, nil
	}
	return &user, nil
}

func (r *RedisStore) SetCachedUser(ctx context.Context, user *UserSnapshot) error {
	if user == nil {
		if err := r.client.HDel(ctx, r.key, redisFieldUser).Err(); err != nil {
			return errors.Join(ErrStorageFailed, err)
		}
		return nil
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	if err := r.client.HSet(ctx, r.key, redisFieldUser, string(data)).Err(); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}
