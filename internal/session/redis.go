package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhle/tracker/internal/model"
)

// RedisRepository keeps sessions in Redis. Each record is a JSON value whose
// key expires with the session; a per-user set indexes a user's sessions so
// they can be revoked together.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisRepository returns a repository using rdb. Keys are namespaced
// under prefix.
func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	return &RedisRepository{rdb: rdb, prefix: prefix}
}

// DialRedis connects to the configured Redis server and verifies it answers.
func DialRedis(ctx context.Context, cfg model.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// redisSession is the stored JSON shape.
type redisSession struct {
	UserID     string    `json:"user_id"`
	Persistent bool      `json:"persistent"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *RedisRepository) sessionKey(tokenHash string) string {
	return r.prefix + "session:" + tokenHash
}

func (r *RedisRepository) userKey(userID string) string {
	return r.prefix + "user-sessions:" + userID
}

// CreateSession stores s with a TTL matching its expiry.
func (r *RedisRepository) CreateSession(ctx context.Context, s model.Session) error {
	data, err := json.Marshal(redisSession{
		UserID:     s.UserID,
		Persistent: s.Persistent,
		ExpiresAt:  s.ExpiresAt,
		CreatedAt:  s.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	// Both timestamps come from the Store's clock, which need not be the
	// wall clock.
	ttl := s.ExpiresAt.Sub(s.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("storing session: expiry %s is not after creation %s",
			s.ExpiresAt.Format(time.RFC3339), s.CreatedAt.Format(time.RFC3339))
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.TokenHash), data, ttl)
		pipe.SAdd(ctx, r.userKey(s.UserID), s.TokenHash)
		pipe.Expire(ctx, r.userKey(s.UserID), model.PersistentSessionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// GetSession loads the record for tokenHash.
func (r *RedisRepository) GetSession(ctx context.Context, tokenHash string) (model.Session, bool, error) {
	data, err := r.rdb.Get(ctx, r.sessionKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, fmt.Errorf("getting session: %w", err)
	}

	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return model.Session{}, false, fmt.Errorf("unmarshaling session: %w", err)
	}

	return model.Session{
		TokenHash:  tokenHash,
		UserID:     rs.UserID,
		Persistent: rs.Persistent,
		ExpiresAt:  rs.ExpiresAt,
		CreatedAt:  rs.CreatedAt,
	}, true, nil
}

// DeleteSession removes the record and its index entry.
func (r *RedisRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	rec, ok, err := r.GetSession(ctx, tokenHash)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(tokenHash))
		pipe.SRem(ctx, r.userKey(rec.UserID), tokenHash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteUserSessions removes all of userID's sessions except exceptHash.
func (r *RedisRepository) DeleteUserSessions(ctx context.Context, userID, exceptHash string) error {
	hashes, err := r.rdb.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("listing sessions for user %s: %w", userID, err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, h := range hashes {
			if h == exceptHash {
				continue
			}
			pipe.Del(ctx, r.sessionKey(h))
			pipe.SRem(ctx, r.userKey(userID), h)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting sessions for user %s: %w", userID, err)
	}
	return nil
}

// DeleteExpiredSessions always reports zero: session keys carry their own
// TTL, so Redis has already dropped them.
func (r *RedisRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
