package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"skillsight/internal/errors"
)

const keyPrefix = "skillsight"

// RedisOptions configures the redis-backed store.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration // 0 means keys never expire
	SeriesLimit int64         // max retained scores per series, 0 means unlimited
}

// RedisStore keeps score series in redis lists and sessions as JSON values.
type RedisStore struct {
	client *redis.Client
	opts   RedisOptions
	logger *errors.Logger
}

// NewRedisStore connects to redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts RedisOptions, logger *errors.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to connect to redis at %s", opts.Addr), err)
	}

	if logger != nil {
		logger.Info("History store connected", "backend", "redis", "addr", opts.Addr, "db", opts.DB)
	}

	return &RedisStore{client: client, opts: opts, logger: logger}, nil
}

func scoresKey(userID, kind string) string {
	return fmt.Sprintf("%s:scores:%s:%s", keyPrefix, userID, kind)
}

func sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// AppendScore pushes a score onto the head of the user's series and trims
// the list to the configured retention.
func (s *RedisStore) AppendScore(ctx context.Context, userID, kind string, score float64) error {
	key := scoresKey(userID, kind)
	value := strconv.FormatFloat(score, 'f', -1, 64)

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, value)
	if s.opts.SeriesLimit > 0 {
		pipe.LTrim(ctx, key, 0, s.opts.SeriesLimit-1)
	}
	if s.opts.TTL > 0 {
		pipe.Expire(ctx, key, s.opts.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to append %s score for user %s", kind, userID), err)
	}
	return nil
}

// Scores returns up to limit most recent scores in chronological order.
// A non-positive limit returns the whole retained series.
func (s *RedisStore) Scores(ctx context.Context, userID, kind string, limit int) ([]float64, error) {
	key := scoresKey(userID, kind)

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to read %s scores for user %s", kind, userID), err)
	}

	// LPUSH keeps newest first; flip to oldest first for trend input.
	scores := make([]float64, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		score, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("Skipping malformed score entry", "key", key, "value", values[i])
			}
			continue
		}
		scores = append(scores, score)
	}
	return scores, nil
}

// SaveSession stores the session as JSON under its ID.
func (s *RedisStore) SaveSession(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to encode session %s", session.ID), err)
	}

	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.opts.TTL).Err(); err != nil {
		return errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to save session %s", session.ID), err)
	}
	return nil
}

// Session loads a session by ID.
func (s *RedisStore) Session(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewHistoryError(errors.ErrCodeSessionNotFound,
			fmt.Sprintf("interview session not found: %s", id), nil)
	}
	if err != nil {
		return nil, errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to load session %s", id), err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.NewHistoryError(errors.ErrCodeHistoryStore,
			fmt.Sprintf("failed to decode session %s", id), err)
	}
	return &session, nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
