package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tastebud-ai/tastebud/config"
	"github.com/tastebud-ai/tastebud/models"
)

// RedisStore keeps each session as a JSON value under "session:<id>" with
// the idle TTL as the key expiry. Redis handles eviction, so there is no
// janitor here.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg config.SessionConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }

func (s *RedisStore) GetOrCreate(ctx context.Context, id, scope string) (models.Session, error) {
	if id != "" {
		sess, err := s.load(ctx, id)
		if err == nil {
			_ = s.client.Expire(ctx, sessionKey(id), s.ttl).Err()
			return sess, nil
		}
		if !errors.Is(err, redis.Nil) {
			return models.Session{}, err
		}
	}

	sess := *newSession(scope)
	if err := s.save(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Append and AppendTurn are plain read-modify-write cycles. That is safe
// because the chat orchestrator serializes turns per session with an
// in-process lock; running multiple server instances against one redis
// would need WATCH or a list-based layout instead.
func (s *RedisStore) Append(ctx context.Context, id string, role models.Role, content string) (models.Message, error) {
	sess, err := s.load(ctx, id)
	if errors.Is(err, redis.Nil) {
		fresh := newSession("")
		fresh.ID = id
		sess = *fresh
	} else if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{Role: role, Content: content, Seq: len(sess.Messages) + 1}
	sess.Messages = append(sess.Messages, msg)
	sess.LastActive = time.Now()
	if err := s.save(ctx, sess); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

func (s *RedisStore) AppendTurn(ctx context.Context, id, userContent, assistantContent string) error {
	sess, err := s.load(ctx, id)
	if errors.Is(err, redis.Nil) {
		fresh := newSession("")
		fresh.ID = id
		sess = *fresh
	} else if err != nil {
		return err
	}

	sess.Messages = append(sess.Messages,
		models.Message{Role: models.RoleUser, Content: userContent, Seq: len(sess.Messages) + 1},
		models.Message{Role: models.RoleAssistant, Content: assistantContent, Seq: len(sess.Messages) + 2},
	)
	sess.LastActive = time.Now()
	return s.save(ctx, sess)
}

func (s *RedisStore) History(ctx context.Context, id string) ([]models.Message, error) {
	sess, err := s.load(ctx, id)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) load(ctx context.Context, id string) (models.Session, error) {
	val, err := s.client.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return models.Session{}, err
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return models.Session{}, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	return s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err()
}
