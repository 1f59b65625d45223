package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop-bot/pkg/redis"
)

// RedisStore keeps state as JSON under state:<chat_id>.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func getStateKey(chatID int64) string {
	return fmt.Sprintf("state:%d", chatID)
}

func decodeState(data []byte) (*ConversationState, error) {
	if data == nil {
		return New(), nil
	}

	var st ConversationState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	st.normalize()
	return &st, nil
}

func (s *RedisStore) Get(ctx context.Context, chatID int64) (*ConversationState, error) {
	data, err := s.redis.Get(ctx, getStateKey(chatID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}
	return decodeState(data)
}

func (s *RedisStore) Save(ctx context.Context, chatID int64, st *ConversationState) error {
	c := st.Clone()
	c.normalize()

	if err := s.redis.SetJSON(ctx, getStateKey(chatID), c, s.ttl); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, chatID int64, fn func(st *ConversationState) error) (*ConversationState, error) {
	var result *ConversationState

	err := s.redis.Update(ctx, getStateKey(chatID), s.ttl, func(current []byte) ([]byte, error) {
		st, err := decodeState(current)
		if err != nil {
			return nil, err
		}
		if err := fn(st); err != nil {
			return nil, err
		}
		st.normalize()
		result = st
		return json.Marshal(st)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update state: %w", err)
	}
	return result, nil
}
