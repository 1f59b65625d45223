package state

import (
	"context"
	"sync"
)

// MemoryStore keeps state in process memory. Updates for one chat are
// serialized by a per-chat lock.
type MemoryStore struct {
	mu     sync.Mutex
	states map[int64]*ConversationState
	locks  map[int64]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[int64]*ConversationState),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (s *MemoryStore) chatLock(chatID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}

func (s *MemoryStore) load(chatID int64) *ConversationState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[chatID]
	if !ok {
		return New()
	}
	return st.Clone()
}

func (s *MemoryStore) store(chatID int64, st *ConversationState) {
	c := st.Clone()
	c.normalize()

	s.mu.Lock()
	s.states[chatID] = c
	s.mu.Unlock()
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (*ConversationState, error) {
	return s.load(chatID), nil
}

func (s *MemoryStore) Save(_ context.Context, chatID int64, st *ConversationState) error {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	s.store(chatID, st)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, chatID int64, fn func(st *ConversationState) error) (*ConversationState, error) {
	l := s.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	st := s.load(chatID)
	if err := fn(st); err != nil {
		return nil, err
	}
	s.store(chatID, st)
	return s.load(chatID), nil
}
