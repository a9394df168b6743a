package player

import (
	"context"
	"sync"

	"EchoFM/model"
)

// memorySelector 纯内存实现，测试与单机开发用
type memorySelector struct {
	mu     sync.RWMutex
	states map[int64]*model.PlayerState
}

// NewMemorySelector returns an in-process Selector.
func NewMemorySelector() Selector {
	return &memorySelector{states: make(map[int64]*model.PlayerState)}
}

func (s *memorySelector) SetIDs(ctx context.Context, userID int64, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := make([]int64, len(ids))
	copy(queue, ids)

	state, ok := s.states[userID]
	if !ok {
		s.states[userID] = &model.PlayerState{Queue: queue}
		return nil
	}

	state.Queue = queue
	// 换队列后若当前歌曲已不在队列中则清除，维持不变量
	if state.ActiveID != 0 && !state.Contains(state.ActiveID) {
		state.ActiveID = 0
	}
	return nil
}

func (s *memorySelector) SetID(ctx context.Context, userID int64, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[userID]
	if !ok || !state.Contains(id) {
		return ErrNotInQueue
	}
	state.ActiveID = id
	return nil
}

func (s *memorySelector) State(ctx context.Context, userID int64) (*model.PlayerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return &model.PlayerState{Queue: []int64{}}, nil
	}

	// 返回副本，避免调用方改到内部状态
	queue := make([]int64, len(state.Queue))
	copy(queue, state.Queue)
	return &model.PlayerState{Queue: queue, ActiveID: state.ActiveID}, nil
}

func (s *memorySelector) Reset(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
	return nil
}
