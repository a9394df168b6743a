package player

import (
	"context"

	"EchoFM/cache"
	"EchoFM/model"
)

// redisSelector 基于Redis的实现，队列放有序集合、当前歌曲放字符串键，
// 带24小时过期。服务端多实例部署时播放状态仍然一致。
type redisSelector struct{}

// NewRedisSelector returns a Selector backed by the shared Redis client.
// cache.ConnectRedis must have been called first.
func NewRedisSelector() Selector {
	return &redisSelector{}
}

func (s *redisSelector) SetIDs(ctx context.Context, userID int64, ids []int64) error {
	if err := cache.SetQueue(ctx, userID, ids); err != nil {
		return err
	}

	// 维持不变量：当前歌曲必须在新队列中
	activeID, err := cache.GetActiveID(ctx, userID)
	if err != nil {
		return err
	}
	if activeID == 0 {
		return nil
	}
	state := &model.PlayerState{Queue: ids}
	if !state.Contains(activeID) {
		return cache.ClearActive(ctx, userID)
	}
	return nil
}

func (s *redisSelector) SetID(ctx context.Context, userID int64, id int64) error {
	queue, err := cache.GetQueue(ctx, userID)
	if err != nil {
		return err
	}

	state := &model.PlayerState{Queue: queue}
	if !state.Contains(id) {
		return ErrNotInQueue
	}
	return cache.SetActiveID(ctx, userID, id)
}

func (s *redisSelector) State(ctx context.Context, userID int64) (*model.PlayerState, error) {
	queue, err := cache.GetQueue(ctx, userID)
	if err != nil {
		return nil, err
	}
	activeID, err := cache.GetActiveID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.PlayerState{Queue: queue, ActiveID: activeID}, nil
}

func (s *redisSelector) Reset(ctx context.Context, userID int64) error {
	return cache.ClearPlayerState(ctx, userID)
}
