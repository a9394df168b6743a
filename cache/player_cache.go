package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// 播放器状态按用户存放在Redis中：队列用有序集合（分数为队列位置），
// 当前歌曲用单独的字符串键。24小时过期，近似"离开播放上下文即重置"。
const playerStateTTL = 24 * time.Hour

// GetQueueKey 根据用户ID生成播放队列的Redis键
func GetQueueKey(userID int64) string {
	return fmt.Sprintf("player:queue:%d", userID)
}

// GetActiveKey 根据用户ID生成当前歌曲的Redis键
func GetActiveKey(userID int64) string {
	return fmt.Sprintf("player:active:%d", userID)
}

// SetQueue 替换用户的整个播放队列
func SetQueue(ctx context.Context, userID int64, songIDs []int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	queueKey := GetQueueKey(userID)

	// 先清空旧队列再按顺序写入，保证队列被整体替换
	if err := RedisClient.Del(ctx, queueKey).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	if len(songIDs) == 0 {
		return nil
	}

	members := make([]*redis.Z, 0, len(songIDs))
	for i, id := range songIDs {
		members = append(members, &redis.Z{
			Score:  float64(i),
			Member: strconv.FormatInt(id, 10),
		})
	}

	if err := RedisClient.ZAdd(ctx, queueKey, members...).Err(); err != nil {
		return fmt.Errorf("failed to set queue: %w", err)
	}

	if err := RedisClient.Expire(ctx, queueKey, playerStateTTL).Err(); err != nil {
		return fmt.Errorf("failed to set queue expiration: %w", err)
	}

	return nil
}

// GetQueue 获取用户的播放队列（按位置升序）
func GetQueue(ctx context.Context, userID int64) ([]int64, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	result, err := RedisClient.ZRangeByScore(ctx, GetQueueKey(userID), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return []int64{}, nil
		}
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	queue := make([]int64, 0, len(result))
	for _, member := range result {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse queue member %q: %w", member, err)
		}
		queue = append(queue, id)
	}

	return queue, nil
}

// SetActiveID 设置用户当前播放的歌曲
func SetActiveID(ctx context.Context, userID int64, songID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	err := RedisClient.Set(ctx, GetActiveKey(userID), strconv.FormatInt(songID, 10), playerStateTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set active song: %w", err)
	}
	return nil
}

// GetActiveID 获取用户当前播放的歌曲，没有则返回0
func GetActiveID(ctx context.Context, userID int64) (int64, error) {
	if RedisClient == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}

	val, err := RedisClient.Get(ctx, GetActiveKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get active song: %w", err)
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse active song id %q: %w", val, err)
	}
	return id, nil
}

// ClearActive 清除用户当前播放的歌曲
func ClearActive(ctx context.Context, userID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, GetActiveKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear active song: %w", err)
	}
	return nil
}

// ClearPlayerState 清空用户的播放器状态（队列与当前歌曲）
func ClearPlayerState(ctx context.Context, userID int64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	err := RedisClient.Del(ctx, GetQueueKey(userID), GetActiveKey(userID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear player state: %w", err)
	}
	return nil
}
