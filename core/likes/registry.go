package likes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"EchoFM/logger"
	"EchoFM/model"
	"EchoFM/repository"
)

// ErrToggleInFlight 同一用户对同一首歌已有一次点赞操作在进行中
var ErrToggleInFlight = errors.New("a like toggle for this song is already in flight")

// Registry tracks per-song liked state with an optimistic local cache in
// front of the join table. A toggle is modeled as a small transaction:
// snapshot the prior state, flip the cache optimistically, attempt the
// remote write, and revert the cache if the write fails. At most one
// toggle per (user, song) key may be in flight at a time; a concurrent
// second toggle is rejected rather than queued.
type Registry struct {
	store repository.LikedSongRepository

	mu       sync.Mutex
	cache    map[likeKey]bool
	inFlight map[likeKey]struct{}
}

type likeKey struct {
	userID int64
	songID int64
}

// NewRegistry creates a like registry backed by the given store.
func NewRegistry(store repository.LikedSongRepository) *Registry {
	return &Registry{
		store:    store,
		cache:    make(map[likeKey]bool),
		inFlight: make(map[likeKey]struct{}),
	}
}

// IsLiked returns the liked state for (user, song). The first call per key
// does a point lookup against the store; later calls are served from the
// local cache until a toggle updates it.
func (r *Registry) IsLiked(ctx context.Context, userID, songID int64) (bool, error) {
	key := likeKey{userID: userID, songID: songID}

	r.mu.Lock()
	if liked, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return liked, nil
	}
	r.mu.Unlock()

	liked, err := r.store.IsLiked(ctx, userID, songID)
	if err != nil {
		// 查询失败时按未点赞处理，不污染缓存
		return false, fmt.Errorf("failed to look up liked state: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = liked
	r.mu.Unlock()
	return liked, nil
}

// Toggle flips the liked state for (user, song) and returns the resulting
// state. On a store failure the optimistic flip is reverted and the prior
// state is returned alongside the error.
func (r *Registry) Toggle(ctx context.Context, userID, songID int64) (bool, error) {
	key := likeKey{userID: userID, songID: songID}

	// 同一(user, song)键同时只允许一次变更。
	// 当前值必须在持锁状态下读出，进行中的那次切换会并发写缓存
	r.mu.Lock()
	if _, busy := r.inFlight[key]; busy {
		cur := r.cache[key]
		r.mu.Unlock()
		return cur, ErrToggleInFlight
	}
	r.inFlight[key] = struct{}{}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, key)
		r.mu.Unlock()
	}()

	// 事务快照：记录翻转前的状态，失败时回滚
	prev, err := r.IsLiked(ctx, userID, songID)
	if err != nil {
		return false, err
	}
	next := !prev

	r.mu.Lock()
	r.cache[key] = next
	r.mu.Unlock()

	if next {
		err = r.store.Like(ctx, userID, songID)
	} else {
		err = r.store.Unlike(ctx, userID, songID)
	}
	if err != nil {
		// 远端写入失败，回滚本地状态
		r.mu.Lock()
		r.cache[key] = prev
		r.mu.Unlock()
		logger.Warn("[Likes] 点赞写入失败，已回滚本地状态",
			logger.Int64("userId", userID),
			logger.Int64("songId", songID),
			logger.ErrorField(err))
		return prev, fmt.Errorf("failed to toggle like: %w", err)
	}

	return next, nil
}

// LikedSongs returns the user's liked songs, most recently liked first.
// The list always reads through to the store; only point lookups cache.
func (r *Registry) LikedSongs(ctx context.Context, userID int64) ([]*model.Song, error) {
	songs, err := r.store.GetLikedSongs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list liked songs: %w", err)
	}
	return songs, nil
}

// Invalidate drops the cached state for (user, song), forcing the next
// IsLiked to hit the store. Used after out-of-band changes.
func (r *Registry) Invalidate(userID, songID int64) {
	r.mu.Lock()
	delete(r.cache, likeKey{userID: userID, songID: songID})
	r.mu.Unlock()
}
