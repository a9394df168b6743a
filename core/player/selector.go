package player

import (
	"context"
	"errors"

	"EchoFM/model"
)

// ErrNotInQueue 选中的歌曲不在当前队列中
var ErrNotInQueue = errors.New("active song is not a member of the queue")

// Selector is the playback state container: an ordered queue of song ids
// plus the currently active id. It is pure state: no catalog reads, no
// entitlement checks; callers gate before touching it.
//
// Invariant: the active id, if set, is always a member of the queue.
type Selector interface {
	// SetIDs replaces the whole queue. An active id that is no longer a
	// member of the new queue is cleared.
	SetIDs(ctx context.Context, userID int64, ids []int64) error
	// SetID sets the active song. The id must be in the queue.
	SetID(ctx context.Context, userID int64, id int64) error
	// State returns the current queue and active id.
	State(ctx context.Context, userID int64) (*model.PlayerState, error)
	// Reset clears the user's player state entirely.
	Reset(ctx context.Context, userID int64) error
}
