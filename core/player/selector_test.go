package player

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySelector(t *testing.T) {
	ctx := context.Background()

	t.Run("empty state for unknown user", func(t *testing.T) {
		s := NewMemorySelector()

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, state.Queue)
		assert.Zero(t, state.ActiveID)
	})

	t.Run("set queue then select member", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10, 20, 30}))
		require.NoError(t, s.SetID(ctx, 1, 20))

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20, 30}, state.Queue)
		assert.Equal(t, int64(20), state.ActiveID)
	})

	t.Run("selecting a song outside the queue fails", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10, 20}))
		err := s.SetID(ctx, 1, 99)
		assert.ErrorIs(t, err, ErrNotInQueue)

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, state.ActiveID, "failed selection must not change state")
	})

	t.Run("selecting with no queue fails", func(t *testing.T) {
		s := NewMemorySelector()
		assert.ErrorIs(t, s.SetID(ctx, 1, 10), ErrNotInQueue)
	})

	t.Run("replacing queue keeps active member", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10, 20, 30}))
		require.NoError(t, s.SetID(ctx, 1, 20))
		require.NoError(t, s.SetIDs(ctx, 1, []int64{20, 40}))

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(20), state.ActiveID)
	})

	t.Run("replacing queue clears evicted active", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10, 20, 30}))
		require.NoError(t, s.SetID(ctx, 1, 20))
		require.NoError(t, s.SetIDs(ctx, 1, []int64{40, 50}))

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, state.ActiveID)
		assert.Equal(t, []int64{40, 50}, state.Queue)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10}))
		require.NoError(t, s.SetID(ctx, 1, 10))
		require.NoError(t, s.Reset(ctx, 1))

		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, state.Queue)
		assert.Zero(t, state.ActiveID)
	})

	t.Run("users are isolated", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10}))
		require.NoError(t, s.SetIDs(ctx, 2, []int64{20}))
		require.NoError(t, s.SetID(ctx, 1, 10))

		state2, err := s.State(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, state2.ActiveID)
		assert.Equal(t, []int64{20}, state2.Queue)
	})

	t.Run("returned state is a copy", func(t *testing.T) {
		s := NewMemorySelector()

		require.NoError(t, s.SetIDs(ctx, 1, []int64{10, 20}))
		state, err := s.State(ctx, 1)
		require.NoError(t, err)
		state.Queue[0] = 999

		fresh, err := s.State(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20}, fresh.Queue)
	})
}
