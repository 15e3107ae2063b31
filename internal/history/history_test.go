package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/spikeclust/internal/types"
)

// counter applies integer deltas to a running total.
type counter struct {
	total int
	fail  bool
}

func (c *counter) Apply(d int) (types.Update, error) {
	if c.fail {
		return types.Update{}, errors.New("boom")
	}
	c.total += d
	return types.Update{Kind: types.KindCluster}, nil
}

func (c *counter) Revert(d int) (types.Update, error) {
	if c.fail {
		return types.Update{}, errors.New("boom")
	}
	c.total -= d
	return types.Update{Kind: types.KindCluster}, nil
}

func push(h *History[int], c *counter, d int) {
	c.total += d
	h.Push(d)
}

func TestUndoRedo_Empty(t *testing.T) {
	h := New[int](&counter{})

	_, err := h.Undo()
	assert.ErrorIs(t, err, types.ErrNoMoreHistory)
	_, err = h.Redo()
	assert.ErrorIs(t, err, types.ErrNoMoreHistory)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestUndoRedo_Linear(t *testing.T) {
	c := &counter{}
	h := New[int](c)
	for _, d := range []int{1, 10, 100} {
		push(h, c, d)
	}
	require.Equal(t, 111, c.total)

	for i := 0; i < 3; i++ {
		up, err := h.Undo()
		require.NoError(t, err)
		assert.True(t, up.Undo)
	}
	assert.Equal(t, 0, c.total)
	_, err := h.Undo()
	assert.ErrorIs(t, err, types.ErrNoMoreHistory)

	for i := 0; i < 3; i++ {
		up, err := h.Redo()
		require.NoError(t, err)
		assert.True(t, up.Redo)
	}
	assert.Equal(t, 111, c.total)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 3, h.Cursor())
}

func TestPush_DiscardsRedoTail(t *testing.T) {
	c := &counter{}
	h := New[int](c)
	push(h, c, 1)
	push(h, c, 10)

	_, err := h.Undo()
	require.NoError(t, err)
	push(h, c, 1000)

	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())
	_, err = h.Redo()
	assert.ErrorIs(t, err, types.ErrNoMoreHistory)

	_, err = h.Undo()
	require.NoError(t, err)
	_, err = h.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, c.total)
	_, err = h.Redo()
	require.NoError(t, err)
	_, err = h.Redo()
	require.NoError(t, err)
	assert.Equal(t, 1001, c.total, "the discarded action must not come back")
}

func TestUndo_FailureKeepsCursor(t *testing.T) {
	c := &counter{}
	h := New[int](c)
	push(h, c, 5)

	c.fail = true
	_, err := h.Undo()
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrNoMoreHistory))
	assert.Equal(t, 1, h.Cursor())
}

func TestClear(t *testing.T) {
	c := &counter{}
	h := New[int](c)
	push(h, c, 5)
	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.False(t, h.CanUndo())
}
