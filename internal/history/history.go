// Package history implements a linear undo/redo stack.
package history

import (
	"fmt"

	"github.com/user/spikeclust/internal/types"
)

// Reverter applies and reverts actions of type A.
type Reverter[A any] interface {
	Apply(A) (types.Update, error)
	Revert(A) (types.Update, error)
}

// History is a sequence of actions with a cursor. Actions before the cursor
// are applied; actions at or after it have been undone and can be redone.
type History[A any] struct {
	actions  []A
	cursor   int
	reverter Reverter[A]
}

// New creates an empty history that replays actions through r.
func New[A any](r Reverter[A]) *History[A] {
	return &History[A]{reverter: r}
}

// Push records an already applied action. Any undone actions after the
// cursor are discarded.
func (h *History[A]) Push(a A) {
	if h.cursor < len(h.actions) {
		clear(h.actions[h.cursor:])
		h.actions = h.actions[:h.cursor]
	}
	h.actions = append(h.actions, a)
	h.cursor = len(h.actions)
}

// Undo reverts the action before the cursor.
func (h *History[A]) Undo() (types.Update, error) {
	if h.cursor == 0 {
		return types.Update{}, types.ErrNoMoreHistory
	}
	up, err := h.reverter.Revert(h.actions[h.cursor-1])
	if err != nil {
		return types.Update{}, fmt.Errorf("undo action %d: %w", h.cursor-1, err)
	}
	h.cursor--
	up.Undo = true
	return up, nil
}

// Redo re-applies the action at the cursor.
func (h *History[A]) Redo() (types.Update, error) {
	if h.cursor == len(h.actions) {
		return types.Update{}, types.ErrNoMoreHistory
	}
	up, err := h.reverter.Apply(h.actions[h.cursor])
	if err != nil {
		return types.Update{}, fmt.Errorf("redo action %d: %w", h.cursor, err)
	}
	h.cursor++
	up.Redo = true
	return up, nil
}

// Len returns the number of recorded actions, including undone ones.
func (h *History[A]) Len() int { return len(h.actions) }

// Cursor returns the number of applied actions.
func (h *History[A]) Cursor() int { return h.cursor }

func (h *History[A]) CanUndo() bool { return h.cursor > 0 }

func (h *History[A]) CanRedo() bool { return h.cursor < len(h.actions) }

// Clear drops every action.
func (h *History[A]) Clear() {
	h.actions = nil
	h.cursor = 0
}
