// Package conversation holds the per-session conversation state of the
// assistant and the stores that persist its history between runs.
//
// A [State] is owned by exactly one assistant and is only touched while that
// assistant handles a turn, so it carries no locking.
package conversation

import (
	"slices"

	"github.com/MrWong99/aura/pkg/types"
)

// Turn is one role-tagged message in the history. Turns are never modified
// after they are appended.
type Turn = types.Message

// State is the linear chat history plus the most recent main response, the
// text a "save that" command refers to.
type State struct {
	history  []Turn
	lastMain string
	hasLast  bool
}

// History returns a copy of the turns recorded so far, oldest first.
func (s *State) History() []Turn {
	return slices.Clone(s.history)
}

// Len returns the number of recorded turns.
func (s *State) Len() int { return len(s.history) }

// Append adds turns to the end of the history.
func (s *State) Append(turns ...Turn) {
	s.history = append(s.history, turns...)
}

// Replace swaps the whole history for turns, for example after loading a saved
// session. The last main response is left untouched.
func (s *State) Replace(turns []Turn) {
	s.history = slices.Clone(turns)
}

// LastMain returns the most recent main response and whether one is set.
func (s *State) LastMain() (string, bool) {
	return s.lastMain, s.hasLast
}

// SetLastMain records text as the most recent main response.
func (s *State) SetLastMain(text string) {
	s.lastMain, s.hasLast = text, true
}

// ClearLastMain forgets the most recent main response.
func (s *State) ClearLastMain() {
	s.lastMain, s.hasLast = "", false
}

// Reset empties the history and clears the last main response.
func (s *State) Reset() {
	s.history = nil
	s.ClearLastMain()
}
