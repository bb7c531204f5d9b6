// Package mock provides test doubles for speech.Listener and speech.Speaker.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/MrWong99/aura/internal/speech"
	"github.com/MrWong99/aura/pkg/types"
)

// Input is one scripted Listen result.
type Input struct {
	Text string
	Err  error
}

// Listener replays scripted inputs in order. Once the script is exhausted
// every call returns io.EOF.
type Listener struct {
	mu sync.Mutex

	// Inputs are returned one per Listen call.
	Inputs []Input

	// Prompts records the prompt of every Listen call in order.
	Prompts []string
}

var _ speech.Listener = (*Listener)(nil)

// Lines returns a Listener that yields each line as a successful input.
func Lines(lines ...string) *Listener {
	l := &Listener{}
	for _, s := range lines {
		l.Inputs = append(l.Inputs, Input{Text: s})
	}
	return l
}

// Listen implements speech.Listener.
func (l *Listener) Listen(ctx context.Context, prompt string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Prompts = append(l.Prompts, prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(l.Inputs) == 0 {
		return "", io.EOF
	}
	in := l.Inputs[0]
	l.Inputs = l.Inputs[1:]
	return in.Text, in.Err
}

// Utterance records a single Speak call.
type Utterance struct {
	Text string
	Lang types.Language
}

// Speaker records everything it is asked to say.
type Speaker struct {
	mu sync.Mutex

	// Err, if non-nil, is returned from every Speak call.
	Err error

	// Spoken records every Speak call in order.
	Spoken []Utterance
}

var _ speech.Speaker = (*Speaker)(nil)

// Speak implements speech.Speaker.
func (s *Speaker) Speak(_ context.Context, text string, lang types.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Spoken = append(s.Spoken, Utterance{Text: text, Lang: lang})
	return s.Err
}

// Texts returns the spoken texts in order. Thread-safe.
func (s *Speaker) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Spoken))
	for i, u := range s.Spoken {
		out[i] = u.Text
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (s *Speaker) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Spoken = nil
}
