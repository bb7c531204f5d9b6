// Package speech is the assistant's voice: it captures what the user says and
// speaks replies back.
//
// A [Listener] returns the next user utterance, either typed ([TextListener])
// or spoken and transcribed ([MicListener]). A [Speaker] delivers text to the
// user, either synthesised and played ([VoiceSpeaker]) or printed when speech
// output is disabled ([Printer]).
//
// Capture failures are reported with the sentinel errors below so the caller
// can answer each with its own apology.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/MrWong99/aura/pkg/types"
)

var (
	// ErrTimeout means no speech started within the listen timeout.
	ErrTimeout = errors.New("speech: no speech detected")

	// ErrUnrecognized means speech was captured but no words were recognised.
	ErrUnrecognized = errors.New("speech: speech not recognised")

	// ErrServiceUnavailable means the recognition service could not be reached.
	ErrServiceUnavailable = errors.New("speech: recognition service unavailable")
)

// Listener obtains the next user utterance.
type Listener interface {
	// Listen presents prompt to the user when non-empty and returns what
	// they said. io.EOF means the input is closed for good.
	Listen(ctx context.Context, prompt string) (string, error)
}

// Speaker delivers text to the user.
type Speaker interface {
	// Speak blocks until text has been fully delivered in lang.
	Speak(ctx context.Context, text string, lang types.Language) error
}

// Printer is the Speaker used when speech output is disabled. It writes each
// text as "(Aura speaking disabled): <text>".
type Printer struct {
	w    io.Writer
	name string
}

var _ Speaker = (*Printer)(nil)

// NewPrinter returns a Printer writing to w on behalf of the named assistant.
func NewPrinter(w io.Writer, name string) *Printer {
	return &Printer{w: w, name: name}
}

// Speak implements Speaker.
func (p *Printer) Speak(_ context.Context, text string, _ types.Language) error {
	if _, err := fmt.Fprintf(p.w, "(%s speaking disabled): %s\n", p.name, text); err != nil {
		return fmt.Errorf("speech: print: %w", err)
	}
	return nil
}
