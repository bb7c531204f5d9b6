// Package mock provides a test double for the stt.Provider interface.
//
// Example:
//
//	p := &mock.Provider{Text: "hello aura"}
//	text, _ := p.Transcribe(ctx, utt, "en")
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/aura/pkg/audio"
	"github.com/MrWong99/aura/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Utterance is the audio passed to Transcribe.
	Utterance audio.Utterance
	// Lang is the language hint passed to Transcribe.
	Lang string
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// Text is returned by Transcribe.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Text, Err.
func (p *Provider) Transcribe(_ context.Context, u audio.Utterance, lang string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, TranscribeCall{Utterance: u, Lang: lang})
	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
