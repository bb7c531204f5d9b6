// Package mock provides a test double for the tts.Provider interface.
//
// Use Provider to verify which utterances were sent to the TTS backend and in
// which language, and to inject synthesis failures.
//
// Example:
//
//	p := &mock.Provider{Audio: &tts.Audio{Data: []byte("ID3"), Format: tts.FormatMP3}}
//	clip, _ := p.Synthesize(ctx, "Hello", types.English)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/aura/pkg/provider/tts"
	"github.com/MrWong99/aura/pkg/types"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the utterance passed to Synthesize.
	Text string
	// Lang is the language passed to Synthesize.
	Lang types.Language
}

// Provider is a mock implementation of tts.Provider.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize. When nil a one-byte MP3 clip is returned.
	Audio *tts.Audio

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// SynthesizeCalls records every call to Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Synthesize records the call and returns Audio, SynthesizeErr.
func (p *Provider) Synthesize(ctx context.Context, text string, lang types.Language) (*tts.Audio, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, Lang: lang})
	if p.SynthesizeErr != nil {
		return nil, p.SynthesizeErr
	}
	if p.Audio != nil {
		return p.Audio, nil
	}
	return &tts.Audio{Data: []byte{0xff}, Format: tts.FormatMP3}, nil
}

// Texts returns the utterances passed to Synthesize, in order. Thread-safe.
func (p *Provider) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.SynthesizeCalls))
	for i, c := range p.SynthesizeCalls {
		out[i] = c.Text
	}
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SynthesizeCalls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
