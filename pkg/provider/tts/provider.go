// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (Google Translate TTS,
// OpenAI, ElevenLabs, or a local Coqui server) and turns a complete utterance
// into an encoded audio clip that the playback layer can decode and play.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/MrWong99/aura/pkg/types"
)

// Format identifies the container/codec of a synthesised clip.
type Format string

const (
	// FormatMP3 is MPEG-1 Layer III audio.
	FormatMP3 Format = "mp3"

	// FormatWAV is a RIFF/WAVE container with 16-bit PCM samples.
	FormatWAV Format = "wav"
)

// Ext returns the file extension for the format, including the leading dot.
func (f Format) Ext() string { return "." + string(f) }

// Audio is one synthesised utterance.
type Audio struct {
	// Data holds the encoded clip.
	Data []byte

	// Format describes how Data is encoded.
	Format Format
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into a single audio clip spoken in lang.
	// Providers that cannot honour lang fall back to their default voice.
	//
	// Returns an error if synthesis fails or ctx is cancelled. A nil error
	// guarantees a non-nil Audio with non-empty Data.
	Synthesize(ctx context.Context, text string, lang types.Language) (*Audio, error)
}
