// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a batch transcription engine (a whisper.cpp server,
// the in-process whisper.cpp bindings, or a hosted API) and turns one captured
// utterance into text. Segmenting the microphone stream into utterances is the
// job of the capture layer, not of the provider.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"

	"github.com/MrWong99/aura/pkg/audio"
)

// AutoLanguage asks the provider to detect the spoken language itself.
const AutoLanguage = "auto"

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe returns the text spoken in u. lang is a two-letter language
	// hint or [AutoLanguage].
	//
	// An empty string with a nil error means the audio held no recognisable
	// speech. A non-nil error means the service itself failed.
	Transcribe(ctx context.Context, u audio.Utterance, lang string) (string, error)
}
