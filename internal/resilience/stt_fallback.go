package resilience

import (
	"context"

	"github.com/MrWong99/aura/pkg/audio"
	"github.com/MrWong99/aura/pkg/provider/stt"
)

// STTFallback is an [stt.Provider] that fails over across transcription
// backends, typically a whisper.cpp server backed by the in-process model.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers an additional backend.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Group exposes the underlying group for health reporting.
func (f *STTFallback) Group() *FallbackGroup[stt.Provider] { return f.group }

// Transcribe implements stt.Provider. An empty transcript is a successful
// result and does not trigger failover.
func (f *STTFallback) Transcribe(ctx context.Context, u audio.Utterance, lang string) (string, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (string, error) {
		return p.Transcribe(ctx, u, lang)
	})
}
