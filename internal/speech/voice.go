package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MrWong99/aura/internal/observe"
	"github.com/MrWong99/aura/pkg/provider/tts"
	"github.com/MrWong99/aura/pkg/types"
)

// Player plays an audio file to completion. [audio.Player] is the production
// implementation.
type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// VoiceSpeaker synthesises text with a TTS provider and plays the clip.
//
// Each clip goes through a temporary file in the configured directory, which
// is removed once playback ends whether or not it succeeded.
type VoiceSpeaker struct {
	tts      tts.Provider
	player   Player
	tempDir  string
	metrics  *observe.Metrics
	provider string
}

var _ Speaker = (*VoiceSpeaker)(nil)

// VoiceOption configures a VoiceSpeaker.
type VoiceOption func(*VoiceSpeaker)

// WithTempDir sets the directory for temporary clips. Defaults to the system
// temp directory.
func WithTempDir(dir string) VoiceOption {
	return func(s *VoiceSpeaker) { s.tempDir = dir }
}

// WithSynthesisMetrics records synthesis latency under the given provider name.
func WithSynthesisMetrics(m *observe.Metrics, provider string) VoiceOption {
	return func(s *VoiceSpeaker) {
		s.metrics = m
		s.provider = provider
	}
}

// NewVoiceSpeaker returns a VoiceSpeaker using p for synthesis and player for
// playback.
func NewVoiceSpeaker(p tts.Provider, player Player, opts ...VoiceOption) *VoiceSpeaker {
	s := &VoiceSpeaker{tts: p, player: player}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Speak implements Speaker.
func (s *VoiceSpeaker) Speak(ctx context.Context, text string, lang types.Language) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	start := time.Now()
	clip, err := s.tts.Synthesize(ctx, text, lang)
	if s.metrics != nil {
		s.metrics.RecordCall(ctx, s.metrics.TTSDuration, s.provider, observe.KindTTS, start, err)
	}
	if err != nil {
		return fmt.Errorf("speech: synthesize: %w", err)
	}
	if clip == nil || len(clip.Data) == 0 {
		return errors.New("speech: synthesize: empty clip")
	}

	if s.tempDir != "" {
		if err := os.MkdirAll(s.tempDir, 0o755); err != nil {
			return fmt.Errorf("speech: create temp dir: %w", err)
		}
	}
	f, err := os.CreateTemp(s.tempDir, "response_*"+clip.Format.Ext())
	if err != nil {
		return fmt.Errorf("speech: create clip file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("speech: failed to delete clip", "path", path, "err", err)
		}
	}()

	if _, err := f.Write(clip.Data); err != nil {
		f.Close()
		return fmt.Errorf("speech: write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("speech: close clip: %w", err)
	}

	if err := s.player.PlayFile(ctx, path); err != nil {
		return fmt.Errorf("speech: play: %w", err)
	}
	return nil
}
