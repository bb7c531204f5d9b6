package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/MrWong99/aura/internal/observe"
	"github.com/MrWong99/aura/pkg/audio"
	"github.com/MrWong99/aura/pkg/provider/stt"
	"github.com/MrWong99/aura/pkg/types"
)

// Recorder captures a single phrase. [audio.Recorder] is the production
// implementation.
type Recorder interface {
	Record(ctx context.Context, cfg audio.SegmentConfig) (audio.Utterance, error)
}

// MicListener captures one phrase from the microphone and transcribes it.
type MicListener struct {
	rec      Recorder
	stt      stt.Provider
	speaker  Speaker
	out      io.Writer
	segment  audio.SegmentConfig
	language string
	metrics  *observe.Metrics
	provider string
}

var _ Listener = (*MicListener)(nil)

// MicOption configures a MicListener.
type MicOption func(*MicListener)

// WithTimeouts sets how long to wait for speech to start and the longest
// phrase to record. Zero values keep the defaults of 5 s and 10 s.
func WithTimeouts(listen, phrase time.Duration) MicOption {
	return func(l *MicListener) {
		l.segment.Timeout = listen
		l.segment.PhraseLimit = phrase
	}
}

// WithLanguage sets the transcription language hint. Defaults to
// stt.AutoLanguage so Hindi and English are both recognised.
func WithLanguage(lang string) MicOption {
	return func(l *MicListener) { l.language = lang }
}

// WithMetrics records transcription latency under the given provider name.
func WithMetrics(m *observe.Metrics, provider string) MicOption {
	return func(l *MicListener) {
		l.metrics = m
		l.provider = provider
	}
}

// NewMicListener returns a MicListener. speaker voices the prompt before
// recording and out receives the "Listening..." and "You said: ..." lines.
func NewMicListener(rec Recorder, p stt.Provider, speaker Speaker, out io.Writer, opts ...MicOption) *MicListener {
	l := &MicListener{
		rec:      rec,
		stt:      p,
		speaker:  speaker,
		out:      out,
		language: stt.AutoLanguage,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Listen implements Listener. The transcript is returned lower-cased.
//
// Errors: [ErrTimeout] when nobody spoke, [ErrUnrecognized] when the
// transcript is empty, and [ErrServiceUnavailable] when the STT backend
// failed. Any other error is a capture failure.
func (l *MicListener) Listen(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintln(l.out, "Listening...")
	if prompt != "" {
		if err := l.speaker.Speak(ctx, prompt, types.English); err != nil {
			slog.Warn("speech: failed to voice prompt", "err", err)
		}
	}

	u, err := l.rec.Record(ctx, l.segment)
	if errors.Is(err, audio.ErrNoSpeech) {
		return "", ErrTimeout
	}
	if err != nil {
		return "", fmt.Errorf("speech: record: %w", err)
	}

	start := time.Now()
	text, err := l.stt.Transcribe(ctx, u, l.language)
	if l.metrics != nil {
		l.metrics.RecordCall(ctx, l.metrics.STTDuration, l.provider, observe.KindSTT, start, err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrUnrecognized
	}

	fmt.Fprintf(l.out, "You said: %s\n", text)
	return strings.ToLower(text), nil
}
