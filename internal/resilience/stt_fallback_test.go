package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/aura/pkg/audio"
	sttmock "github.com/MrWong99/aura/pkg/provider/stt/mock"
)

func TestSTTFallback_Transcribe(t *testing.T) {
	t.Parallel()

	primary := &sttmock.Provider{Err: errTest}
	backup := &sttmock.Provider{Text: "hello aura"}

	f := NewSTTFallback(primary, "whisper", testFallbackConfig())
	f.AddFallback("whisper-native", backup)

	u := audio.Utterance{PCM: make([]byte, 320), Format: audio.SpeechFormat}
	text, err := f.Transcribe(context.Background(), u, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello aura" {
		t.Errorf("text = %q", text)
	}
	if len(backup.Calls) != 1 || backup.Calls[0].Lang != "en" {
		t.Errorf("backup calls = %+v", backup.Calls)
	}
}

func TestSTTFallback_EmptyTranscriptIsSuccess(t *testing.T) {
	t.Parallel()

	primary := &sttmock.Provider{Text: ""}
	backup := &sttmock.Provider{Text: "should not be used"}

	f := NewSTTFallback(primary, "whisper", testFallbackConfig())
	f.AddFallback("whisper-native", backup)

	text, err := f.Transcribe(context.Background(), audio.Utterance{}, "en")
	if err != nil || text != "" {
		t.Errorf("Transcribe = %q, %v; want empty, nil", text, err)
	}
	if len(backup.Calls) != 0 {
		t.Error("backup must not be called for an empty transcript")
	}
}

func TestSTTFallback_AllFail(t *testing.T) {
	t.Parallel()

	f := NewSTTFallback(&sttmock.Provider{Err: errTest}, "whisper", testFallbackConfig())
	if _, err := f.Transcribe(context.Background(), audio.Utterance{}, "en"); !errors.Is(err, ErrAllFailed) {
		t.Errorf("err = %v, want ErrAllFailed", err)
	}
}
