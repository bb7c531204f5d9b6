package speech_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/aura/internal/speech"
	"github.com/MrWong99/aura/pkg/provider/tts"
	ttsmock "github.com/MrWong99/aura/pkg/provider/tts/mock"
	"github.com/MrWong99/aura/pkg/types"
)

type fakePlayer struct {
	err      error
	paths    []string
	contents [][]byte
}

func (p *fakePlayer) PlayFile(_ context.Context, path string) error {
	p.paths = append(p.paths, path)
	data, _ := os.ReadFile(path)
	p.contents = append(p.contents, data)
	return p.err
}

func TestVoiceSpeaker_PlaysAndRemovesClip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "temp_audio")
	provider := &ttsmock.Provider{Audio: &tts.Audio{Data: []byte("ID3clip"), Format: tts.FormatMP3}}
	player := &fakePlayer{}
	s := speech.NewVoiceSpeaker(provider, player, speech.WithTempDir(dir))

	if err := s.Speak(context.Background(), "namaste", types.Hindi); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(player.paths) != 1 {
		t.Fatalf("expected one playback, got %d", len(player.paths))
	}
	path := player.paths[0]
	if filepath.Dir(path) != dir {
		t.Errorf("clip written to %q, want dir %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "response_") || !strings.HasSuffix(base, ".mp3") {
		t.Errorf("unexpected clip name %q", base)
	}
	if string(player.contents[0]) != "ID3clip" {
		t.Errorf("clip content = %q", player.contents[0])
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("clip not removed after playback: %v", err)
	}
	if calls := provider.SynthesizeCalls; len(calls) != 1 || calls[0].Lang != types.Hindi {
		t.Errorf("synthesize calls = %+v", calls)
	}
}

func TestVoiceSpeaker_RemovesClipOnPlaybackError(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{err: errors.New("device busy")}
	s := speech.NewVoiceSpeaker(&ttsmock.Provider{}, player, speech.WithTempDir(t.TempDir()))

	if err := s.Speak(context.Background(), "hello", types.English); err == nil {
		t.Fatal("expected playback error")
	}
	if len(player.paths) != 1 {
		t.Fatalf("expected one playback attempt")
	}
	if _, err := os.Stat(player.paths[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("clip not removed after failed playback: %v", err)
	}
}

func TestVoiceSpeaker_SynthesisError(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	player := &fakePlayer{}
	s := speech.NewVoiceSpeaker(&ttsmock.Provider{SynthesizeErr: boom}, player, speech.WithTempDir(t.TempDir()))

	if err := s.Speak(context.Background(), "hello", types.English); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if len(player.paths) != 0 {
		t.Error("nothing should be played when synthesis fails")
	}
}

func TestVoiceSpeaker_BlankTextIsNoop(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{}
	s := speech.NewVoiceSpeaker(provider, &fakePlayer{})
	if err := s.Speak(context.Background(), "   ", types.English); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(provider.SynthesizeCalls) != 0 {
		t.Error("blank text should not be synthesised")
	}
}
