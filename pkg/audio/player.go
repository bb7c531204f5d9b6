package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// DefaultPlaybackRate is the rate the speaker is initialised with. Clips in
// other rates are resampled.
const DefaultPlaybackRate = beep.SampleRate(44100)

// Player plays MP3 and WAV files on the default output device through beep.
// Playback is serialised: one clip at a time.
type Player struct {
	rate beep.SampleRate

	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
}

// NewPlayer returns a Player that drives the speaker at DefaultPlaybackRate.
func NewPlayer() *Player {
	return &Player{rate: DefaultPlaybackRate}
}

func (p *Player) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(p.rate, p.rate.N(time.Second/10))
	})
	return p.initErr
}

// PlayFile decodes the file at path, chosen by its extension (.mp3 or .wav),
// and blocks until playback finishes or ctx is cancelled.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("audio: open clip: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("audio: unsupported clip format %q", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("audio: decode clip: %w", err)
	}
	defer streamer.Close()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.init(); err != nil {
		return fmt.Errorf("audio: init speaker: %w", err)
	}

	var s beep.Streamer = streamer
	if format.SampleRate != p.rate {
		s = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
