package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const defaultFrameMs = 20

// Recorder captures phrases from the default input device through PortAudio.
// Audio is captured at the device rate and resampled to [SpeechFormat].
//
// Open must be called before Record and Close when done. A Recorder records
// one phrase at a time.
type Recorder struct {
	deviceRate int
	frameMs    int

	mu     sync.Mutex
	opened bool
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithDeviceRate sets the capture sample rate of the input device. Defaults
// to 16000.
func WithDeviceRate(rate int) RecorderOption {
	return func(r *Recorder) { r.deviceRate = rate }
}

// NewRecorder returns a Recorder with the given options.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{deviceRate: SpeechFormat.SampleRate, frameMs: defaultFrameMs}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Open initialises PortAudio.
func (r *Recorder) Open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opened {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audio: init portaudio: %w", err)
	}
	r.opened = true
	return nil
}

// Close terminates PortAudio. Safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.opened {
		return nil
	}
	r.opened = false
	return portaudio.Terminate()
}

// Record blocks until one phrase has been captured, the listen timeout
// expires without speech ([ErrNoSpeech]), or ctx is cancelled.
func (r *Recorder) Record(ctx context.Context, cfg SegmentConfig) (Utterance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.opened {
		return Utterance{}, fmt.Errorf("audio: recorder not opened")
	}

	buf := make([]int16, r.deviceRate*r.frameMs/1000)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.deviceRate), len(buf), buf)
	if err != nil {
		return Utterance{}, fmt.Errorf("audio: open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return Utterance{}, fmt.Errorf("audio: start input stream: %w", err)
	}
	defer stream.Stop()

	seg := NewSegmenter(cfg, Format{SampleRate: r.deviceRate, Channels: 1})
	for {
		if err := ctx.Err(); err != nil {
			return Utterance{}, err
		}
		if err := stream.Read(); err != nil {
			return Utterance{}, fmt.Errorf("audio: read input stream: %w", err)
		}
		done, err := seg.Push(Int16ToBytes(buf))
		if err != nil {
			return Utterance{}, err
		}
		if done {
			break
		}
	}

	u := seg.Utterance()
	if r.deviceRate != SpeechFormat.SampleRate {
		u = Utterance{
			PCM:    ResampleMono16(u.PCM, r.deviceRate, SpeechFormat.SampleRate),
			Format: SpeechFormat,
		}
	}
	return u, nil
}
