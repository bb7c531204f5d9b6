package audio

import (
	"errors"
	"time"
)

// ErrNoSpeech is returned when no speech starts before the listen timeout.
var ErrNoSpeech = errors.New("audio: no speech before timeout")

// Default segmentation parameters.
const (
	DefaultEnergyThreshold = 500.0
	DefaultListenTimeout   = 5 * time.Second
	DefaultPhraseLimit     = 10 * time.Second
	DefaultPauseThreshold  = 800 * time.Millisecond
)

// SegmentConfig bounds a single listen.
type SegmentConfig struct {
	// Threshold is the RMS energy (int16 units) above which a frame counts
	// as speech.
	Threshold float64

	// Timeout is how long to wait for speech to start.
	Timeout time.Duration

	// PhraseLimit caps the length of a phrase once speech has started.
	PhraseLimit time.Duration

	// Pause is the trailing silence that ends a phrase.
	Pause time.Duration
}

func (c SegmentConfig) withDefaults() SegmentConfig {
	if c.Threshold <= 0 {
		c.Threshold = DefaultEnergyThreshold
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultListenTimeout
	}
	if c.PhraseLimit <= 0 {
		c.PhraseLimit = DefaultPhraseLimit
	}
	if c.Pause <= 0 {
		c.Pause = DefaultPauseThreshold
	}
	return c
}

// Segmenter turns a stream of PCM frames into one utterance using an
// energy gate. Time is measured in audio duration, not wall-clock time, so
// behaviour is deterministic for a given input.
//
// A Segmenter is single-use and not safe for concurrent use.
type Segmenter struct {
	cfg    SegmentConfig
	format Format

	waited  time.Duration
	phrase  time.Duration
	silence time.Duration
	speech  bool
	buf     []byte
}

// NewSegmenter returns a Segmenter for frames in format f.
func NewSegmenter(cfg SegmentConfig, f Format) *Segmenter {
	return &Segmenter{cfg: cfg.withDefaults(), format: f}
}

// Push feeds one frame. It reports done once the phrase is complete (trailing
// pause or phrase limit reached). Before speech starts, it returns
// [ErrNoSpeech] once the accumulated wait exceeds the timeout.
func (s *Segmenter) Push(frame []byte) (done bool, err error) {
	d := s.format.Duration(len(frame))
	loud := RMS(frame) >= s.cfg.Threshold

	if !s.speech {
		if !loud {
			s.waited += d
			if s.waited >= s.cfg.Timeout {
				return true, ErrNoSpeech
			}
			return false, nil
		}
		s.speech = true
	}

	s.buf = append(s.buf, frame...)
	s.phrase += d
	if loud {
		s.silence = 0
	} else {
		s.silence += d
	}

	if s.silence >= s.cfg.Pause || s.phrase >= s.cfg.PhraseLimit {
		return true, nil
	}
	return false, nil
}

// Utterance returns the audio captured so far, trailing pause included.
func (s *Segmenter) Utterance() Utterance {
	return Utterance{PCM: s.buf, Format: s.format}
}

// HeardSpeech reports whether any frame crossed the energy threshold.
func (s *Segmenter) HeardSpeech() bool { return s.speech }
