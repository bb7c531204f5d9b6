// Package audio captures phrases from the microphone and plays synthesised
// clips on the speakers.
//
// [Recorder] records one phrase at a time through PortAudio, using a
// [Segmenter] to find where speech starts and ends. [Player] decodes MP3 and
// WAV files with beep. The helpers in convert.go move 16-bit PCM between
// rates and wrap it in WAV containers for STT backends.
package audio

import "time"

// Format describes the sample rate and channel count of a 16-bit PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// SpeechFormat is the format every STT provider accepts: 16 kHz mono.
var SpeechFormat = Format{SampleRate: 16000, Channels: 1}

// BytesPerSecond returns the byte rate of 16-bit PCM in this format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Duration returns the play time of n bytes of PCM in this format.
func (f Format) Duration(n int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(bps)
}

// Utterance is one captured phrase: 16-bit signed little-endian PCM and its
// format.
type Utterance struct {
	PCM    []byte
	Format Format
}

// Duration returns the length of the captured audio.
func (u Utterance) Duration() time.Duration {
	return u.Format.Duration(len(u.PCM))
}
