// Package audio adapts decoded samples into beep streamers and owns the
// single real-time output device the sequencer mixes every voice into.
// It replaces the teacher's hand-rolled oto.Player/io.Reader binding
// with github.com/gopxl/beep/speaker, which is itself backed by the
// same oto library transitively — one real-time output path instead of
// two parallel ones for the same concern.
package audio

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Output owns the opened speaker device and the mixer every voice is
// added to. Exactly one Output should be live per process: speaker.Init
// configures a single global playback device.
type Output struct {
	SampleRate beep.SampleRate
	Mixer      *beep.Mixer
}

// OpenOutput initializes the system audio device at sampleRate with the
// given buffer latency and starts a mixer playing into it. Add to the
// returned Output's Mixer through Play, or between Lock and Unlock, since
// the speaker's callback reads it concurrently; beep.Mixer auto-prunes a streamer once it reports no more samples, so callers
// never need to track and retire finished voices themselves — the
// runtime's "voice_list" concern from the original engine is handled by
// the mixer rather than a hand-rolled slice of sinks.
func OpenOutput(sampleRate beep.SampleRate, bufferLatency time.Duration) (*Output, error) {
	bufferSize := sampleRate.N(bufferLatency)
	if err := speaker.Init(sampleRate, bufferSize); err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}
	mixer := &beep.Mixer{}
	speaker.Play(mixer)
	return &Output{SampleRate: sampleRate, Mixer: mixer}, nil
}

// Play adds a streamer to the output mixer for immediate playback.
func (o *Output) Play(s beep.Streamer) {
	speaker.Lock()
	o.Mixer.Add(s)
	speaker.Unlock()
}

// Lock pauses the speaker's callback so a caller can mutate shared
// streamer state (e.g. pausing a previous voice before adding a new
// one) without racing the audio callback goroutine.
func (o *Output) Lock() {
	speaker.Lock()
}

// Unlock resumes the speaker callback after a Lock.
func (o *Output) Unlock() {
	speaker.Unlock()
}

// Close stops playback on this output's mixer. The process-wide speaker
// device itself has no explicit close in beep's API; it is torn down
// when the process exits.
func (o *Output) Close() {
	speaker.Lock()
	o.Mixer.Clear()
	speaker.Unlock()
}
