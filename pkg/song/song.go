// Package song holds the static document model a sequencer runtime is
// built from: tempo, tracks, their patterns, and their per-track effect
// settings. It has no behavior of its own beyond pure accessors — no
// playback, no persistence (loading/saving a document is an external
// collaborator's job).
package song

import (
	"fmt"
	"strings"
)

// PlaybackMode governs how a new trigger on a track interacts with a
// voice the track is still playing.
//
// Historical serialization aliases from the document this model was
// distilled from: "clip" for Gate, "replace" for Mono. This module does
// not parse those aliases itself since song-document persistence is out
// of scope; they're recorded here only so a future document loader
// knows what it must still accept.
type PlaybackMode int

const (
	// Gate behaves like OneShot in this engine: no note-off-bearing
	// pattern form exists yet, so there is nothing to gate against.
	// Kept distinct from OneShot for forward compatibility.
	Gate PlaybackMode = iota
	// Mono cuts the track's previous still-sounding voice when a new
	// trigger fires.
	Mono
	// OneShot always plays a triggered voice to completion,
	// regardless of what the track does afterward.
	OneShot
)

func (m PlaybackMode) String() string {
	switch m {
	case Gate:
		return "gate"
	case Mono:
		return "mono"
	case OneShot:
		return "one_shot"
	default:
		return "unknown"
	}
}

// Delay is a track's per-voice delay effect configuration.
type Delay struct {
	On       bool
	Time     string // rhythmic time string, e.g. "1/4"; see pkg/effects.ParseDelayTime
	Feedback float32
	Mix      float32
}

// DefaultDelay matches the original document format's default: delay
// off, a quarter note, with a moderate feedback/mix.
func DefaultDelay() Delay {
	return Delay{On: false, Time: "1/4", Feedback: 0.35, Mix: 0.25}
}

// SampleRoot records the root pitch a sample was detected to play at.
// Populating this is out of scope for this module (pitch detection is
// an external collaborator); the struct exists so a caller can set it.
// The sequencer does not read it: playback pitch is not adjusted by a
// track's SampleRoot.
type SampleRoot struct {
	MIDINote   int
	Confidence float64
}

// Track is one voice lane: a sample, its pattern (and named variations),
// and the playback parameters the sequencer reads each tick.
type Track struct {
	Name              string
	Sample            string
	SampleRoot        *SampleRoot
	Delay             Delay
	Pattern           string // visual-notation source; empty means silent
	Variations        map[string]string
	CurrentVariation  string
	Mute              bool
	Solo              bool
	Playback          PlaybackMode
	GainDB            float32
	Div               uint32 // steps per beat; 4 => sixteenth notes
}

// NewTrack returns a Track with the document format's defaults.
func NewTrack(name string) Track {
	return Track{
		Name:     name,
		Delay:    DefaultDelay(),
		Playback: Gate,
		Div:      4,
	}
}

// ActivePattern returns the track's current variation's pattern source
// if one is selected and exists, otherwise its main pattern.
func (t Track) ActivePattern() string {
	if t.CurrentVariation != "" {
		if p, ok := t.Variations[t.CurrentVariation]; ok {
			return p
		}
	}
	return t.Pattern
}

// Song is the full document: tempo, step resolution, swing, and tracks.
type Song struct {
	BPM    uint32
	Steps  uint8
	Swing  uint8 // percent, 0..100
	Repeat bool
	Tracks []Track
}

// NewSong returns a Song with the document format's defaults (120bpm,
// 16 steps, no swing, repeating, no tracks).
func NewSong() Song {
	return Song{BPM: 120, Steps: 16, Swing: 0, Repeat: true}
}

// Summary renders a short human-readable per-track listing, useful for
// a REPL or live-viewer surface; it has no effect on playback.
func (s Song) Summary() string {
	if len(s.Tracks) == 0 {
		return "[no tracks]"
	}
	var b strings.Builder
	for i, t := range s.Tracks {
		fx := "delay off"
		if t.Delay.On {
			fx = fmt.Sprintf("delay %s fb%.2f mix%.2f", t.Delay.Time, t.Delay.Feedback, t.Delay.Mix)
		}
		fmt.Fprintf(&b, "%2d %s  %s\n", i+1, t.Name, fx)
	}
	return b.String()
}
