// Package sequencer implements the real-time dispatch loop: one
// dedicated goroutine per running song that fires sample voices off a
// per-track schedule, accepts Stop/Update control messages, and
// publishes a live snapshot for external readers.
package sequencer

import (
	"fmt"
	"os"

	"github.com/go-groovebox/groovebox/pkg/audio"
	"github.com/go-groovebox/groovebox/pkg/logbus"
	"github.com/go-groovebox/groovebox/pkg/pattern"
	"github.com/go-groovebox/groovebox/pkg/song"
)

// DelayParams is the runtime-facing projection of song.Delay.
type DelayParams struct {
	On       bool
	Time     string
	Feedback float64
	Mix      float64
}

// LoadedTrack is a track with its sample bytes read and its pattern
// compiled, ready for the dispatch loop to schedule.
type LoadedTrack struct {
	Name       string
	SampleName string
	Sample     *audio.Sample
	LinearGain float64
	Compiled   pattern.CompiledPattern
	Div        uint32
	Muted      bool
	Solo       bool
	Delay      DelayParams
	Playback   song.PlaybackMode
	Cycles     []*pattern.CycleCondition
}

// Config is the runtime-facing projection of a song.Song: everything
// the dispatch loop needs, with no further dependency on the document
// model. Track order is preserved from the originating Song.
type Config struct {
	BPM    uint32
	Swing  uint8
	Repeat bool
	Tracks []LoadedTrack
}

// SampleLoader reads raw sample bytes for a track's sample path. The
// default passed by BuildConfig reads from the filesystem; tests inject
// a fake to avoid filesystem dependence.
type SampleLoader func(path string) ([]byte, error)

// DefaultSampleLoader reads sample bytes from disk.
func DefaultSampleLoader(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// BuildConfig snapshots a song.Song into a Config: it loads and decodes
// every track's sample and compiles its active pattern. A track with no
// sample set is skipped silently. A track whose sample is missing or
// fails to decode is skipped with a warning published to the log bus
// rather than aborting the whole build — per-track failures stay local
// so the rest of the song still plays.
func BuildConfig(s song.Song, load SampleLoader) Config {
	cfg := Config{BPM: s.BPM, Swing: s.Swing, Repeat: s.Repeat}
	for _, t := range s.Tracks {
		if t.Sample == "" {
			continue
		}
		raw, err := load(t.Sample)
		if err != nil {
			logbus.Warnf("skipping track %q: %v", t.Name, err)
			continue
		}
		sample, err := audio.DecodeSample(t.Sample, raw)
		if err != nil {
			logbus.Warnf("skipping track %q: %v", t.Name, err)
			continue
		}

		div := t.Div
		if div == 0 {
			div = 4
		} else if div > 64 {
			div = 64
		}

		compiled, cycles := pattern.ParseCompileAndCycles(t.ActivePattern())
		loaded := LoadedTrack{
			Name:       t.Name,
			SampleName: t.Sample,
			Sample:     sample,
			LinearGain: float64(audio.DBToLinearGain(t.GainDB)),
			Compiled:   compiled,
			Cycles:     cycles,
			Div:        div,
			Muted:      t.Mute,
			Solo:       t.Solo,
			Delay: DelayParams{
				On:       t.Delay.On,
				Time:     t.Delay.Time,
				Feedback: float64(t.Delay.Feedback),
				Mix:      float64(t.Delay.Mix),
			},
			Playback: t.Playback,
		}
		cfg.Tracks = append(cfg.Tracks, loaded)
	}
	return cfg
}

// Validate checks the config-level invariants the editor boundary is
// expected to enforce (bpm > 0; each track's div in [1, 64]; delay
// feedback/mix within range). BuildConfig already clamps div; Validate
// exists for callers that construct a Config directly.
func Validate(cfg Config) error {
	if cfg.BPM == 0 {
		return fmt.Errorf("bpm must be positive")
	}
	for _, t := range cfg.Tracks {
		if t.Div == 0 || t.Div > 64 {
			return fmt.Errorf("track %q: div out of range [1,64]: %d", t.Name, t.Div)
		}
		if t.Delay.Feedback < 0 || t.Delay.Feedback > 0.95 {
			return fmt.Errorf("track %q: delay feedback out of range [0,0.95]: %f", t.Name, t.Delay.Feedback)
		}
		if t.Delay.Mix < 0 || t.Delay.Mix > 1 {
			return fmt.Errorf("track %q: delay mix out of range [0,1]: %f", t.Name, t.Delay.Mix)
		}
	}
	return nil
}
