package audio

import (
	"github.com/go-groovebox/groovebox/pkg/effects"
	"github.com/go-groovebox/groovebox/pkg/timing"
	"github.com/gopxl/beep"
)

// VoiceOptions parameterizes one triggered playback of a Sample: pitch
// transposition, linear gain, and an optional delay effect.
type VoiceOptions struct {
	PitchSemitones int
	GainLinear     float64
	Delay          *DelayOptions
}

// DelayOptions mirrors song.Delay's feedback, mix and rhythmic time
// string, plus the tempo BuildVoice needs to resolve that string into a
// duration. The ring buffer is sized from BuildVoice's output rate.
type DelayOptions struct {
	Feedback float64
	Mix      float64
	Time     string
	BPM      uint32
}

// BuildVoice chains a fresh Streamer off sample: decode (already done),
// pitch-shift-via-resample, gain, then an optional delay — the order
// the original engine's source-adapter chain applies effects in.
func BuildVoice(sample *Sample, outputRate beep.SampleRate, opts VoiceOptions) beep.Streamer {
	var s beep.Streamer = sample.Streamer()

	if opts.PitchSemitones != 0 {
		speed := timing.PitchSemitonesToSpeed(opts.PitchSemitones)
		fakeRate := beep.SampleRate(float64(sample.Format.SampleRate) * float64(speed))
		s = beep.Resample(4, fakeRate, outputRate, s)
	}

	if opts.GainLinear != 1.0 {
		s = NewGain(s, opts.GainLinear)
	}

	if opts.Delay != nil {
		delayTime := effects.ParseDelayTime(opts.Delay.Time, opts.Delay.BPM)
		s = effects.NewDelay(s, outputRate, delayTime, opts.Delay.Feedback, opts.Delay.Mix)
	}

	return s
}
