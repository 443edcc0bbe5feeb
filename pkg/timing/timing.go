// Package timing holds the pure, stateless arithmetic behind step
// scheduling: step periods, swing, gate durations, and the pitch-to-
// playback-speed mapping. None of it touches a clock or a goroutine —
// that belongs to pkg/sequencer, which calls these functions.
package timing

import (
	"math"
	"time"

	"github.com/go-groovebox/groovebox/pkg/pattern"
)

// BaseStepPeriod is the nominal duration of one step at the given tempo
// and step subdivision (e.g. div=4 for sixteenth notes in 4/4).
func BaseStepPeriod(bpm uint32, div uint32) time.Duration {
	if div == 0 {
		div = 1
	}
	seconds := 60.0 / float64(bpm) / float64(div)
	return time.Duration(seconds * float64(time.Second))
}

// swingFraction maps a swing percentage (0..100) onto the 0.0..0.5 long/
// short split applied to alternating steps; 0% is no swing, 100% is the
// extreme 50%/150% split.
func swingFraction(swingPercent uint8) float64 {
	f := float64(swingPercent) / 100.0
	if f > 1.0 {
		f = 1.0
	}
	return f * 0.5
}

// StepPeriodWithSwing returns the swung duration of the step at
// tokenIndex: even indices run long, odd indices run short, so that any
// adjacent long/short pair sums to exactly twice the base period.
func StepPeriodWithSwing(bpm uint32, div uint32, swingPercent uint8, tokenIndex int) time.Duration {
	base := BaseStepPeriod(bpm, div)
	if swingPercent == 0 || div == 0 {
		return base
	}
	f := swingFraction(swingPercent)
	baseSec := base.Seconds()
	factor := 1.0 - f
	if tokenIndex%2 == 0 {
		factor = 1.0 + f
	}
	return time.Duration(baseSec * factor * float64(time.Second))
}

// GateDuration computes how long, within stepPeriod, a voice should
// sound once a gate modifier is applied.
func GateDuration(stepPeriod time.Duration, gate pattern.Gate) time.Duration {
	switch gate.Kind {
	case pattern.GateFraction:
		if gate.Denominator == 0 {
			return 0
		}
		frac := float64(gate.Numerator) / float64(gate.Denominator)
		return time.Duration(stepPeriod.Seconds() * frac * float64(time.Second))
	case pattern.GatePercent:
		frac := clamp01(float64(gate.Value))
		return time.Duration(stepPeriod.Seconds() * frac * float64(time.Second))
	case pattern.GateFloat:
		frac := clamp01(float64(gate.Value))
		return time.Duration(stepPeriod.Seconds() * frac * float64(time.Second))
	default:
		return stepPeriod
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PitchSemitonesToSpeed converts a signed semitone offset into the
// playback-rate multiplier that produces that pitch shift when fed into
// a resampler (2^(semitones/12)).
func PitchSemitonesToSpeed(semitones int) float32 {
	return float32(math.Pow(2, float64(semitones)/12.0))
}
