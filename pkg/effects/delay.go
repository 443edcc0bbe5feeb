// Package effects implements per-track audio effects as beep.Streamer
// wrappers, composable the same way rodio Source adapters compose in
// the original engine this module is modeled on.
package effects

import (
	"strconv"
	"strings"
	"time"

	"github.com/gopxl/beep"
)

// maxFeedback hard-clamps delay feedback to stop the ring buffer from
// building up toward clipping on a misconfigured track.
const maxFeedback = 0.95

// delay is a tempo-synced feedback delay: a fixed-length ring buffer
// wraps the wet/dry mix around the wrapped Streamer's output.
type delay struct {
	source   beep.Streamer
	buffer   [][2]float64
	writeAt  int
	feedback float64
	mix      float64
}

// NewDelay wraps source in a ring-buffer feedback delay. delayTime is
// converted to a sample count using sampleRate; feedback is clamped to
// [0, 0.95] and mix to [0, 1].
func NewDelay(source beep.Streamer, sampleRate beep.SampleRate, delayTime time.Duration, feedback, mix float64) beep.Streamer {
	delaySamples := int(delayTime.Seconds() * float64(sampleRate))
	if delaySamples < 1 {
		delaySamples = 1
	}
	if feedback < 0 {
		feedback = 0
	} else if feedback > maxFeedback {
		feedback = maxFeedback
	}
	if mix < 0 {
		mix = 0
	} else if mix > 1 {
		mix = 1
	}
	return &delay{
		source:   source,
		buffer:   make([][2]float64, delaySamples),
		feedback: feedback,
		mix:      mix,
	}
}

// Stream implements beep.Streamer. Each channel of each frame is run
// independently through its own slot at the same ring buffer position —
// left and right have separate delay lines that advance together one
// frame at a time.
func (d *delay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.source.Stream(samples)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			input := samples[i][ch]
			delayed := d.buffer[d.writeAt][ch]
			samples[i][ch] = input*(1-d.mix) + delayed*d.mix
			d.buffer[d.writeAt][ch] = input + delayed*d.feedback
		}
		d.writeAt++
		if d.writeAt >= len(d.buffer) {
			d.writeAt = 0
		}
	}
	return n, ok
}

func (d *delay) Err() error {
	return d.source.Err()
}

// ParseDelayTime parses a rhythmic delay-time string at the given tempo:
// "Nms" for milliseconds, "N/D" for a fraction of a whole note (so "1/4"
// is one quarter note), or anything else falls back to a quarter note at
// bpm.
func ParseDelayTime(timeStr string, bpm uint32) time.Duration {
	timeStr = strings.TrimSpace(timeStr)

	if strings.HasSuffix(timeStr, "ms") {
		if ms, err := strconv.ParseFloat(strings.TrimSuffix(timeStr, "ms"), 64); err == nil {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}

	if numStr, denomStr, found := strings.Cut(timeStr, "/"); found {
		n, errN := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(denomStr), 64)
		if errN == nil && errD == nil && d > 0 && bpm > 0 {
			beats := (n / d) * 4.0
			seconds := beats * 60.0 / float64(bpm)
			return time.Duration(seconds * float64(time.Second))
		}
	}

	if bpm > 0 {
		return time.Duration(60.0 / float64(bpm) * float64(time.Second))
	}
	return 500 * time.Millisecond
}
