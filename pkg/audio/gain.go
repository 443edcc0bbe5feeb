package audio

import (
	"math"

	"github.com/gopxl/beep"
)

// DBToLinearGain converts a decibel gain into the linear multiplier a
// streamer applies to each sample: 10^(db/20).
func DBToLinearGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20.0))
}

// gain is a beep.Streamer that scales every sample of the wrapped
// streamer by a fixed linear factor.
type gain struct {
	source beep.Streamer
	factor float64
}

// NewGain wraps source, scaling its output by the linear gain factor
// (see DBToLinearGain to derive factor from a decibel value).
func NewGain(source beep.Streamer, factor float64) beep.Streamer {
	return &gain{source: source, factor: factor}
}

func (g *gain) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.source.Stream(samples)
	for i := 0; i < n; i++ {
		samples[i][0] *= g.factor
		samples[i][1] *= g.factor
	}
	return n, ok
}

func (g *gain) Err() error {
	return g.source.Err()
}
