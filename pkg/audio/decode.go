package audio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// Sample is a fully decoded, in-memory sample. Decoding happens once, at
// config-build time; Streamer produces a fresh, independent playback
// cursor over the same buffered PCM data each time it's called, so
// concurrent voices never contend over one decoder's read position.
type Sample struct {
	Format beep.Format
	buffer *beep.Buffer
}

// Streamer returns a new streamer positioned at the start of the
// sample, ready to be chained through pitch/gain/delay wrappers and
// added to a mixer.
func (s *Sample) Streamer() beep.StreamSeekCloser {
	return s.buffer.Streamer(0, s.buffer.Len())
}

// DecodeSample decodes raw file bytes (selecting a decoder by filename
// extension: ".wav" or ".mp3") into a Sample.
func DecodeSample(name string, raw []byte) (*Sample, error) {
	streamer, format, err := decodeStreamer(name, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding sample %q: %w", name, err)
	}
	defer streamer.Close()

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	return &Sample{Format: format, buffer: buf}, nil
}

func decodeStreamer(name string, raw []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := nopSeekCloser{bytes.NewReader(raw)}
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".mp3"):
		return mp3.Decode(r)
	case strings.HasSuffix(strings.ToLower(name), ".wav"):
		return wav.Decode(r)
	default:
		return nil, beep.Format{}, fmt.Errorf("unsupported sample format: %s", name)
	}
}

// nopSeekCloser adapts a bytes.Reader (already a ReadSeeker) into the
// ReadSeekCloser the beep decoders require.
type nopSeekCloser struct {
	*bytes.Reader
}

func (nopSeekCloser) Close() error { return nil }

var _ io.ReadSeekCloser = nopSeekCloser{}
