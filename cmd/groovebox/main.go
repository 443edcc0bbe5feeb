// Command groovebox builds a demo song from the kick/snare/hat sample
// paths given as flags, starts its sequencer, and opens a read-only live
// viewer onto the running pattern grid.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/go-groovebox/groovebox/pkg/audio"
	"github.com/go-groovebox/groovebox/pkg/logbus"
	"github.com/go-groovebox/groovebox/pkg/sequencer"
	"github.com/go-groovebox/groovebox/pkg/song"
	"github.com/go-groovebox/groovebox/pkg/tui"
)

const outputSampleRate = 44100

func main() {
	bpm := flag.Uint("bpm", 120, "tempo in beats per minute")
	kick := flag.String("kick", "", "path to the kick sample (wav or mp3)")
	snare := flag.String("snare", "", "path to the snare sample (wav or mp3)")
	hat := flag.String("hat", "", "path to the hihat sample (wav or mp3)")
	flag.Parse()

	s := song.NewSong()
	s.BPM = uint32(*bpm)

	if *kick != "" {
		t := song.NewTrack("kick")
		t.Sample = *kick
		t.Pattern = "x . . . x . . . x . . . x . . ."
		s.Tracks = append(s.Tracks, t)
	}
	if *snare != "" {
		t := song.NewTrack("snare")
		t.Sample = *snare
		t.Pattern = ". . . . x . . . . . . . x . . ."
		s.Tracks = append(s.Tracks, t)
	}
	if *hat != "" {
		t := song.NewTrack("hat")
		t.Sample = *hat
		t.Pattern = "x x x x x x x x x x x x x x x x"
		s.Tracks = append(s.Tracks, t)
	}
	if len(s.Tracks) == 0 {
		fmt.Fprintln(os.Stderr, "no samples given; pass at least one of -kick/-snare/-hat")
		os.Exit(1)
	}

	logbus.Infof("loading %d track(s) at %d bpm", len(s.Tracks), s.BPM)

	cfg := sequencer.BuildConfig(s, sequencer.DefaultSampleLoader)
	if err := sequencer.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	if len(cfg.Tracks) == 0 {
		fmt.Fprintln(os.Stderr, "every track failed to load; nothing to play")
		os.Exit(1)
	}

	out, err := audio.OpenOutput(outputSampleRate, 50*time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening audio output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	rt := sequencer.Start(cfg, out)
	defer rt.Stop()

	model := tui.NewModel("groovebox", s, rt)
	if _, err := tea.NewProgram(model).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "viewer error: %v\n", err)
		os.Exit(1)
	}
}
