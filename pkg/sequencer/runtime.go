package sequencer

import (
	"sync/atomic"
	"time"

	"github.com/go-groovebox/groovebox/pkg/audio"
	"github.com/go-groovebox/groovebox/pkg/logbus"
	"github.com/go-groovebox/groovebox/pkg/song"
	"github.com/go-groovebox/groovebox/pkg/timing"
	"github.com/gopxl/beep"
)

// maxSleep bounds how long the dispatch loop ever sleeps between ticks,
// so control messages are always processed promptly.
const maxSleep = 25 * time.Millisecond

// TrackSnapshot is one track's entry in a LiveSnapshot.
type TrackSnapshot struct {
	Name       string
	TokenIndex int
	Pattern    []bool
}

// LiveSnapshot is the whole-record view external readers (a display
// surface) observe without perturbing playback timing.
type LiveSnapshot struct {
	GlobalStep uint64
	Tracks     []TrackSnapshot
}

type controlMsg struct {
	stop   bool
	update *Config
}

// trackRuntime is the mutable per-track schedule state the dispatch
// loop advances each tick.
type trackRuntime struct {
	track          LoadedTrack
	period         time.Duration
	nextFire       time.Time
	tokenIndex     int
	loopsCompleted uint32
	lastVoice      *beep.Ctrl
}

// Runtime drives one running song on a dedicated goroutine. The zero
// value is not usable; construct with Start.
type Runtime struct {
	output    *audio.Output
	controlCh chan controlMsg
	done      chan struct{}
	snapshot  atomic.Pointer[LiveSnapshot]
}

// Start launches the dispatch loop for cfg against output and returns
// immediately; the loop runs until Stop is called or (for a
// non-repeating song) every track's pattern has played through once.
func Start(cfg Config, output *audio.Output) *Runtime {
	r := &Runtime{
		output:    output,
		controlCh: make(chan controlMsg, 8),
		done:      make(chan struct{}),
	}
	go r.run(cfg)
	return r
}

// Stop halts playback and returns immediately; it does not block on the
// dispatch goroutine's exit.
func (r *Runtime) Stop() {
	select {
	case r.controlCh <- controlMsg{stop: true}:
	default:
		// Control channel full: deliver the Stop in the background once
		// the dispatch loop drains the queue, unless it has already exited.
		go func() {
			select {
			case r.controlCh <- controlMsg{stop: true}:
			case <-r.done:
			}
		}()
	}
}

// Update replaces the running song's configuration, preserving each
// surviving track's playback phase. Returns immediately.
func (r *Runtime) Update(cfg Config) {
	c := cfg
	select {
	case r.controlCh <- controlMsg{update: &c}:
	default:
		logbus.Warnf("sequencer: control channel full, dropping update")
	}
}

// Snapshot returns the most recently published LiveSnapshot and true,
// or false if no tick has run yet.
func (r *Runtime) Snapshot() (LiveSnapshot, bool) {
	p := r.snapshot.Load()
	if p == nil {
		return LiveSnapshot{}, false
	}
	return *p, true
}

// Done reports a channel that closes once the dispatch loop exits.
func (r *Runtime) Done() <-chan struct{} {
	return r.done
}

func (r *Runtime) run(cfg Config) {
	defer close(r.done)

	current := cfg
	tracks := buildRuntime(current)
	endDeadline, hasDeadline := computeEndDeadline(current, time.Now())
	var globalStep uint64

	for {
		drained, stopped := drainControl(r.controlCh)
		for _, msg := range drained {
			if msg.update != nil {
				now := time.Now()
				tracks = mergeRuntimePreservingPhase(current, *msg.update, tracks, now)
				current = *msg.update
				endDeadline, hasDeadline = computeEndDeadline(current, now)
			}
		}
		if stopped {
			return
		}

		now := time.Now()
		if hasDeadline && !now.Before(endDeadline) {
			return
		}

		anySolo := false
		for _, t := range current.Tracks {
			if t.Solo {
				anySolo = true
				break
			}
		}

		for i := range tracks {
			tr := &tracks[i]
			n := tr.track.Compiled.Len()
			for n > 0 && !now.Before(tr.nextFire) {
				idx := tr.tokenIndex % n
				hit := tr.track.Compiled.Triggers[idx]
				audible := !isEffectivelyMuted(tr.track, anySolo)

				if hit && audible && cycleAllowed(tr, idx) {
					r.fireVoice(tr, idx, current.BPM)
				}

				tr.tokenIndex++
				if tr.tokenIndex%n == 0 {
					tr.loopsCompleted++
				}
				tr.nextFire = tr.nextFire.Add(timing.StepPeriodWithSwing(current.BPM, tr.track.Div, current.Swing, tr.tokenIndex-1))
			}
		}

		globalStep++
		r.publishSnapshot(globalStep, tracks)

		sleepFor := nextSleep(tracks, now)
		time.Sleep(sleepFor)
	}
}

// cycleAllowed implements open-question resolution (b): a step carrying
// a cycle condition only fires on the matching pass through the
// pattern. The track's loopsCompleted counts full pattern traversals;
// the pass currently underway is loopsCompleted+1, one-based to match
// the "k-th of every N cycles" reading of @K/M in the pattern source.
func cycleAllowed(tr *trackRuntime, idx int) bool {
	if idx >= len(tr.track.Cycles) {
		return true
	}
	cond := tr.track.Cycles[idx]
	if cond == nil || cond.Of == 0 {
		return true
	}
	currentCycle := tr.loopsCompleted + 1
	return currentCycle%cond.Of == cond.Hit%cond.Of
}

func isEffectivelyMuted(t LoadedTrack, anySolo bool) bool {
	if anySolo {
		return !t.Solo
	}
	return t.Muted
}

func (r *Runtime) fireVoice(tr *trackRuntime, idx int, bpm uint32) {
	if tr.track.Sample == nil {
		return
	}
	pitch := 0
	if p := tr.track.Compiled.Pitches[idx]; p != nil {
		pitch = *p
	}

	opts := audio.VoiceOptions{
		PitchSemitones: pitch,
		GainLinear:     tr.track.LinearGain,
	}
	if tr.track.Delay.On {
		opts.Delay = &audio.DelayOptions{
			Feedback: tr.track.Delay.Feedback,
			Mix:      tr.track.Delay.Mix,
			Time:     tr.track.Delay.Time,
			BPM:      bpm,
		}
	}

	voice := audio.BuildVoice(tr.track.Sample, r.output.SampleRate, opts)
	ctrl := &beep.Ctrl{Streamer: voice}

	r.output.Lock()
	if tr.track.Playback == song.Mono && tr.lastVoice != nil {
		tr.lastVoice.Paused = true
	}
	r.output.Mixer.Add(ctrl)
	r.output.Unlock()

	tr.lastVoice = ctrl
}

func (r *Runtime) publishSnapshot(globalStep uint64, tracks []trackRuntime) {
	snap := &LiveSnapshot{GlobalStep: globalStep, Tracks: make([]TrackSnapshot, len(tracks))}
	for i, tr := range tracks {
		snap.Tracks[i] = TrackSnapshot{
			Name:       tr.track.Name,
			TokenIndex: tr.tokenIndex,
			Pattern:    tr.track.Compiled.Triggers,
		}
	}
	r.snapshot.Store(snap)
}

func drainControl(ch chan controlMsg) (msgs []controlMsg, stopped bool) {
	for {
		select {
		case msg := <-ch:
			if msg.stop {
				return msgs, true
			}
			msgs = append(msgs, msg)
		default:
			return msgs, false
		}
	}
}

func buildRuntime(cfg Config) []trackRuntime {
	now := time.Now()
	out := make([]trackRuntime, len(cfg.Tracks))
	for i, t := range cfg.Tracks {
		out[i] = trackRuntime{
			track:    t,
			period:   timing.BaseStepPeriod(cfg.BPM, t.Div),
			nextFire: now,
		}
	}
	return out
}

func computeEndDeadline(cfg Config, now time.Time) (time.Time, bool) {
	if cfg.Repeat {
		return time.Time{}, false
	}
	var maxSecs float64
	for _, t := range cfg.Tracks {
		n := t.Compiled.Len()
		if n == 0 {
			continue
		}
		period := timing.BaseStepPeriod(cfg.BPM, t.Div).Seconds()
		secs := float64(n) * period
		if secs > maxSecs {
			maxSecs = secs
		}
	}
	return now.Add(time.Duration(maxSecs * float64(time.Second))), true
}

// mergeRuntimePreservingPhase rebuilds per-track schedule state for a
// new config, matching tracks to their predecessor by name so that a
// tempo or pattern change reshapes periods without re-quantizing the
// playhead, per the hot-reload contract.
func mergeRuntimePreservingPhase(oldCfg, newCfg Config, oldRT []trackRuntime, now time.Time) []trackRuntime {
	byName := make(map[string]*trackRuntime, len(oldRT))
	for i := range oldRT {
		byName[oldRT[i].track.Name] = &oldRT[i]
	}

	out := make([]trackRuntime, len(newCfg.Tracks))
	for i, t := range newCfg.Tracks {
		newPeriod := timing.BaseStepPeriod(newCfg.BPM, t.Div)
		old, found := byName[t.Name]
		if !found {
			out[i] = trackRuntime{track: t, period: newPeriod, nextFire: now.Add(newPeriod)}
			continue
		}

		remainingOld := timeUntilNext(now, old.nextFire, old.period)
		var remainingNew time.Duration
		if old.period > 0 {
			scale := newPeriod.Seconds() / old.period.Seconds()
			secs := remainingOld.Seconds() * scale
			if secs < 0 {
				secs = 0
			}
			remainingNew = time.Duration(secs * float64(time.Second))
		} else {
			remainingNew = newPeriod
		}

		n := t.Compiled.Len()
		tokenIndex := 0
		if n > 0 {
			tokenIndex = old.tokenIndex % n
		}

		out[i] = trackRuntime{
			track:          t,
			period:         newPeriod,
			nextFire:       now.Add(remainingNew),
			tokenIndex:     tokenIndex,
			loopsCompleted: old.loopsCompleted,
		}
	}
	return out
}

func timeUntilNext(now, nextFire time.Time, period time.Duration) time.Duration {
	if period <= 0 {
		return 0
	}
	if nextFire.After(now) {
		return nextFire.Sub(now)
	}
	p := period.Seconds()
	late := now.Sub(nextFire).Seconds()
	rem := p - mod(late, p)
	if rem == p {
		return 0
	}
	return time.Duration(rem * float64(time.Second))
}

func mod(a, m float64) float64 {
	r := a
	for r >= m {
		r -= m
	}
	return r
}

func nextSleep(tracks []trackRuntime, now time.Time) time.Duration {
	wait := maxSleep
	for _, tr := range tracks {
		if tr.track.Compiled.Len() == 0 {
			continue
		}
		due := tr.nextFire.Sub(now)
		if due < wait {
			wait = due
		}
	}
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	if wait > maxSleep {
		wait = maxSleep
	}
	return wait
}
