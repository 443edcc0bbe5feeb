package pattern

import (
	"unicode"

	"github.com/go-groovebox/groovebox/pkg/logbus"
)

// VoiceSpan describes one contiguous sounding voice: the step index it
// starts on, how many steps (including ties) it occupies, and the gate
// that should govern its duration, if any.
type VoiceSpan struct {
	Start int
	Steps int
	Gate  *Gate
}

// CompiledPattern is the flat, index-aligned form a sequencer dispatches
// from: parallel arrays rather than the recursive Step tree, so a tick
// loop can do a single slice lookup per step instead of a tree walk.
type CompiledPattern struct {
	Triggers  []bool
	Pitches   []*int
	HoldSteps []int
	Gates     []*Gate
}

// Len reports the pattern's step count.
func (c CompiledPattern) Len() int {
	return len(c.Triggers)
}

// CompileVoiceSpans pre-computes contiguous voice durations from a parsed
// step list, merging Hit/Chord steps with the Ties that follow them.
// Supports sustain/tie-aware playback independent of CompiledPattern.
func CompileVoiceSpans(steps []Step) []VoiceSpan {
	var out []VoiceSpan
	var current *VoiceSpan

	flush := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}

	for i, step := range steps {
		switch step.Kind {
		case StepHit:
			flush()
			g := step.Event.Gate
			current = &VoiceSpan{Start: i, Steps: 1, Gate: g}
		case StepTie:
			if current != nil {
				current.Steps++
			}
		case StepChord:
			flush()
			hold := 1 + countFollowingTies(steps, i)
			for range step.Chord {
				out = append(out, VoiceSpan{Start: i, Steps: hold})
			}
		case StepRest:
			flush()
		}
	}
	flush()
	return out
}

// Compile turns a parsed step list into the flat CompiledPattern a
// sequencer dispatches from.
func Compile(steps []Step) CompiledPattern {
	triggers := make([]bool, 0, len(steps))
	pitches := make([]*int, 0, len(steps))
	holds := make([]int, 0, len(steps))
	gates := make([]*Gate, 0, len(steps))

	for i, step := range steps {
		switch step.Kind {
		case StepHit:
			triggers = append(triggers, true)
			offset := step.Event.Note.PitchOffset
			pitches = append(pitches, &offset)
			holds = append(holds, 1+countFollowingTies(steps, i))
			gates = append(gates, step.Event.Gate)
		case StepChord:
			triggers = append(triggers, true)
			var offset int
			var gate *Gate
			if len(step.Chord) > 0 {
				offset = step.Chord[0].Note.PitchOffset
				gate = step.Chord[0].Gate
			}
			pitches = append(pitches, &offset)
			holds = append(holds, 1+countFollowingTies(steps, i))
			gates = append(gates, gate)
		default: // StepRest, StepTie
			triggers = append(triggers, false)
			pitches = append(pitches, nil)
			holds = append(holds, 0)
			gates = append(gates, nil)
		}
	}

	return CompiledPattern{Triggers: triggers, Pitches: pitches, HoldSteps: holds, Gates: gates}
}

// ExtractCycles returns, per step, the cycle condition attached to that
// step's root event, or nil if the step is not a Hit/Chord or carries
// none. This is kept separate from CompiledPattern (whose four arrays
// are the fixed wire shape a sequencer dispatches from) so cycle gating
// stays an optional, sequencer-side concern.
func ExtractCycles(steps []Step) []*CycleCondition {
	out := make([]*CycleCondition, len(steps))
	for i, step := range steps {
		switch step.Kind {
		case StepHit:
			out[i] = step.Event.Note.Cycle
		case StepChord:
			if len(step.Chord) > 0 {
				out[i] = step.Chord[0].Note.Cycle
			}
		}
	}
	return out
}

// ParseCompileAndCycles parses and compiles src in one step, also
// returning the per-step cycle conditions ExtractCycles would produce.
// On a parse failure it falls back the same way ParseAndCompile does,
// with no cycle conditions (the fallback tokenizer has no notion of
// per-step modifiers).
func ParseCompileAndCycles(src string) (CompiledPattern, []*CycleCondition) {
	steps, err := Parse(src)
	if err != nil {
		logbus.Warnf("pattern parse error: %v", err)
		return compileFallback(src), nil
	}
	return Compile(steps), ExtractCycles(steps)
}

func countFollowingTies(steps []Step, start int) int {
	count := 0
	for idx := start + 1; idx < len(steps); idx++ {
		if steps[idx].Kind != StepTie {
			break
		}
		count++
	}
	return count
}

// ParseAndCompile parses src and compiles the result. When src fails to
// parse, it falls back to a best-effort tokenizer over the raw
// non-whitespace characters so a typo in one track's pattern never
// silences that track entirely — the tracker degrades to simple on/off
// hits rather than dropping the track.
func ParseAndCompile(src string) CompiledPattern {
	steps, err := Parse(src)
	if err != nil {
		logbus.Warnf("pattern parse error: %v", err)
		return compileFallback(src)
	}
	return Compile(steps)
}

func compileFallback(src string) CompiledPattern {
	var triggers []bool
	var pitches []*int
	var holds []int
	var gates []*Gate
	lastHit := -1

	for _, ch := range src {
		if unicode.IsSpace(ch) {
			continue
		}
		switch ch {
		case 'x', 'X', '1', '*':
			triggers = append(triggers, true)
			pitches = append(pitches, nil)
			holds = append(holds, 1)
			gates = append(gates, nil)
			lastHit = len(triggers) - 1
		case '_':
			triggers = append(triggers, false)
			pitches = append(pitches, nil)
			holds = append(holds, 0)
			gates = append(gates, nil)
			if lastHit >= 0 {
				holds[lastHit]++
			}
		case '.':
			triggers = append(triggers, false)
			pitches = append(pitches, nil)
			holds = append(holds, 0)
			gates = append(gates, nil)
			lastHit = -1
		case '|':
			triggers = append(triggers, false)
			pitches = append(pitches, nil)
			holds = append(holds, 0)
			gates = append(gates, nil)
			lastHit = -1
		default:
			triggers = append(triggers, false)
			pitches = append(pitches, nil)
			holds = append(holds, 0)
			gates = append(gates, nil)
			lastHit = -1
		}
	}

	return CompiledPattern{Triggers: triggers, Pitches: pitches, HoldSteps: holds, Gates: gates}
}
