package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicHitsAndRests(t *testing.T) {
	steps, err := Parse("x . x .")
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, StepHit, steps[0].Kind)
	assert.Equal(t, StepRest, steps[1].Kind)
	assert.Equal(t, StepHit, steps[2].Kind)
	assert.Equal(t, StepRest, steps[3].Kind)
}

func TestParseAccentSymbolSetsAccent(t *testing.T) {
	steps, err := Parse("X")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.True(t, steps[0].Event.Note.Accent)
}

func TestParsePitchOffsets(t *testing.T) {
	steps, err := Parse("x+7 x-3")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 7, steps[0].Event.Note.PitchOffset)
	assert.Equal(t, -3, steps[1].Event.Note.PitchOffset)
}

func TestParseTiesAreDistinctFromRests(t *testing.T) {
	steps, err := Parse("x___.")
	require.NoError(t, err)
	require.Len(t, steps, 5)
	assert.Equal(t, StepHit, steps[0].Kind)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, StepTie, steps[i].Kind)
	}
	assert.Equal(t, StepRest, steps[4].Kind)
}

func TestParseBarsAreIgnored(t *testing.T) {
	steps, err := Parse("x . | x .")
	require.NoError(t, err)
	assert.Len(t, steps, 4)
}

func TestParseComment(t *testing.T) {
	steps, err := Parse("x # trailing comment\n.")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, StepHit, steps[0].Kind)
	assert.Equal(t, StepRest, steps[1].Kind)
}

func TestParseGroupRepeat(t *testing.T) {
	steps, err := Parse("(x .)*3")
	require.NoError(t, err)
	require.Len(t, steps, 6)
	assert.Equal(t, StepHit, steps[0].Kind)
	assert.Equal(t, StepRest, steps[1].Kind)
	assert.Equal(t, StepHit, steps[4].Kind)
}

func TestParseGroupRepeatZeroIsError(t *testing.T) {
	_, err := Parse("(x)*0")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrInvalidRepeat, pe.Kind)
}

func TestParseParentheticalOfAllHitsBecomesChord(t *testing.T) {
	steps, err := Parse("(x+3 x+7)")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Equal(t, StepChord, steps[0].Kind)
	require.Len(t, steps[0].Chord, 2)
	assert.Equal(t, 3, steps[0].Chord[0].Note.PitchOffset)
	assert.Equal(t, 7, steps[0].Chord[1].Note.PitchOffset)
}

func TestParseParentheticalMixedStaysFlattened(t *testing.T) {
	steps, err := Parse("(x .)")
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, StepHit, steps[0].Kind)
	assert.Equal(t, StepRest, steps[1].Kind)
}

func TestParseChordShorthand(t *testing.T) {
	steps, err := Parse("x+(3,7)")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Equal(t, StepChord, steps[0].Kind)
	require.Len(t, steps[0].Chord, 3)
	assert.Equal(t, 0, steps[0].Chord[0].Note.PitchOffset)
	assert.Equal(t, 3, steps[0].Chord[1].Note.PitchOffset)
	assert.Equal(t, 7, steps[0].Chord[2].Note.PitchOffset)
}

func TestParseChordShorthandDedupsAndSorts(t *testing.T) {
	steps, err := Parse("x+(7,0,3,7)")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.Len(t, steps[0].Chord, 3)
	assert.Equal(t, []int{0, 3, 7}, []int{
		steps[0].Chord[0].Note.PitchOffset,
		steps[0].Chord[1].Note.PitchOffset,
		steps[0].Chord[2].Note.PitchOffset,
	})
}

func TestParseProbability(t *testing.T) {
	steps, err := Parse("x?50%")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Note.Probability)
	assert.InDelta(t, 0.5, *steps[0].Event.Note.Probability, 1e-6)
}

func TestParseProbabilityFraction(t *testing.T) {
	steps, err := Parse("x?0.25")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Note.Probability)
	assert.InDelta(t, 0.25, *steps[0].Event.Note.Probability, 1e-6)
}

func TestParseVelocity(t *testing.T) {
	steps, err := Parse("xv100")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Note.Velocity)
	assert.Equal(t, uint8(100), *steps[0].Event.Note.Velocity)
}

func TestParseVelocityOutOfRangeIsError(t *testing.T) {
	_, err := Parse("xv200")
	require.Error(t, err)
}

func TestParseRatchet(t *testing.T) {
	steps, err := Parse("x{4}")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Ratchet)
	assert.Equal(t, uint32(4), *steps[0].Event.Ratchet)
}

func TestParseCycleCondition(t *testing.T) {
	steps, err := Parse("x@2/4")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Note.Cycle)
	assert.Equal(t, uint32(2), steps[0].Event.Note.Cycle.Hit)
	assert.Equal(t, uint32(4), steps[0].Event.Note.Cycle.Of)
}

func TestParseNudgeMillis(t *testing.T) {
	steps, err := Parse("x@-5ms")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Nudge)
	assert.Equal(t, NudgeMillis, steps[0].Event.Nudge.Kind)
	assert.InDelta(t, -5.0, steps[0].Event.Nudge.Value, 1e-6)
}

func TestParseNudgePercent(t *testing.T) {
	steps, err := Parse("x@10%")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Nudge)
	assert.Equal(t, NudgePercent, steps[0].Event.Nudge.Kind)
	assert.InDelta(t, 10.0, steps[0].Event.Nudge.Value, 1e-6)
}

func TestParseAmbiguousAtRewindsToNudgeWhenNotACycle(t *testing.T) {
	// "3ms" has no '/', so try_parse_cycle must fail and rewind cleanly.
	steps, err := Parse("x@3ms")
	require.NoError(t, err)
	require.Nil(t, steps[0].Event.Note.Cycle)
	require.NotNil(t, steps[0].Event.Nudge)
	assert.Equal(t, NudgeMillis, steps[0].Event.Nudge.Kind)
}

func TestParseGateFraction(t *testing.T) {
	steps, err := Parse("x=3/4")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Gate)
	assert.Equal(t, GateFraction, steps[0].Event.Gate.Kind)
	assert.Equal(t, uint32(3), steps[0].Event.Gate.Numerator)
	assert.Equal(t, uint32(4), steps[0].Event.Gate.Denominator)
}

func TestParseGatePercent(t *testing.T) {
	steps, err := Parse("x=75%")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Gate)
	assert.Equal(t, GatePercent, steps[0].Event.Gate.Kind)
	assert.InDelta(t, 0.75, steps[0].Event.Gate.Value, 1e-6)
}

func TestParseGateFloat(t *testing.T) {
	steps, err := Parse("x=0.75")
	require.NoError(t, err)
	require.NotNil(t, steps[0].Event.Gate)
	assert.Equal(t, GateFloat, steps[0].Event.Gate.Kind)
	assert.InDelta(t, 0.75, steps[0].Event.Gate.Value, 1e-6)
}

func TestParseParamLocks(t *testing.T) {
	steps, err := Parse("x[cutoff=80,reverb]")
	require.NoError(t, err)
	require.Len(t, steps[0].Event.Note.ParamLocks, 2)
	assert.Equal(t, "cutoff", steps[0].Event.Note.ParamLocks[0].Key)
	require.NotNil(t, steps[0].Event.Note.ParamLocks[0].Value)
	assert.Equal(t, "80", *steps[0].Event.Note.ParamLocks[0].Value)
	assert.Equal(t, "reverb", steps[0].Event.Note.ParamLocks[1].Key)
	assert.Nil(t, steps[0].Event.Note.ParamLocks[1].Value)
}

func TestParseUnexpectedCloseParenIsError(t *testing.T) {
	_, err := Parse(")")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnexpectedChar, pe.Kind)
}

func TestParseUnterminatedGroupIsError(t *testing.T) {
	_, err := Parse("(x x")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrUnexpectedEnd, pe.Kind)
}

func TestParseErrorMessageIncludesPosition(t *testing.T) {
	_, err := Parse("x$")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position")
}
