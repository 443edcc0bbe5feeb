package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileTriggersAndPitchesRespectOffsets(t *testing.T) {
	steps, err := Parse("x . x+7 .")
	require.NoError(t, err)
	compiled := Compile(steps)

	assert.Equal(t, []bool{true, false, true, false}, compiled.Triggers)
	require.Len(t, compiled.Pitches, 4)
	require.NotNil(t, compiled.Pitches[0])
	assert.Equal(t, 0, *compiled.Pitches[0])
	assert.Nil(t, compiled.Pitches[1])
	require.NotNil(t, compiled.Pitches[2])
	assert.Equal(t, 7, *compiled.Pitches[2])
	assert.Nil(t, compiled.Pitches[3])
}

func TestCompileHoldStepsCaptureTies(t *testing.T) {
	steps, err := Parse("x___.")
	require.NoError(t, err)
	compiled := Compile(steps)
	assert.Equal(t, []int{4, 0, 0, 0, 0}, compiled.HoldSteps)
}

func TestCompileChordUsesRootPitch(t *testing.T) {
	steps, err := Parse("x+(3,7)")
	require.NoError(t, err)
	compiled := Compile(steps)
	require.Len(t, compiled.Triggers, 1)
	assert.True(t, compiled.Triggers[0])
	require.NotNil(t, compiled.Pitches[0])
	assert.Equal(t, 0, *compiled.Pitches[0])
}

func TestCompileVoiceSpansMergeTies(t *testing.T) {
	steps, err := Parse("x__.")
	require.NoError(t, err)
	spans := CompileVoiceSpans(steps)
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 3, spans[0].Steps)
}

func TestCompileVoiceSpansOneSpanPerChordVoice(t *testing.T) {
	steps, err := Parse("x+(3,7)")
	require.NoError(t, err)
	spans := CompileVoiceSpans(steps)
	assert.Len(t, spans, 3)
}

func TestCompileVoiceSpansSeparatesConsecutiveHits(t *testing.T) {
	steps, err := Parse("x x")
	require.NoError(t, err)
	spans := CompileVoiceSpans(steps)
	require.Len(t, spans, 2)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 1, spans[0].Steps)
	assert.Equal(t, 1, spans[1].Start)
	assert.Equal(t, 1, spans[1].Steps)
}

func TestParseAndCompileFallsBackOnParseError(t *testing.T) {
	compiled := ParseAndCompile("x x$x")
	// fallback counts every non-whitespace rune; '$' is not a hit symbol.
	assert.Len(t, compiled.Triggers, 4)
	assert.Equal(t, []bool{true, true, false, true}, compiled.Triggers)
}

func TestParseAndCompileValidPatternUsesRealCompiler(t *testing.T) {
	compiled := ParseAndCompile("x . x .")
	assert.Equal(t, []bool{true, false, true, false}, compiled.Triggers)
}

func TestExtractCyclesAlignsWithHitSteps(t *testing.T) {
	steps, err := Parse("x@2/4 . x")
	require.NoError(t, err)
	cycles := ExtractCycles(steps)
	require.Len(t, cycles, 3)
	require.NotNil(t, cycles[0])
	assert.Equal(t, uint32(2), cycles[0].Hit)
	assert.Equal(t, uint32(4), cycles[0].Of)
	assert.Nil(t, cycles[1])
	assert.Nil(t, cycles[2])
}

func TestParseCompileAndCyclesFallsBackWithNilCycles(t *testing.T) {
	_, cycles := ParseCompileAndCycles("x$x")
	assert.Nil(t, cycles)
}

func TestCompileFallbackNeverDropsCharacters(t *testing.T) {
	src := "x$x_x.x"
	compiled := ParseAndCompile(src)
	nonSpace := 0
	for _, r := range src {
		if r != ' ' {
			nonSpace++
		}
	}
	assert.Equal(t, nonSpace, compiled.Len())
}
