package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/vmasub/internal/types"
)

func sec(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func TestAssembleSRT_Bilingual(t *testing.T) {
	got := AssembleSRT([]types.BilingualSegment{
		{Start: 0, End: sec(1.5), Primary: "Hello", Secondary: "你好"},
		{Start: sec(1.5), End: sec(3.0), Primary: "World", Secondary: "世界"},
	})
	want := "1\n" +
		"00:00:00,000 --> 00:00:01,500\n" +
		"Hello\n" +
		"你好\n" +
		"\n" +
		"2\n" +
		"00:00:01,500 --> 00:00:03,000\n" +
		"World\n" +
		"世界\n" +
		"\n"
	assert.Equal(t, want, got)
}

func TestAssembleSRT_Empty(t *testing.T) {
	assert.Equal(t, "", AssembleSRT(nil))
	assert.Equal(t, "", AssembleSRT([]types.BilingualSegment{}))
}

func TestAssembleSRT_ClampsNonPositiveDuration(t *testing.T) {
	tests := []struct {
		name  string
		start time.Duration
		end   time.Duration
		want  string
	}{
		{"equal", sec(2), sec(2), "00:00:02,000 --> 00:00:02,001"},
		{"inverted", sec(5), sec(4), "00:00:05,000 --> 00:00:05,001"},
		{"zero", 0, 0, "00:00:00,000 --> 00:00:00,001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssembleSRT([]types.BilingualSegment{{Start: tt.start, End: tt.end, Primary: "Oops"}})
			assert.Equal(t, "1\n"+tt.want+"\nOops\n\n", got)
		})
	}
}

func TestAssembleSRT_SkipsEmptyPrimaryWithoutGaps(t *testing.T) {
	got := AssembleSRT([]types.BilingualSegment{
		{Start: 0, End: sec(1), Primary: "one"},
		{Start: sec(1), End: sec(2), Primary: "", Secondary: "忽略"},
		{Start: sec(2), End: sec(3), Primary: "   ", Secondary: "也忽略"},
		{Start: sec(3), End: sec(4), Primary: "two"},
	})
	assert.NotContains(t, got, "忽略")

	cues, err := ParseSRT(strings.NewReader(got))
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Equal(t, 1, cues[0].Index)
	assert.Equal(t, 2, cues[1].Index)
	assert.Equal(t, []string{"two"}, cues[1].Lines)
}

func TestAssembleSRT_TextLineCount(t *testing.T) {
	got := AssembleSRT([]types.BilingualSegment{
		{Start: 0, End: sec(1), Primary: "only english"},
		{Start: sec(1), End: sec(2), Primary: "english", Secondary: "中文"},
	})
	cues, err := ParseSRT(strings.NewReader(got))
	require.NoError(t, err)
	require.Len(t, cues, 2)
	assert.Len(t, cues[0].Lines, 1)
	assert.Len(t, cues[1].Lines, 2)
}

func TestAssembleSRT_DurationPreserved(t *testing.T) {
	segs := []types.BilingualSegment{
		{Start: 1234 * time.Millisecond, End: 5678 * time.Millisecond, Primary: "a"},
		{Start: time.Hour + 2*time.Minute, End: time.Hour + 2*time.Minute + 999*time.Millisecond, Primary: "b"},
	}
	cues, err := ParseSRT(strings.NewReader(AssembleSRT(segs)))
	require.NoError(t, err)
	require.Len(t, cues, len(segs))
	for i, c := range cues {
		assert.Equal(t, segs[i].End-segs[i].Start, c.End-c.Start)
	}
}

func TestAssembleSRT_FoldsEmbeddedNewlines(t *testing.T) {
	got := AssembleSRT([]types.BilingualSegment{
		{Start: 0, End: sec(1), Primary: "first\n\nsecond", Secondary: "上\r\n下"},
	})
	assert.Equal(t, "1\n00:00:00,000 --> 00:00:01,000\nfirst second\n上 下\n\n", got)
}

func TestFormatSRTTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01,500"},
		{61*time.Second + 234*time.Millisecond + 999*time.Microsecond, "00:01:01,234"},
		{10*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond, "10:59:59,999"},
		{-time.Second, "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSRTTime(tt.in))
		})
	}
}
