package transcript

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/forPelevin/vmasub/internal/types"
)

// Line is a transcript segment placed on the full media timeline.
type Line struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Part is the transcript of one audio chunk together with the chunk's
// position in the source media.
type Part struct {
	Offset     time.Duration
	Span       time.Duration
	Transcript types.Transcript
}

// Merge shifts every part onto the media timeline and returns the lines
// stable-sorted by start. A part without segments but with text becomes a
// single line spanning the chunk. Blank lines and segments with non-finite
// times are dropped.
func Merge(parts []Part) []Line {
	var out []Line
	for _, p := range parts {
		if len(p.Transcript.Segments) == 0 {
			text := strings.TrimSpace(p.Transcript.Text)
			if text != "" {
				out = append(out, Line{Start: p.Offset, End: shift(p.Offset, p.Span), Text: text})
			}
			continue
		}
		for _, s := range p.Transcript.Segments {
			text := strings.TrimSpace(s.Text)
			if text == "" || !finite(s.Start) || !finite(s.End) {
				continue
			}
			out = append(out, Line{
				Start: shift(p.Offset, Seconds(s.Start)),
				End:   shift(p.Offset, Seconds(s.End)),
				Text:  text,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Texts returns the text of each line, in order.
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Seconds converts ASR float seconds to a Duration, rounding to the nearest
// nanosecond so values such as 2.3 do not land just below a millisecond.
func Seconds(sec float64) time.Duration {
	if sec <= 0 || math.IsNaN(sec) {
		return 0
	}
	ns := math.Round(sec * float64(time.Second))
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// shift adds d to a non-negative offset, saturating at the largest Duration.
func shift(offset, d time.Duration) time.Duration {
	if d > math.MaxInt64-offset {
		return time.Duration(math.MaxInt64)
	}
	return offset + d
}
