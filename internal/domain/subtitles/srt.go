package subtitles

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/forPelevin/vmasub/internal/types"
)

// minCueDuration is the end time given to a segment whose upstream end is not
// after its start.
const minCueDuration = time.Millisecond

// AssembleSRT renders segments as a SubRip document. Segments are emitted in
// the order given; blocks with no primary text are skipped and do not consume
// an index. Every block, including the last, is terminated by a blank line.
func AssembleSRT(segs []types.BilingualSegment) string {
	var b strings.Builder
	idx := 0
	for _, s := range segs {
		primary := cleanLine(s.Primary)
		if primary == "" {
			continue
		}
		idx++
		start, end := cueBounds(s.Start, s.End)

		b.WriteString(strconv.Itoa(idx))
		b.WriteByte('\n')
		b.WriteString(FormatSRTTime(start))
		b.WriteString(" --> ")
		b.WriteString(FormatSRTTime(end))
		b.WriteByte('\n')
		b.WriteString(primary)
		b.WriteByte('\n')
		if secondary := cleanLine(s.Secondary); secondary != "" {
			b.WriteString(secondary)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatSRTTime formats d as HH:MM:SS,mmm. Sub-millisecond precision is
// truncated and negative values render as zero.
func FormatSRTTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	milli := int(d / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hs, ms, s, milli)
}

func cueBounds(start, end time.Duration) (time.Duration, time.Duration) {
	if start < 0 {
		start = 0
	}
	if end <= start {
		end = start + minCueDuration
	}
	return start, end
}

// cleanLine keeps a text field on a single line so it can never introduce a
// block separator.
func cleanLine(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	if s == "" {
		return ""
	}
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(strings.NewReplacer("\r", "\n").Replace(s)), " ")
}
