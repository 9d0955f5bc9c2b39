package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Cue is one parsed SubRip block.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Lines []string
}

// ParseSRT reads a SubRip document. It accepts CRLF line endings, a UTF-8
// BOM, and '.' as the millisecond separator.
func ParseSRT(r io.Reader) ([]Cue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out     []Cue
		block   []string
		first   = true
		lineNo  int
		startNo int
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		c, err := parseBlock(block)
		if err != nil {
			return fmt.Errorf("srt block at line %d: %w", startNo, err)
		}
		out = append(out, c)
		block = block[:0]
		return nil
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if len(block) == 0 {
			startNo = lineNo
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseBlock(lines []string) (Cue, error) {
	if len(lines) < 2 {
		return Cue{}, fmt.Errorf("expected index and time range, got %d line(s)", len(lines))
	}
	idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, fmt.Errorf("invalid index %q", lines[0])
	}
	parts := strings.Split(lines[1], "-->")
	if len(parts) != 2 {
		return Cue{}, fmt.Errorf("invalid time range %q", lines[1])
	}
	start, err := ParseSRTTime(parts[0])
	if err != nil {
		return Cue{}, err
	}
	end, err := ParseSRTTime(parts[1])
	if err != nil {
		return Cue{}, err
	}
	text := make([]string, 0, len(lines)-2)
	text = append(text, lines[2:]...)
	return Cue{Index: idx, Start: start, End: end, Lines: text}, nil
}

// ParseSRTTime parses HH:MM:SS,mmm. A '.' separator is accepted as well.
func ParseSRTTime(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes > 59 || seconds > 59 || millis > 999 || hours < 0 || minutes < 0 || seconds < 0 || millis < 0 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// Validate reports format issues in parsed cues. An empty result means the
// cues are well formed.
func Validate(cues []Cue) []string {
	var issues []string
	var prev *Cue
	for i := range cues {
		c := &cues[i]
		if c.Index != i+1 {
			issues = append(issues, fmt.Sprintf("cue %d: index %d, want %d", i+1, c.Index, i+1))
		}
		if c.End <= c.Start {
			issues = append(issues, fmt.Sprintf("cue %d: non-positive duration %s --> %s",
				c.Index, FormatSRTTime(c.Start), FormatSRTTime(c.End)))
		}
		if len(c.Lines) == 0 {
			issues = append(issues, fmt.Sprintf("cue %d: no text", c.Index))
		}
		if prev != nil {
			if c.Start < prev.Start {
				issues = append(issues, fmt.Sprintf("cue %d: starts before cue %d", c.Index, prev.Index))
			} else if c.Start < prev.End {
				issues = append(issues, fmt.Sprintf("cue %d: overlaps cue %d by %s", c.Index, prev.Index, prev.End-c.Start))
			}
		}
		prev = c
	}
	return issues
}
