package chunks

import "time"

// DefaultSize keeps each upload well under the transcription API's file limit
// for 16 kHz mono PCM.
const DefaultSize = 5 * time.Minute

type Chunk struct {
	Index int
	Start time.Duration
	End   time.Duration
}

func (c Chunk) Duration() time.Duration { return c.End - c.Start }

// Plan splits [0,total) into consecutive windows of at most size. The last
// window ends exactly at total. A non-positive size yields a single window.
func Plan(total, size time.Duration) []Chunk {
	if total <= 0 {
		return nil
	}
	if size <= 0 || size >= total {
		return []Chunk{{Index: 0, Start: 0, End: total}}
	}
	n := int((total + size - 1) / size)
	out := make([]Chunk, 0, n)
	for start := time.Duration(0); start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		out = append(out, Chunk{Index: len(out), Start: start, End: end})
	}
	return out
}
