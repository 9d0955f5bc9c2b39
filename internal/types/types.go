package types

import "time"

// Transcript is the raw ASR output for one audio file. Times are seconds
// relative to the start of that file.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// BilingualSegment is one timed subtitle unit: the spoken English line and
// its translation. Secondary may be empty when no translation is available.
type BilingualSegment struct {
	Start     time.Duration
	End       time.Duration
	Primary   string
	Secondary string
}
