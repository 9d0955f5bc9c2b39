package ports

import (
	"context"
	"time"

	"github.com/forPelevin/vmasub/internal/types"
)

type MediaTool interface {
	ProbeDuration(ctx context.Context, inPath string) (time.Duration, error)
	ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error
	ExtractChunk(ctx context.Context, inWav string, start, end time.Duration, outWav string) error
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath string) (types.Transcript, error)
}

// Translator returns one translation per input text, in order. An empty
// string marks a line that could not be translated.
type Translator interface {
	Translate(ctx context.Context, texts []string) ([]string, error)
}
