package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/forPelevin/vmasub/internal/domain/chunks"
	"github.com/forPelevin/vmasub/internal/domain/subtitles"
	"github.com/forPelevin/vmasub/internal/domain/transcript"
	"github.com/forPelevin/vmasub/internal/ports"
	"github.com/forPelevin/vmasub/internal/types"
)

type Format string

const (
	FormatSRT Format = "srt"
	FormatASS Format = "ass"
)

// Ext returns the file extension for subtitles in format f.
func (f Format) Ext() string {
	if f == FormatASS {
		return ".ass"
	}
	return ".srt"
}

type Deps struct {
	Media ports.MediaTool
	ASR   ports.ASR
	// Translator may be nil, in which case every segment is emitted with an
	// empty secondary line.
	Translator ports.Translator
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputPath string
	ChunkSize time.Duration
	Format    Format
	WorkDir   string
	Logf      func(format string, args ...any)
}

type Result struct {
	Document string
	Segments []types.BilingualSegment
	Chunks   int
	Duration time.Duration
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	total, err := u.d.Media.ProbeDuration(ctx, in.InputPath)
	if err != nil {
		return Result{}, err
	}
	logf("media duration: %s", total.Round(time.Millisecond))

	wav := filepath.Join(in.WorkDir, "full_audio.wav")
	logf("extracting audio")
	if err := u.d.Media.ExtractAudioMono16k(ctx, in.InputPath, wav); err != nil {
		return Result{}, err
	}

	plan := chunks.Plan(total, in.ChunkSize)
	parts := make([]transcript.Part, 0, len(plan))
	for _, c := range plan {
		chunkWav := wav
		// A single chunk covering the whole file is the extracted track itself.
		if len(plan) > 1 {
			chunkWav = filepath.Join(in.WorkDir, fmt.Sprintf("chunk_%03d.wav", c.Index))
			if err := u.d.Media.ExtractChunk(ctx, wav, c.Start, c.End, chunkWav); err != nil {
				return Result{}, err
			}
		}
		logf("transcribing chunk %d/%d", c.Index+1, len(plan))
		tr, err := u.d.ASR.Transcribe(ctx, chunkWav)
		if err != nil {
			return Result{}, fmt.Errorf("transcribe chunk %d/%d: %w", c.Index+1, len(plan), err)
		}
		parts = append(parts, transcript.Part{Offset: c.Start, Span: c.Duration(), Transcript: tr})
		logf("finished chunk %d/%d (%d segments)", c.Index+1, len(plan), len(tr.Segments))
	}

	lines := transcript.Merge(parts)
	secondary := make([]string, len(lines))
	if u.d.Translator != nil && len(lines) > 0 {
		logf("translating %d lines", len(lines))
		got, err := u.d.Translator.Translate(ctx, transcript.Texts(lines))
		if err != nil {
			return Result{}, fmt.Errorf("translate: %w", err)
		}
		copy(secondary, got)
		if missing := countEmpty(secondary); missing > 0 {
			logf("warning: %d of %d lines have no translation", missing, len(lines))
		}
	}

	segs := make([]types.BilingualSegment, len(lines))
	for i, l := range lines {
		segs[i] = types.BilingualSegment{
			Start:     l.Start,
			End:       l.End,
			Primary:   l.Text,
			Secondary: secondary[i],
		}
	}

	var doc string
	switch in.Format {
	case FormatASS:
		doc = subtitles.RenderBilingualASS(segs)
	default:
		doc = subtitles.AssembleSRT(segs)
	}
	return Result{Document: doc, Segments: segs, Chunks: len(plan), Duration: total}, nil
}

func countEmpty(ss []string) int {
	n := 0
	for _, s := range ss {
		if s == "" {
			n++
		}
	}
	return n
}
