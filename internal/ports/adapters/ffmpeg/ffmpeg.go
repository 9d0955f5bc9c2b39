package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inPath, outWav string) error {
	return a.run(ctx, "ffmpeg extract audio", extractArgs(inPath, outWav))
}

func (a *Adapter) ExtractChunk(ctx context.Context, inWav string, start, end time.Duration, outWav string) error {
	return a.run(ctx, "ffmpeg extract chunk", chunkArgs(inWav, start, end, outWav))
}

func (a *Adapter) ProbeDuration(ctx context.Context, inPath string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inPath,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	return parseDuration(string(b))
}

func (a *Adapter) run(ctx context.Context, what string, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", what, err, string(b))
	}
	return nil
}

func extractArgs(inPath, outWav string) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	}
}

func chunkArgs(inWav string, start, end time.Duration, outWav string) []string {
	return []string{
		"-y",
		"-i", inWav,
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	}
}

func parseDuration(out string) (time.Duration, error) {
	s := strings.TrimSpace(out)
	// ffprobe prints N/A for streams without a container duration.
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe duration: unknown duration %q", s)
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if sec < 0 {
		return 0, fmt.Errorf("parse duration %q: negative", s)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
