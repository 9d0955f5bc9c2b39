//go:build integration

package itest

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// makeSpeechVideo renders text with espeak-ng and muxes it into a black
// 1280x720 mp4 of the given length.
func makeSpeechVideo(t *testing.T, dir, name, text string, seconds string) string {
	t.Helper()

	wav := filepath.Join(dir, name+".wav")
	cmd := exec.Command("espeak-ng", "-w", wav, text)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("espeak-ng failed: %v\n%s", err, string(b))
	}

	out := filepath.Join(dir, name+".mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=1280x720:d="+seconds,
		"-i", wav,
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return out
}

// makeSilentVideo is a cheap fixture for tests that fail before any API call.
func makeSilentVideo(t *testing.T, dir string) string {
	t.Helper()
	out := filepath.Join(dir, "silent.mp4")
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi", "-i", "color=c=black:s=320x240:d=2",
		"-f", "lavfi", "-i", "anullsrc=r=16000:cl=mono",
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		out,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}
	return out
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
