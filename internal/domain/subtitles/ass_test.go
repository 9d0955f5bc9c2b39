package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/vmasub/internal/types"
)

func TestRenderBilingualASS_TwoLines(t *testing.T) {
	ass := RenderBilingualASS([]types.BilingualSegment{
		{Start: 0, End: 2 * time.Second, Primary: "Hello {world}", Secondary: "你好"},
		{Start: 2 * time.Second, End: 3 * time.Second, Primary: ""},
	})
	if !strings.Contains(ass, "Dialogue: 0,0:00:00.00,0:00:02.00,Bilingual,,0,0,0,,Hello (world)\\N{\\fs44}你好\n") {
		t.Fatalf("unexpected dialogue in ASS:\n%s", ass)
	}
	if n := strings.Count(ass, "Dialogue:"); n != 1 {
		t.Fatalf("expected 1 dialogue line, got %d", n)
	}
}

func TestRenderBilingualASS_ClampedCueStaysVisible(t *testing.T) {
	ass := RenderBilingualASS([]types.BilingualSegment{
		{Start: 2 * time.Second, End: 2 * time.Second, Primary: "Oops"},
	})
	if !strings.Contains(ass, "0:00:02.00,0:00:02.01,") {
		t.Fatalf("expected clamped event, got:\n%s", ass)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}
