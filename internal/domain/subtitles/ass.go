package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/vmasub/internal/types"
)

// secondaryFontSize is applied as an inline override so the translation sits
// under the English line in a smaller face.
const secondaryFontSize = 44

// RenderBilingualASS renders segments as an Advanced SubStation Alpha script
// covering the whole media timeline. Skip and clamp rules match AssembleSRT.
func RenderBilingualASS(segs []types.BilingualSegment) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range segs {
		primary := sanitizeASS(cleanLine(s.Primary))
		if primary == "" {
			continue
		}
		start, end := cueBounds(s.Start, s.End)
		// ASS has centisecond resolution; keep a visible event for 1ms cues.
		if assTime(end) == assTime(start) {
			end = start + 10*time.Millisecond
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(start))
		b.WriteString(",")
		b.WriteString(assTime(end))
		b.WriteString(",Bilingual,,0,0,0,,")
		b.WriteString(primary)
		if secondary := sanitizeASS(cleanLine(s.Secondary)); secondary != "" {
			b.WriteString(fmt.Sprintf("\\N{\\fs%d}%s", secondaryFontSize, secondary))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes
WrapStyle: 0

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Bilingual, Noto Sans CJK TC, 56, &H00FFFFFF, &H00FFFFFF, &H00000000, &H64000000, 0,0,0,0,100,100,0,0,1,3,1,2, 60,60,50,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
