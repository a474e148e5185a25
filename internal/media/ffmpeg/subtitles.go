package ffmpeg

import (
	"fmt"
	"os"
	"strings"

	"github.com/binhocut/clipforge/internal/clips/models"
)

// WordsPerCaption is the fixed group size for dynamic subtitles.
const WordsPerCaption = 3

// CaptionLine is one on-screen subtitle window, in clip-relative,
// speed-adjusted seconds.
type CaptionLine struct {
	Text  string
	Start float64
	End   float64
}

// GroupWords slices the clip's word-level timestamps into fixed-size
// groups. Each group's window is shifted to clip time and divided by the
// playback speed; groups whose adjusted start falls at or beyond the
// speed-adjusted clip duration are skipped.
func GroupWords(segments []models.Segment, clipStart, clipDuration, speed float64, perGroup int) []CaptionLine {
	if perGroup <= 0 {
		perGroup = WordsPerCaption
	}
	if speed <= 0 {
		speed = 1.0
	}
	adjustedDuration := clipDuration / speed

	var words []models.Word
	for _, seg := range segments {
		words = append(words, seg.Words...)
	}

	var lines []CaptionLine
	for i := 0; i < len(words); i += perGroup {
		group := words[i:min(i+perGroup, len(words))]

		texts := make([]string, 0, len(group))
		for _, w := range group {
			if t := strings.TrimSpace(w.Word); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) == 0 {
			continue
		}

		start := (group[0].Start - clipStart) / speed
		end := (group[len(group)-1].End - clipStart) / speed
		if start >= adjustedDuration {
			continue
		}
		if start < 0 {
			start = 0
		}
		if end > adjustedDuration {
			end = adjustedDuration
		}
		if end <= start {
			end = start + 1.0/speed
		}

		lines = append(lines, CaptionLine{
			Text:  strings.Join(texts, " "),
			Start: start,
			End:   end,
		})
	}
	return lines
}

// WriteASS writes caption lines as an ASS subtitle file sized for the
// given output dimensions. The style mirrors the web player: bold white
// text with a black outline near the bottom of the frame.
func WriteASS(path string, lines []CaptionLine, fontSize, playResX, playResY int) error {
	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", playResX)
	fmt.Fprintf(&b, "PlayResY: %d\n\n", playResY)

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, Bold, Outline, Alignment, MarginV\n")
	fmt.Fprintf(&b, "Style: Default,Arial,%d,&H00FFFFFF,&H00000000,1,3,2,%d\n\n", fontSize, playResY/5)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Text\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,%s\n",
			assTimestamp(line.Start), assTimestamp(line.End), assEscape(line.Text))
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// assTimestamp formats seconds as H:MM:SS.CC.
func assTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := int(sec) % 60
	cs := int((sec - float64(int(sec))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func assEscape(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}
