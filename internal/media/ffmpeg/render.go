package ffmpeg

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
)

// RenderClip extracts [Start,End) from the source, applies speed, centered
// crop to 9:16, optional burned subtitles and watermark, and encodes the
// result. Any ffmpeg failure is returned to the orchestrator as a stage
// failure; there is no retry loop here.
func (e *Executor) RenderClip(ctx context.Context, spec RenderSpec) error {
	if spec.Source == "" || spec.Output == "" {
		return fmt.Errorf("source and output paths are required")
	}
	duration := spec.End - spec.Start
	if duration <= 0 {
		return fmt.Errorf("invalid clip range: end must be after start")
	}
	speed := spec.Speed
	if speed <= 0 {
		speed = 1.0
	}

	e.logger.Info().
		Str("source", spec.Source).
		Str("output", spec.Output).
		Float64("start", spec.Start).
		Float64("duration", duration).
		Float64("speed", speed).
		Msg("rendering clip")

	args := []string{
		"-i", spec.Source,
		"-ss", formatSeconds(spec.Start),
		"-t", formatSeconds(duration),
	}
	if spec.WatermarkPath != "" {
		args = append(args, "-i", spec.WatermarkPath)
	}

	graph, videoOut, audioOut := buildFilterGraph(spec, speed)
	args = append(args,
		"-filter_complex", graph,
		"-map", videoOut,
		"-map", audioOut,
		"-c:v", DefaultVideoCodec,
		"-crf", fmt.Sprintf("%d", DefaultCRF),
		"-preset", DefaultPreset,
		"-r", fmt.Sprintf("%d", DefaultFPS),
		"-c:a", DefaultAudioCodec,
		spec.Output,
	)

	if err := e.run(ctx, args, func(line string) {
		e.logger.Debug().Str("ffmpeg", line).Msg("clip render")
	}); err != nil {
		return fmt.Errorf("clip render failed: %w", err)
	}

	e.logger.Info().Str("output", spec.Output).Msg("clip render complete")
	return nil
}

// buildFilterGraph assembles the filter_complex chain and returns the
// graph plus the output pad labels to map.
func buildFilterGraph(spec RenderSpec, speed float64) (graph, videoOut, audioOut string) {
	cw, ch, cx, cy := CropRect(spec.Width, spec.Height)

	video := []string{fmt.Sprintf("crop=%d:%d:%d:%d", cw, ch, cx, cy)}
	if speed != 1.0 {
		video = append([]string{fmt.Sprintf("setpts=PTS/%g", speed)}, video...)
	}
	if spec.SubtitlePath != "" {
		video = append(video, fmt.Sprintf("subtitles=%s", escapeFilterPath(spec.SubtitlePath)))
	}

	var chains []string
	chains = append(chains, fmt.Sprintf("[0:v]%s[base]", strings.Join(video, ",")))

	videoOut = "[base]"
	if spec.WatermarkPath != "" {
		wmWidth := int(float64(cw) * WatermarkWidthRatio)
		chains = append(chains, fmt.Sprintf(
			"[1:v]format=rgba,colorchannelmixer=aa=%.2f,scale=%d:-1[wm]",
			WatermarkOpacity, wmWidth,
		))
		chains = append(chains, fmt.Sprintf(
			"[base][wm]overlay=main_w-overlay_w-%d:%d[outv]",
			WatermarkMargin, WatermarkMargin,
		))
		videoOut = "[outv]"
	}

	audio := atempoChain(speed)
	chains = append(chains, fmt.Sprintf("[0:a]%s[outa]", audio))
	audioOut = "[outa]"

	return strings.Join(chains, ";"), videoOut, audioOut
}

// CropRect computes the centered 9:16 crop rectangle for a source of the
// given dimensions. Sources wider than the target aspect lose width,
// taller ones lose height; the crop is never a resize. Dimensions are
// rounded down to even values for the encoder.
func CropRect(w, h int) (cw, ch, x, y int) {
	if w <= 0 || h <= 0 {
		return w, h, 0, 0
	}

	targetRatio := float64(TargetAspectH) / float64(TargetAspectW)
	currentRatio := float64(h) / float64(w)

	if currentRatio >= targetRatio {
		// Too tall: crop height.
		cw = even(w)
		ch = even(int(math.Round(float64(w) * targetRatio)))
		if ch > h {
			ch = even(h)
		}
	} else {
		// Too wide: crop width.
		ch = even(h)
		cw = even(int(math.Round(float64(h) / targetRatio)))
		if cw > w {
			cw = even(w)
		}
	}

	x = (w - cw) / 2
	y = (h - ch) / 2
	return cw, ch, x, y
}

func even(v int) int { return v - v%2 }

// atempoChain builds an audio speed filter. ffmpeg's atempo accepts
// factors in [0.5, 2.0] per instance, so values outside are split into a
// chain.
func atempoChain(speed float64) string {
	if speed == 1.0 {
		return "anull"
	}

	var parts []string
	remaining := speed
	for remaining > 2.0 {
		parts = append(parts, "atempo=2.0")
		remaining /= 2.0
	}
	for remaining < 0.5 {
		parts = append(parts, "atempo=0.5")
		remaining /= 0.5
	}
	parts = append(parts, fmt.Sprintf("atempo=%g", remaining))
	return strings.Join(parts, ",")
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

// escapeFilterPath escapes a file path for use inside an ffmpeg filter
// expression.
func escapeFilterPath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	if runtime.GOOS == "windows" {
		absPath = strings.ReplaceAll(absPath, "\\", "/")
	}

	escaped := strings.ReplaceAll(absPath, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")
	return escaped
}
