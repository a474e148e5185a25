package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ExtractAudio writes the audio stream of input to a separate file.
func (e *Executor) ExtractAudio(ctx context.Context, input, output string, format AudioFormat) error {
	e.logger.Info().
		Str("input", input).
		Str("output", output).
		Str("codec", format.Codec).
		Msg("extracting audio")

	args := []string{
		"-i", input,
		"-vn",
		"-acodec", format.Codec,
		"-ar", fmt.Sprintf("%d", format.SampleRate),
		"-ac", fmt.Sprintf("%d", format.Channels),
		output,
	}

	if err := e.run(ctx, args, nil); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

// VolumeStats holds the output of ffmpeg's volumedetect filter in dBFS.
type VolumeStats struct {
	MeanVolume float64
	MaxVolume  float64
}

// Energy converts the mean dBFS level to linear RMS amplitude in [0,1].
func (v VolumeStats) Energy() float64 {
	return math.Pow(10, v.MeanVolume/20)
}

// AnalyzeVolume runs the volumedetect filter over an audio file.
func (e *Executor) AnalyzeVolume(ctx context.Context, input string) (*VolumeStats, error) {
	e.logger.Info().Str("input", input).Msg("analyzing volume")

	var buf bytes.Buffer
	var mu sync.Mutex

	args := []string{
		"-i", input,
		"-af", "volumedetect",
		"-f", "null",
		"-",
	}
	err := e.run(ctx, args, func(line string) {
		mu.Lock()
		buf.WriteString(line + "\n")
		mu.Unlock()
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("volume analysis failed: %w", err)
	}

	mu.Lock()
	output := buf.String()
	mu.Unlock()

	if output == "" {
		return nil, fmt.Errorf("volume analysis produced no output")
	}
	return parseVolumeOutput(output), nil
}

func parseVolumeOutput(output string) *VolumeStats {
	stats := &VolumeStats{}
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "mean_volume:") {
			stats.MeanVolume = parseVolumeValue(line, "mean_volume:")
		} else if strings.Contains(line, "max_volume:") {
			stats.MaxVolume = parseVolumeValue(line, "max_volume:")
		}
	}
	return stats
}

func parseVolumeValue(line, key string) float64 {
	parts := strings.Split(line, key)
	if len(parts) != 2 {
		return 0
	}
	fields := strings.Fields(strings.TrimSpace(parts[1]))
	if len(fields) == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(fields[0], 64)
	return v
}
