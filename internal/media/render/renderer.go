// Package render turns clip descriptors into encoded output files.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

type clipEncoder interface {
	RenderClip(ctx context.Context, spec ffmpeg.RenderSpec) error
}

// ClipRenderer prepares subtitles for a descriptor and hands the encode to
// ffmpeg. One renderer serves all jobs; it holds no per-job state.
type ClipRenderer struct {
	logger  zerolog.Logger
	encoder clipEncoder
	tempDir string
}

func New(logger zerolog.Logger, encoder clipEncoder, tempDir string) *ClipRenderer {
	return &ClipRenderer{
		logger:  logger.With().Str("component", "renderer").Logger(),
		encoder: encoder,
		tempDir: tempDir,
	}
}

// Render encodes one clip and returns the output file size in megabytes.
// The subtitle file is a per-clip temp artifact removed after the encode.
func (r *ClipRenderer) Render(ctx context.Context, job *models.Job, d models.Descriptor, output string) (float64, error) {
	spec := ffmpeg.RenderSpec{
		Source:        job.Source,
		Output:        output,
		Start:         d.Start,
		End:           d.End,
		Speed:         job.Settings.VideoSpeed,
		Width:         job.Width,
		Height:        job.Height,
		WatermarkPath: job.Settings.WatermarkPath,
	}

	if job.Settings.WithSubtitles {
		subtitlePath, err := r.writeSubtitles(job, d, output)
		if err != nil {
			return 0, err
		}
		if subtitlePath != "" {
			defer os.Remove(subtitlePath)
			spec.SubtitlePath = subtitlePath
		}
	}

	if err := r.encoder.RenderClip(ctx, spec); err != nil {
		return 0, err
	}

	info, err := os.Stat(output)
	if err != nil {
		return 0, fmt.Errorf("stat rendered clip: %w", err)
	}
	return float64(info.Size()) / (1024 * 1024), nil
}

// writeSubtitles builds the ASS file for the clip. A clip with no usable
// words renders without subtitles; this is not an error.
func (r *ClipRenderer) writeSubtitles(job *models.Job, d models.Descriptor, output string) (string, error) {
	lines := ffmpeg.GroupWords(d.Segments, d.Start, d.Duration, job.Settings.VideoSpeed, ffmpeg.WordsPerCaption)
	if len(lines) == 0 {
		return "", nil
	}

	cw, ch, _, _ := ffmpeg.CropRect(job.Width, job.Height)
	name := filepath.Base(output)
	path := filepath.Join(r.tempDir, name[:len(name)-len(filepath.Ext(name))]+".ass")

	if err := ffmpeg.WriteASS(path, lines, job.Settings.SubtitleSize, cw, ch); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	r.logger.Debug().Str("path", path).Int("lines", len(lines)).Msg("subtitles written")
	return path, nil
}
