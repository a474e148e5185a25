// Package whisper adapts the whisper CLI as the transcription engine.
// The model size is passed through opaquely from job settings.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/models"
)

type Service struct {
	logger   zerolog.Logger
	binary   string
	language string
}

func New(logger zerolog.Logger, language string) (*Service, error) {
	binary, err := exec.LookPath("whisper")
	if err != nil {
		return nil, fmt.Errorf("whisper not found in PATH: %w", err)
	}
	if language == "" {
		language = "pt"
	}
	return &Service{
		logger:   logger.With().Str("component", "whisper").Logger(),
		binary:   binary,
		language: language,
	}, nil
}

// Transcribe runs whisper over an audio file and parses the JSON output.
// Word timestamps are always requested since subtitle rendering needs
// them.
func (s *Service) Transcribe(ctx context.Context, audioPath, model string) (*models.Transcript, error) {
	if model == "" {
		model = "base"
	}

	outDir, err := os.MkdirTemp("", "whisper-")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	s.logger.Info().
		Str("audio", audioPath).
		Str("model", model).
		Msg("transcribing")

	args := []string{
		audioPath,
		"--model", model,
		"--language", s.language,
		"--output_format", "json",
		"--output_dir", outDir,
		"--word_timestamps", "True",
		"--verbose", "False",
	}

	cmd := exec.CommandContext(ctx, s.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("whisper failed: %w: %s", err, tail(string(out)))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outDir, base+".json")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	return Parse(data)
}

// Parse decodes whisper's JSON output into a transcript.
func Parse(data []byte) (*models.Transcript, error) {
	var raw struct {
		Language string `json:"language"`
		Segments []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Text  string  `json:"text"`
			Words []struct {
				Word  string  `json:"word"`
				Start float64 `json:"start"`
				End   float64 `json:"end"`
			} `json:"words"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	t := &models.Transcript{Language: raw.Language}
	for _, seg := range raw.Segments {
		segment := models.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
		for _, w := range seg.Words {
			segment.Words = append(segment.Words, models.Word{
				Word:  strings.TrimSpace(w.Word),
				Start: w.Start,
				End:   w.End,
			})
		}
		t.Segments = append(t.Segments, segment)
	}
	return t, nil
}

func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
