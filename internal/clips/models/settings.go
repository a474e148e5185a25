package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// Clip duration bounds in seconds, applied during selection.
const (
	MinClipDuration  = 5.0
	PrefMinDuration  = 30.0
	PrefMaxDuration  = 120.0
	MaxClipsAbsolute = 10
)

// Settings is the resolved processing configuration for one job. Unknown
// JSON keys are ignored on decode; Normalize fills missing values with the
// documented defaults.
type Settings struct {
	Mode          Mode    `json:"mode"`
	NumClips      int     `json:"num_clips"`
	StartTime     float64 `json:"start_time"`
	EndTime       float64 `json:"end_time"`
	WhisperModel  string  `json:"whisper_model"`
	VideoSpeed    float64 `json:"video_speed"`
	WithSubtitles bool    `json:"with_subtitles"`
	SubtitleSize  int     `json:"subtitle_size"`
	WatermarkPath string  `json:"watermark_path,omitempty"`
}

// DefaultSettings returns the configuration used when the caller supplies
// nothing.
func DefaultSettings() Settings {
	return Settings{
		Mode:          ModeAuto,
		NumClips:      3,
		WhisperModel:  "base",
		VideoSpeed:    1.0,
		WithSubtitles: true,
		SubtitleSize:  70,
	}
}

// Normalize fills zero values with defaults and clamps num_clips to the
// absolute [1,10] range. The plan bound is applied at admission.
func (s *Settings) Normalize() {
	if s.Mode == "" {
		s.Mode = ModeAuto
	}
	if s.NumClips < 1 {
		s.NumClips = 3
	}
	if s.NumClips > MaxClipsAbsolute {
		s.NumClips = MaxClipsAbsolute
	}
	if s.WhisperModel == "" {
		s.WhisperModel = "base"
	}
	if s.VideoSpeed == 0 {
		s.VideoSpeed = 1.0
	}
	if s.SubtitleSize <= 0 {
		s.SubtitleSize = 70
	}
}

// Validate rejects configurations the pipeline cannot execute.
func (s Settings) Validate() error {
	switch s.Mode {
	case ModeAuto, ModeManual:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s.Mode)
	}
	if s.VideoSpeed <= 0 {
		return fmt.Errorf("%w: video_speed must be positive", ErrInvalidArgument)
	}
	if s.Mode == ModeManual {
		if s.StartTime < 0 || s.EndTime <= s.StartTime {
			return fmt.Errorf("%w: manual mode needs 0 <= start_time < end_time", ErrInvalidArgument)
		}
		if s.EndTime-s.StartTime < MinClipDuration {
			return fmt.Errorf("%w: manual clip shorter than %.0fs", ErrInvalidArgument, MinClipDuration)
		}
	}
	return nil
}

func (s Settings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Settings) Scan(src any) error {
	return scanJSON(src, s)
}

func scanJSON(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
}
