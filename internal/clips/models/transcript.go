package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// Word is a single word with its timestamps, required for subtitle
// rendering.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one utterance of the transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the transcription engine output persisted on the job.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// TotalDuration is the end of the last segment, which bounds every
// selection window.
func (t *Transcript) TotalDuration() float64 {
	if t == nil || len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// JoinText concatenates segment texts with single spaces.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

func (t Transcript) Value() (driver.Value, error) {
	return json.Marshal(t)
}

func (t *Transcript) Scan(src any) error {
	return scanJSON(src, t)
}
