package models

import (
	"time"

	"github.com/google/uuid"
)

// Narrative is a closed label set describing a clip's role in the arc of
// the source video. Downstream consumers key off these values.
type Narrative string

const (
	NarrativeIntroducao Narrative = "INTRODUCAO"
	NarrativeContexto   Narrative = "CONTEXTO"
	NarrativeClimax     Narrative = "CLIMAX"
	NarrativeManual     Narrative = "MANUAL"
)

// Descriptor is the ephemeral output of clip selection, consumed by the
// renderer. Times are seconds relative to the source video.
type Descriptor struct {
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Duration  float64   `json:"duration"`
	Segments  []Segment `json:"segments"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	Narrative Narrative `json:"narrative"`
}

// Clip is the durable record of one rendered clip. Descriptor fields are
// frozen at render time. Clips are owned by their job: deleting the job
// deletes its clips and their backing files.
type Clip struct {
	ID    uuid.UUID `db:"id"`
	JobID uuid.UUID `db:"job_id"`

	// Index is the descriptor's position in the selection, which fixes
	// listing order regardless of render completion order.
	Index int `db:"idx"`

	Filename string  `db:"filename"`
	Path     string  `db:"path"`
	SizeMB   float64 `db:"size_mb"`

	Start     float64   `db:"start_time"`
	End       float64   `db:"end_time"`
	Duration  float64   `db:"duration"`
	Score     int       `db:"score"`
	Narrative Narrative `db:"narrative"`
	Text      string    `db:"text"`

	Caption string `db:"caption"`
	Report  string `db:"report"`

	Downloads int `db:"downloads"`
	Views     int `db:"views"`

	CreatedAt time.Time `db:"created_at"`
}
