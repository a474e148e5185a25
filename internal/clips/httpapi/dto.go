package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/binhocut/clipforge/internal/clips/models"
)

type SubmitJobRequest struct {
	UserID           uuid.UUID        `json:"user_id"`
	Source           string           `json:"source"`
	OriginalFilename string           `json:"original_filename"`
	Settings         *models.Settings `json:"settings,omitempty"`
}

type JobResponse struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	OriginalFilename string     `json:"original_filename"`
	Duration         float64    `json:"duration"`
	Status           string     `json:"status"`
	Stage            string     `json:"stage,omitempty"`
	Progress         int        `json:"progress"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type ClipResponse struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	Index     int       `json:"index"`
	Filename  string    `json:"filename"`
	SizeMB    float64   `json:"size_mb"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
	Duration  float64   `json:"duration"`
	Score     int       `json:"score"`
	Narrative string    `json:"narrative"`
	Text      string    `json:"text"`
	Caption   string    `json:"caption"`
	Report    string    `json:"report"`
	Downloads int       `json:"downloads"`
	Views     int       `json:"views"`
	CreatedAt time.Time `json:"created_at"`
}

func toJobResponse(j *models.Job) JobResponse {
	return JobResponse{
		ID:               j.ID,
		UserID:           j.UserID,
		OriginalFilename: j.OriginalFilename,
		Duration:         j.Duration,
		Status:           string(j.Status),
		Stage:            string(j.Stage),
		Progress:         j.Progress,
		Error:            j.Error,
		CreatedAt:        j.CreatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
	}
}

func toClipResponse(c *models.Clip) ClipResponse {
	return ClipResponse{
		ID:        c.ID,
		JobID:     c.JobID,
		Index:     c.Index,
		Filename:  c.Filename,
		SizeMB:    c.SizeMB,
		Start:     c.Start,
		End:       c.End,
		Duration:  c.Duration,
		Score:     c.Score,
		Narrative: string(c.Narrative),
		Text:      c.Text,
		Caption:   c.Caption,
		Report:    c.Report,
		Downloads: c.Downloads,
		Views:     c.Views,
		CreatedAt: c.CreatedAt,
	}
}

func toClipResponses(clips []models.Clip) []ClipResponse {
	out := make([]ClipResponse, 0, len(clips))
	for i := range clips {
		out = append(out, toClipResponse(&clips[i]))
	}
	return out
}
