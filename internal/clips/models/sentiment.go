package models

import (
	"database/sql/driver"
	"encoding/json"
)

type SentimentLabel string

const (
	SentimentUrgente  SentimentLabel = "URGENTE"
	SentimentAlerta   SentimentLabel = "ALERTA"
	SentimentPositivo SentimentLabel = "POSITIVO"
	SentimentNeutro   SentimentLabel = "NEUTRO"
)

// Sentiment is the audio analyzer output persisted on the job.
type Sentiment struct {
	Sentiment  SentimentLabel `json:"sentiment"`
	Energy     float64        `json:"energy"`
	PitchMean  float64        `json:"pitch_mean"`
	Confidence float64        `json:"confidence"`
}

// NeutralSentiment is the safe default the pipeline falls back to when the
// analyzer fails. Analysis failures never fail the job.
func NeutralSentiment() Sentiment {
	return Sentiment{Sentiment: SentimentNeutro}
}

// Known reports whether the label belongs to the closed set. Anything else
// is treated as NEUTRO by downstream generators.
func (l SentimentLabel) Known() bool {
	switch l {
	case SentimentUrgente, SentimentAlerta, SentimentPositivo, SentimentNeutro:
		return true
	}
	return false
}

func (s Sentiment) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *Sentiment) Scan(src any) error {
	return scanJSON(src, s)
}
