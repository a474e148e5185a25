// Package sentiment classifies the emotional tone of a job's audio from
// its energy profile. The analyzer is deliberately forgiving: any internal
// failure degrades to a neutral result so the pipeline never fails on
// sentiment alone.
package sentiment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

// Energy thresholds for classification, linear RMS amplitude.
const (
	urgenteThreshold = 0.1
	alertaThreshold  = 0.05

	defaultConfidence = 0.75
)

type volumeAnalyzer interface {
	AnalyzeVolume(ctx context.Context, input string) (*ffmpeg.VolumeStats, error)
}

type Analyzer struct {
	logger zerolog.Logger
	ffmpeg volumeAnalyzer
}

func New(logger zerolog.Logger, exec volumeAnalyzer) *Analyzer {
	return &Analyzer{
		logger: logger.With().Str("component", "sentiment").Logger(),
		ffmpeg: exec,
	}
}

// Analyze measures the audio's mean energy and maps it to a sentiment
// label. On any failure it returns {NEUTRO,0,0,0} and logs, never an
// error.
func (a *Analyzer) Analyze(ctx context.Context, audioPath string) models.Sentiment {
	stats, err := a.ffmpeg.AnalyzeVolume(ctx, audioPath)
	if err != nil {
		a.logger.Warn().Err(err).Str("audio", audioPath).Msg("sentiment analysis degraded to neutral")
		return models.NeutralSentiment()
	}

	energy := stats.Energy()
	return models.Sentiment{
		Sentiment:  Classify(energy),
		Energy:     energy,
		PitchMean:  0,
		Confidence: defaultConfidence,
	}
}

// Classify maps linear RMS energy to the closed sentiment set.
func Classify(energy float64) models.SentimentLabel {
	switch {
	case energy > urgenteThreshold:
		return models.SentimentUrgente
	case energy > alertaThreshold:
		return models.SentimentAlerta
	default:
		return models.SentimentNeutro
	}
}
