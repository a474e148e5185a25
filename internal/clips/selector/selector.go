// Package selector turns a transcript into an ordered list of clip
// descriptors. Both modes are deterministic: the same inputs always
// produce the same descriptors in the same order.
package selector

import (
	"strings"

	"github.com/binhocut/clipforge/internal/clips/models"
)

// Preferences bound auto-mode selection.
type Preferences struct {
	NumClips    int
	MinDuration float64
	MaxDuration float64
}

// DefaultPreferences returns the selection bounds used when the caller
// supplies none.
func DefaultPreferences(numClips int) Preferences {
	return Preferences{
		NumClips:    numClips,
		MinDuration: models.PrefMinDuration,
		MaxDuration: models.PrefMaxDuration,
	}
}

// Manual builds the single descriptor for a caller-chosen [start,end)
// range. Selected segments are those overlapping the range:
// segment.start < end && segment.end > start.
func Manual(t *models.Transcript, start, end float64) []models.Descriptor {
	var segments []models.Segment
	if t != nil {
		for _, s := range t.Segments {
			if s.Start < end && s.End > start {
				segments = append(segments, s)
			}
		}
	}

	return []models.Descriptor{{
		Start:     start,
		End:       end,
		Duration:  end - start,
		Segments:  segments,
		Text:      models.JoinText(segments),
		Score:     99,
		Narrative: models.NarrativeManual,
	}}
}

// Auto partitions the transcript timeline into equal windows and selects
// the segments fully contained in each. An empty transcript yields an
// empty result, not an error. Windows shorter than the minimum clip
// duration are dropped; ordering is the window index order, never
// re-sorted.
func Auto(t *models.Transcript, prefs Preferences, _ *models.Sentiment) []models.Descriptor {
	if t == nil || len(t.Segments) == 0 {
		return nil
	}

	numClips := prefs.NumClips
	if numClips < 1 {
		numClips = 1
	}
	if numClips > models.MaxClipsAbsolute {
		numClips = models.MaxClipsAbsolute
	}

	total := t.TotalDuration()
	if total <= 0 {
		return nil
	}

	maxDuration := prefs.MaxDuration
	if maxDuration <= 0 {
		maxDuration = models.PrefMaxDuration
	}
	clipDuration := total / float64(numClips)
	if clipDuration > maxDuration {
		clipDuration = maxDuration
	}

	descriptors := make([]models.Descriptor, 0, numClips)
	for i := 0; i < numClips; i++ {
		start := float64(i) * clipDuration
		end := start + clipDuration
		if end > total {
			end = total
		}
		if end-start < models.MinClipDuration {
			continue
		}

		var segments []models.Segment
		for _, s := range t.Segments {
			if s.Start >= start && s.End <= end {
				segments = append(segments, s)
			}
		}
		text := models.JoinText(segments)

		descriptors = append(descriptors, models.Descriptor{
			Start:     start,
			End:       end,
			Duration:  end - start,
			Segments:  segments,
			Text:      text,
			Score:     score(text),
			Narrative: narrative(i, numClips),
		})
	}
	return descriptors
}

// score rates a window by verbosity: 50 base plus 2 per word, capped at
// 100.
func score(text string) int {
	s := 50 + 2*len(strings.Fields(text))
	if s > 100 {
		s = 100
	}
	return s
}

// narrative labels a window by its position in the source's arc.
func narrative(i, numClips int) models.Narrative {
	switch {
	case i == 0:
		return models.NarrativeIntroducao
	case i == numClips-1:
		return models.NarrativeClimax
	default:
		return models.NarrativeContexto
	}
}
