package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/clips/worklock"
)

type progressCall struct {
	stage models.Stage
	pct   int
}

func testTranscript() *models.Transcript {
	return &models.Transcript{
		Language: "pt",
		Segments: []models.Segment{
			{Start: 0, End: 25, Text: "primeira parte", Words: []models.Word{
				{Word: "primeira", Start: 0, End: 1}, {Word: "parte", Start: 1, End: 2},
			}},
			{Start: 31, End: 55, Text: "segunda parte"},
			{Start: 61, End: 90, Text: "terceira parte"},
		},
	}
}

func testJob(mode models.Mode) *models.Job {
	settings := models.DefaultSettings()
	settings.Mode = mode
	if mode == models.ModeManual {
		settings.StartTime = 10
		settings.EndTime = 40
	}
	return &models.Job{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Source:           "/videos/source.mp4",
		OriginalFilename: "source.mp4",
		Duration:         90,
		Width:            1920,
		Height:           1080,
		Status:           models.ProcessingStatus,
		Stage:            models.StageExtractingAudio,
		Settings:         settings,
	}
}

type fixture struct {
	store    *StoreMock
	renderer *RendererMock
	notifier *notifierStub
	orch     *Orchestrator
}

func newFixture(t *testing.T, job *models.Job, transcript *models.Transcript, sent models.Sentiment) *fixture {
	t.Helper()

	f := &fixture{
		store:    new(StoreMock),
		renderer: new(RendererMock),
		notifier: &notifierStub{},
	}

	orch, err := New(Config{
		Store:     f.store,
		Locker:    worklock.NewLocalLocker(),
		Audio:     audioStub{},
		Transcrib: transcriberStub{transcript: transcript},
		Sentiment: sentimentStub{result: sent},
		Renderer:  f.renderer,
		Notifier:  f.notifier,
		Logger:    zerolog.Nop(),
		TempDir:   t.TempDir(),
		OutDir:    t.TempDir(),
	})
	require.NoError(t, err)
	f.orch = orch

	f.store.On("CheckoutJob", mock.Anything, job.ID).Return(job, nil).Once()
	return f
}

func (f *fixture) recordProgress(dst *[]progressCall) {
	f.store.On("ReportProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*dst = append(*dst, progressCall{args.Get(2).(models.Stage), args.Int(3)})
		}).
		Return(nil)
}

func TestRun_AutoModeCompletes(t *testing.T) {
	job := testJob(models.ModeAuto)
	sent := models.Sentiment{Sentiment: models.SentimentUrgente, Energy: 0.2, Confidence: 0.75}
	f := newFixture(t, job, testTranscript(), sent)

	var reports []progressCall
	f.recordProgress(&reports)
	f.store.On("SaveArtifacts", mock.Anything, job.ID, mock.Anything, mock.Anything).Return(nil).Once()

	f.renderer.On("Render", mock.Anything, job, mock.Anything, mock.Anything).Return(8.5, nil).Times(3)

	var completed []models.Clip
	f.store.On("CompleteJob", mock.Anything, job.ID, mock.Anything).
		Run(func(args mock.Arguments) {
			completed = args.Get(2).([]models.Clip)
		}).
		Return(nil).
		Once()

	require.NoError(t, f.orch.Run(context.Background(), job.ID))

	// Progress climbs through the stage bands and never regresses.
	want := []progressCall{
		{models.StageAnalyzingSentiment, 5},
		{models.StageTranscribing, 15},
		{models.StageSelectingClips, 50},
		{models.StageRendering, 63},
		{models.StageRendering, 76},
		{models.StageRendering, 90},
		{models.StageFinalizing, 90},
	}
	assert.Equal(t, want, reports)

	require.Len(t, completed, 3)
	for i, c := range completed {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, job.ID, c.JobID)
		assert.Equal(t, 8.5, c.SizeMB)
		assert.NotEmpty(t, c.Caption)
		assert.Contains(t, c.Report, "SENTIMENTO: URGENTE")
	}
	assert.Equal(t, models.NarrativeIntroducao, completed[0].Narrative)
	assert.Equal(t, models.NarrativeClimax, completed[2].Narrative)

	assert.Equal(t, 1, f.notifier.calls)
	f.store.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
	f.renderer.AssertExpectations(t)
}

func TestRun_ManualModeSingleClip(t *testing.T) {
	job := testJob(models.ModeManual)
	f := newFixture(t, job, testTranscript(), models.Sentiment{Sentiment: models.SentimentNeutro, Confidence: 0.75})

	var reports []progressCall
	f.recordProgress(&reports)
	f.store.On("SaveArtifacts", mock.Anything, job.ID, mock.Anything, mock.Anything).Return(nil).Once()

	f.renderer.On("Render", mock.Anything, job, mock.MatchedBy(func(d models.Descriptor) bool {
		return d.Start == 10 && d.End == 40 && d.Score == 99 && d.Narrative == models.NarrativeManual
	}), mock.Anything).Return(4.0, nil).Once()

	f.store.On("CompleteJob", mock.Anything, job.ID, mock.MatchedBy(func(clips []models.Clip) bool {
		return len(clips) == 1 && clips[0].Narrative == models.NarrativeManual
	})).Return(nil).Once()

	require.NoError(t, f.orch.Run(context.Background(), job.ID))
	// One clip fills the whole render band in a single step.
	assert.Contains(t, reports, progressCall{models.StageRendering, 90})
	f.store.AssertExpectations(t)
}

func TestRun_DegradedSentimentStillCompletes(t *testing.T) {
	job := testJob(models.ModeAuto)
	f := newFixture(t, job, testTranscript(), models.NeutralSentiment())

	var reports []progressCall
	f.recordProgress(&reports)
	f.store.On("SaveArtifacts", mock.Anything, job.ID, mock.Anything, mock.MatchedBy(func(s *models.Sentiment) bool {
		return s.Sentiment == models.SentimentNeutro
	})).Return(nil).Once()
	f.renderer.On("Render", mock.Anything, job, mock.Anything, mock.Anything).Return(1.0, nil).Times(3)

	var completed []models.Clip
	f.store.On("CompleteJob", mock.Anything, job.ID, mock.Anything).
		Run(func(args mock.Arguments) { completed = args.Get(2).([]models.Clip) }).
		Return(nil).
		Once()

	require.NoError(t, f.orch.Run(context.Background(), job.ID))
	require.Len(t, completed, 3)
	for _, c := range completed {
		assert.Contains(t, c.Report, "SENTIMENTO: NEUTRO")
	}
	f.store.AssertExpectations(t)
}

func TestRun_EmptyTranscriptCompletesWithoutClips(t *testing.T) {
	job := testJob(models.ModeAuto)
	f := newFixture(t, job, &models.Transcript{Language: "pt"}, models.NeutralSentiment())

	f.recordProgress(new([]progressCall))
	f.store.On("SaveArtifacts", mock.Anything, job.ID, mock.Anything, mock.Anything).Return(nil).Once()
	f.store.On("CompleteJob", mock.Anything, job.ID, mock.MatchedBy(func(clips []models.Clip) bool {
		return len(clips) == 0
	})).Return(nil).Once()

	require.NoError(t, f.orch.Run(context.Background(), job.ID))
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}

func TestRun_RenderFailureFailsJobAndCleansUp(t *testing.T) {
	job := testJob(models.ModeAuto)
	f := newFixture(t, job, testTranscript(), models.NeutralSentiment())

	f.recordProgress(new([]progressCall))
	f.store.On("SaveArtifacts", mock.Anything, job.ID, mock.Anything, mock.Anything).Return(nil).Once()

	// First clip renders a real file, second one blows up.
	var firstOutput string
	f.renderer.On("Render", mock.Anything, job, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			firstOutput = args.String(3)
			require.NoError(t, os.WriteFile(firstOutput, []byte("mp4"), 0o644))
		}).
		Return(2.0, nil).
		Once()
	f.renderer.On("Render", mock.Anything, job, mock.Anything, mock.Anything).
		Return(0.0, errors.New("encoder exploded")).
		Once()

	var failMsg string
	f.store.On("FailJob", mock.Anything, job.ID, mock.Anything).
		Run(func(args mock.Arguments) { failMsg = args.String(2) }).
		Return(nil).
		Once()

	err := f.orch.Run(context.Background(), job.ID)
	require.Error(t, err)

	assert.True(t, strings.HasPrefix(failMsg, "render clip 2/3:"), "got %q", failMsg)
	assert.Contains(t, failMsg, "encoder exploded")

	// The rendered file from the first clip is gone.
	_, statErr := os.Stat(firstOutput)
	assert.True(t, os.IsNotExist(statErr))

	assert.Equal(t, 0, f.notifier.calls)
	f.store.AssertNotCalled(t, "CompleteJob", mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}

func TestRun_TranscribeFailureFailsJob(t *testing.T) {
	job := testJob(models.ModeAuto)

	f := &fixture{store: new(StoreMock), renderer: new(RendererMock), notifier: &notifierStub{}}
	orch, err := New(Config{
		Store:     f.store,
		Locker:    worklock.NewLocalLocker(),
		Audio:     audioStub{},
		Transcrib: transcriberStub{err: errors.New("model download failed")},
		Sentiment: sentimentStub{result: models.NeutralSentiment()},
		Renderer:  f.renderer,
		Logger:    zerolog.Nop(),
		TempDir:   t.TempDir(),
		OutDir:    t.TempDir(),
	})
	require.NoError(t, err)

	f.store.On("CheckoutJob", mock.Anything, job.ID).Return(job, nil).Once()
	f.store.On("ReportProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.store.On("FailJob", mock.Anything, job.ID, "transcribe: model download failed").Return(nil).Once()

	require.Error(t, orch.Run(context.Background(), job.ID))
	f.store.AssertNotCalled(t, "SaveArtifacts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.store.AssertExpectations(t)
}

func TestRun_HeldLockRejectsSecondRun(t *testing.T) {
	job := testJob(models.ModeAuto)

	locker := worklock.NewLocalLocker()
	_, err := locker.TryLock(context.Background(), worklock.JobKey(job.ID), 0)
	require.NoError(t, err)

	st := new(StoreMock)
	orch, err := New(Config{
		Store:     st,
		Locker:    locker,
		Audio:     audioStub{},
		Transcrib: transcriberStub{},
		Sentiment: sentimentStub{},
		Renderer:  new(RendererMock),
		Logger:    zerolog.Nop(),
		TempDir:   t.TempDir(),
		OutDir:    t.TempDir(),
	})
	require.NoError(t, err)

	err = orch.Run(context.Background(), job.ID)
	require.ErrorIs(t, err, models.ErrJobRunning)
	st.AssertNotCalled(t, "CheckoutJob", mock.Anything, mock.Anything)
}

func TestRenderProgress(t *testing.T) {
	assert.Equal(t, 90, RenderProgress(0, 1))
	assert.Equal(t, 63, RenderProgress(0, 3))
	assert.Equal(t, 76, RenderProgress(1, 3))
	assert.Equal(t, 90, RenderProgress(2, 3))
	assert.Equal(t, 90, RenderProgress(0, 0))

	// Monotonic and capped for any clip count.
	for n := 1; n <= 10; n++ {
		prev := 50
		for i := 0; i < n; i++ {
			p := RenderProgress(i, n)
			assert.GreaterOrEqual(t, p, prev)
			assert.LessOrEqual(t, p, 90)
			prev = p
		}
		assert.Equal(t, 90, RenderProgress(n-1, n))
	}
}
