package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) NextQueued(ctx context.Context) (*models.Job, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) CheckoutJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *StoreMock) SaveArtifacts(ctx context.Context, id uuid.UUID, t *models.Transcript, s *models.Sentiment) error {
	args := m.Called(ctx, id, t, s)
	return args.Error(0)
}

func (m *StoreMock) ReportProgress(ctx context.Context, id uuid.UUID, stage models.Stage, pct int) error {
	args := m.Called(ctx, id, stage, pct)
	return args.Error(0)
}

func (m *StoreMock) CompleteJob(ctx context.Context, id uuid.UUID, clips []models.Clip) error {
	args := m.Called(ctx, id, clips)
	return args.Error(0)
}

func (m *StoreMock) FailJob(ctx context.Context, id uuid.UUID, msg string) error {
	args := m.Called(ctx, id, msg)
	return args.Error(0)
}

type RendererMock struct {
	mock.Mock
}

func (m *RendererMock) Render(ctx context.Context, job *models.Job, d models.Descriptor, output string) (float64, error) {
	args := m.Called(ctx, job, d, output)
	return args.Get(0).(float64), args.Error(1)
}

// Stub collaborators for the stages that need no expectations.

type audioStub struct {
	err error
}

func (a audioStub) ExtractAudio(ctx context.Context, input, output string, format ffmpeg.AudioFormat) error {
	return a.err
}

type transcriberStub struct {
	transcript *models.Transcript
	err        error
}

func (t transcriberStub) Transcribe(ctx context.Context, audioPath, model string) (*models.Transcript, error) {
	return t.transcript, t.err
}

type sentimentStub struct {
	result models.Sentiment
}

func (s sentimentStub) Analyze(ctx context.Context, audioPath string) models.Sentiment {
	return s.result
}

type notifierStub struct {
	calls int
	err   error
}

func (n *notifierStub) JobCompleted(ctx context.Context, job *models.Job, clipCount int) error {
	n.calls++
	return n.err
}
