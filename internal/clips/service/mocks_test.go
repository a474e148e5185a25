package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/binhocut/clipforge/internal/clips/models"
	"github.com/binhocut/clipforge/internal/media/ffmpeg"
)

type JobRepoMock struct {
	mock.Mock
}

func (m *JobRepoMock) Create(ctx context.Context, j *models.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *JobRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *JobRepoMock) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.([]models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *JobRepoMock) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Job, error) {
	args := m.Called(ctx, id, status)
	if v := args.Get(0); v != nil {
		return v.(*models.Job), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *JobRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.Status]int, error) {
	args := m.Called(ctx, userID)
	if v := args.Get(0); v != nil {
		return v.(map[models.Status]int), args.Error(1)
	}
	return nil, args.Error(1)
}

type ClipRepoMock struct {
	mock.Mock
}

func (m *ClipRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Clip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClipRepoMock) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error) {
	args := m.Called(ctx, jobID)
	if v := args.Get(0); v != nil {
		return v.([]models.Clip), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ClipRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ClipRepoMock) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *ClipRepoMock) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ClipRepoMock) IncrementViews(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepoMock) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *UserRepoMock) ResetMonthlyUsage(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type ProberMock struct {
	mock.Mock
}

func (m *ProberMock) Probe(ctx context.Context, path string) (*ffmpeg.VideoInfo, error) {
	args := m.Called(ctx, path)
	if v := args.Get(0); v != nil {
		return v.(*ffmpeg.VideoInfo), args.Error(1)
	}
	return nil, args.Error(1)
}
