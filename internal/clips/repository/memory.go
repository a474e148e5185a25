package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/binhocut/clipforge/internal/clips/domain"
	"github.com/binhocut/clipforge/internal/clips/models"
)

// Memory keeps jobs, clips and users in process memory. It backs tests and
// single-node development runs; production wiring uses postgres.
type Memory struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]*models.Job
	clips map[uuid.UUID]*models.Clip
	users map[uuid.UUID]*models.User

	events []models.DomainEvent
}

func NewMemory() *Memory {
	return &Memory{
		jobs:  make(map[uuid.UUID]*models.Job),
		clips: make(map[uuid.UUID]*models.Clip),
		users: make(map[uuid.UUID]*models.User),
	}
}

func (m *Memory) Create(ctx context.Context, j *models.Job) error {
	if j == nil || j.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.jobs[j.ID]; exists {
		return models.ErrConflict
	}

	// Defensive copy so callers cannot mutate the stored object.
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *Memory) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if id == uuid.Nil {
		return nil, models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *Memory) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Job
	for _, j := range m.jobs {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.Before(out[k].CreatedAt) })
	return out, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := domain.ValidateTransition(j.Status, status); err != nil {
		return nil, err
	}
	j.Status = status
	cp := *j
	return &cp, nil
}

func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.jobs, id)
	for cid, c := range m.clips {
		if c.JobID == id {
			delete(m.clips, cid)
		}
	}
	return nil
}

func (m *Memory) CountByStatus(ctx context.Context, userID uuid.UUID) (map[models.Status]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, j := range m.jobs {
		if j.UserID == userID {
			counts[j.Status]++
		}
	}
	return counts, nil
}

// --- clips ---

func (m *Memory) GetClip(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clips[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Memory) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Clip
	for _, c := range m.clips {
		if c.JobID == jobID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Index < out[k].Index })
	return out, nil
}

func (m *Memory) DeleteClip(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clips[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.clips, id)
	return nil
}

func (m *Memory) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for cid, c := range m.clips {
		if c.JobID == jobID {
			delete(m.clips, cid)
		}
	}
	return nil
}

func (m *Memory) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return m.bumpClip(ctx, id, func(c *models.Clip) { c.Downloads++ })
}

func (m *Memory) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return m.bumpClip(ctx, id, func(c *models.Clip) { c.Views++ })
}

func (m *Memory) bumpClip(ctx context.Context, id uuid.UUID, f func(*models.Clip)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clips[id]
	if !ok {
		return models.ErrNotFound
	}
	f(c)
	return nil
}

// --- users ---

func (m *Memory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) PutUser(ctx context.Context, u *models.User) error {
	if u == nil || u.ID == uuid.Nil {
		return models.ErrInvalidArgument
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *Memory) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return models.ErrNotFound
	}
	u.VideosThisMonth++
	u.TotalVideos++
	return nil
}

func (m *Memory) ResetMonthlyUsage(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		u.VideosThisMonth = 0
	}
	return len(m.users), nil
}

// --- pipeline store ---

// NextQueued returns the oldest queued job without claiming it; callers
// claim via CheckoutJob. models.ErrNotFound means the queue is empty.
func (m *Memory) NextQueued(ctx context.Context) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var oldest *models.Job
	for _, j := range m.jobs {
		if j.Status != models.QueuedStatus {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) {
			oldest = j
		}
	}
	if oldest == nil {
		return nil, models.ErrNotFound
	}
	cp := *oldest
	return &cp, nil
}

// CheckoutJob moves a queued job into processing. Exactly one checkout
// succeeds per accepted run; a job already processing is rejected.
func (m *Memory) CheckoutJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if j.Status == models.ProcessingStatus {
		return nil, models.ErrJobRunning
	}
	if err := domain.ValidateTransition(j.Status, models.ProcessingStatus); err != nil {
		return nil, err
	}

	now := time.Now()
	j.Status = models.ProcessingStatus
	j.Stage = models.StageExtractingAudio
	j.Progress = 0
	j.Error = ""
	j.StartedAt = &now
	j.CompletedAt = nil

	cp := *j
	return &cp, nil
}

// SaveArtifacts persists the transcription and sentiment checkpoint before
// clip selection begins.
func (m *Memory) SaveArtifacts(ctx context.Context, id uuid.UUID, t *models.Transcript, s *models.Sentiment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	j.Transcription = t
	j.Sentiment = s
	return nil
}

// ReportProgress records an advisory (stage, progress) pair. Regressions
// are rejected so consumers always observe a monotonic sequence.
func (m *Memory) ReportProgress(ctx context.Context, id uuid.UUID, stage models.Stage, pct int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if j.Status != models.ProcessingStatus {
		return models.ErrConflict
	}
	if err := domain.ValidateProgress(j.Stage, j.Progress, stage, pct); err != nil {
		return err
	}
	j.Stage = stage
	j.Progress = pct
	return nil
}

// CompleteJob is the single durable write that marks success: clips become
// visible, the job turns completed with progress 100, the usage counter is
// bumped and the status event is recorded, all under one lock.
func (m *Memory) CompleteJob(ctx context.Context, id uuid.UUID, clips []models.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := domain.ValidateTransition(j.Status, models.CompletedStatus); err != nil {
		return err
	}

	for i := range clips {
		cp := clips[i]
		m.clips[cp.ID] = &cp
	}

	from := j.Status
	now := time.Now()
	j.Status = models.CompletedStatus
	j.Stage = models.StageFinalizing
	j.Progress = 100
	j.CompletedAt = &now

	if u, ok := m.users[j.UserID]; ok {
		u.VideosThisMonth++
		u.TotalVideos++
	}
	m.events = append(m.events, models.NewJobStatusChanged(id, from, models.CompletedStatus, ""))
	return nil
}

// FailJob marks the run failed with the verbatim error and removes any
// clips written before the failure so they never reach the listing.
func (m *Memory) FailJob(ctx context.Context, id uuid.UUID, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return models.ErrNotFound
	}
	if err := domain.ValidateTransition(j.Status, models.FailedStatus); err != nil {
		return err
	}

	for cid, c := range m.clips {
		if c.JobID == id {
			delete(m.clips, cid)
		}
	}

	from := j.Status
	now := time.Now()
	j.Status = models.FailedStatus
	j.Error = msg
	j.CompletedAt = &now

	m.events = append(m.events, models.NewJobStatusChanged(id, from, models.FailedStatus, msg))
	return nil
}

// Events returns the recorded domain events, oldest first.
func (m *Memory) Events() []models.DomainEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.DomainEvent(nil), m.events...)
}

// Clips returns the ClipRepository view of the store.
func (m *Memory) Clips() ClipRepository { return memoryClips{m} }

type memoryClips struct{ m *Memory }

func (c memoryClips) GetByID(ctx context.Context, id uuid.UUID) (*models.Clip, error) {
	return c.m.GetClip(ctx, id)
}

func (c memoryClips) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Clip, error) {
	return c.m.ListByJob(ctx, jobID)
}

func (c memoryClips) Delete(ctx context.Context, id uuid.UUID) error {
	return c.m.DeleteClip(ctx, id)
}

func (c memoryClips) DeleteByJob(ctx context.Context, jobID uuid.UUID) error {
	return c.m.DeleteByJob(ctx, jobID)
}

func (c memoryClips) IncrementDownloads(ctx context.Context, id uuid.UUID) error {
	return c.m.IncrementDownloads(ctx, id)
}

func (c memoryClips) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return c.m.IncrementViews(ctx, id)
}

// Users returns the UserRepository view of the store.
func (m *Memory) Users() UserRepository { return memoryUsers{m} }

type memoryUsers struct{ m *Memory }

func (u memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return u.m.GetUser(ctx, id)
}

func (u memoryUsers) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	return u.m.IncrementUsage(ctx, id)
}

func (u memoryUsers) ResetMonthlyUsage(ctx context.Context) (int, error) {
	return u.m.ResetMonthlyUsage(ctx)
}
