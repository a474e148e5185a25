package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// JobStatusChanged is emitted through the outbox whenever a job changes
// status. Consumers (notifications, analytics) subscribe to the Kafka
// topic the outbox publisher writes to.
type JobStatusChanged struct {
	eventID    uuid.UUID
	jobID      uuid.UUID
	from       Status
	to         Status
	failure    string
	occurredAt time.Time
}

func NewJobStatusChanged(jobID uuid.UUID, from, to Status, failure string) *JobStatusChanged {
	return &JobStatusChanged{
		eventID:    uuid.New(),
		jobID:      jobID,
		from:       from,
		to:         to,
		failure:    failure,
		occurredAt: time.Now(),
	}
}

func (e *JobStatusChanged) EventID() uuid.UUID     { return e.eventID }
func (e *JobStatusChanged) EventType() string      { return "JobStatusChanged" }
func (e *JobStatusChanged) AggregateID() uuid.UUID { return e.jobID }
func (e *JobStatusChanged) OccurredAt() time.Time  { return e.occurredAt }

func (e *JobStatusChanged) From() Status    { return e.from }
func (e *JobStatusChanged) To() Status      { return e.to }
func (e *JobStatusChanged) Failure() string { return e.failure }

func (e *JobStatusChanged) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EventID    uuid.UUID `json:"event_id"`
		JobID      uuid.UUID `json:"job_id"`
		From       Status    `json:"from"`
		To         Status    `json:"to"`
		Error      string    `json:"error,omitempty"`
		OccurredAt time.Time `json:"occurred_at"`
	}{
		EventID:    e.eventID,
		JobID:      e.jobID,
		From:       e.from,
		To:         e.to,
		Error:      e.failure,
		OccurredAt: e.occurredAt,
	})
}
