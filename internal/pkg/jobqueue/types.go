package jobqueue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobType identifies what a queued job does
type JobType string

const (
	// JobTypeReceiptEmail sends a payment receipt to the buyer
	JobTypeReceiptEmail JobType = "receipt_email"
	// JobTypeDunningEmail notifies a user about a failed renewal charge
	JobTypeDunningEmail JobType = "dunning_email"
)

// JobStatus tracks the lifecycle of a queued job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one unit of background work. The payload carries the
// type-specific fields.
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	Payload     map[string]string `json:"payload"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"last_error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	ProcessedAt *time.Time        `json:"processed_at,omitempty"`
}

// NewJob creates a pending job with a fresh id.
func NewJob(jobType JobType, payload map[string]string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    JobStatusPending,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// Marshal serializes the job for Redis storage.
func (j *Job) Marshal() (string, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalJob deserializes a job from its Redis representation.
func UnmarshalJob(data string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
