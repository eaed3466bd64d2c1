package jobqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobDefaults(t *testing.T) {
	job := NewJob(JobTypeReceiptEmail, map[string]string{"to": "user@example.com"})

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, JobTypeReceiptEmail, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, "user@example.com", job.Payload["to"])
	assert.Zero(t, job.Attempts)
	assert.Nil(t, job.ProcessedAt)
}

func TestJobMarshalRoundtrip(t *testing.T) {
	job := NewJob(JobTypeDunningEmail, map[string]string{
		"to":      "user@example.com",
		"subject": "Renewal failed",
	})

	data, err := job.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalJob(data)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.Type, got.Type)
	assert.Equal(t, job.Payload, got.Payload)
}

func TestUnmarshalJobMalformed(t *testing.T) {
	_, err := UnmarshalJob("not json")
	assert.Error(t, err)
}

func TestProcessRunsRegisteredProcessor(t *testing.T) {
	q := NewQueue(1)

	var processed *Job
	q.RegisterProcessor(JobTypeReceiptEmail, func(_ context.Context, job *Job) error {
		processed = job
		return nil
	})

	job := NewJob(JobTypeReceiptEmail, map[string]string{"to": "user@example.com"})
	q.process(context.Background(), job)

	require.NotNil(t, processed)
	assert.Equal(t, job.ID, processed.ID)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.NotNil(t, job.ProcessedAt)
	assert.Empty(t, job.LastError)
}

func TestProcessRecordsFailure(t *testing.T) {
	q := NewQueue(1)
	q.RegisterProcessor(JobTypeReceiptEmail, func(_ context.Context, _ *Job) error {
		return errors.New("smtp unreachable")
	})

	job := NewJob(JobTypeReceiptEmail, nil)
	q.process(context.Background(), job)

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "smtp unreachable", job.LastError)
	assert.Equal(t, 1, job.Attempts)
}

func TestProcessMailJobRejectsIncompletePayload(t *testing.T) {
	job := NewJob(JobTypeReceiptEmail, map[string]string{"to": "user@example.com"})

	err := processMailJob(context.Background(), job)
	assert.Error(t, err)
}

func TestNewQueueEnforcesMinimumWorkers(t *testing.T) {
	q := NewQueue(0)
	assert.Equal(t, 1, q.workerCount)
}
