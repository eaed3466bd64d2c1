package jobqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/vibestack/vibestack/internal/pkg/cache"
	"github.com/vibestack/vibestack/internal/pkg/mail"
)

const (
	pendingListKey = "jobs:pending"
	failedListKey  = "jobs:failed"
)

// Processor handles one job type.
type Processor func(ctx context.Context, job *Job) error

// Queue is a Redis-backed work queue. Jobs survive restarts because they
// only leave the pending list once a worker picked them up.
type Queue struct {
	workerCount int
	processors  map[JobType]Processor
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

// NewQueue creates a queue with the given number of workers.
func NewQueue(workerCount int) *Queue {
	if workerCount < 1 {
		workerCount = 1
	}
	q := &Queue{
		workerCount: workerCount,
		processors:  make(map[JobType]Processor),
	}
	q.processors[JobTypeReceiptEmail] = processMailJob
	q.processors[JobTypeDunningEmail] = processMailJob
	return q
}

// RegisterProcessor overrides the processor for a job type. Used by tests.
func (q *Queue) RegisterProcessor(jobType JobType, p Processor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processors[jobType] = p
}

// Enqueue persists a job to the pending list.
func (q *Queue) Enqueue(job *Job) error {
	data, err := job.Marshal()
	if err != nil {
		return err
	}
	return cache.GetClient().LPush(context.Background(), pendingListKey, data).Err()
}

// Start launches the worker pool.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.stopCh = make(chan struct{})
	q.running = true
	for i := 0; i < q.workerCount; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop signals the workers and waits for them to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()
	q.wg.Wait()
}

// PendingCount returns how many jobs wait in the queue.
func (q *Queue) PendingCount() (int64, error) {
	return cache.GetClient().LLen(context.Background(), pendingListKey).Result()
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		// Block briefly so shutdown stays responsive
		res, err := cache.GetClient().BRPop(ctx, 2*time.Second, pendingListKey).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue] worker %d pop failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(res) < 2 {
			continue
		}

		job, err := UnmarshalJob(res[1])
		if err != nil {
			log.Errorf("[JobQueue] worker %d dropped malformed job: %v", id, err)
			continue
		}
		q.process(ctx, job)
	}
}

func (q *Queue) process(ctx context.Context, job *Job) {
	q.mu.Lock()
	processor, ok := q.processors[job.Type]
	q.mu.Unlock()
	if !ok {
		log.Errorf("[JobQueue] no processor for job type %s", job.Type)
		return
	}

	job.Status = JobStatusProcessing
	job.Attempts++

	procCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := processor(procCtx, job)
	cancel()

	now := time.Now()
	job.ProcessedAt = &now
	if err != nil {
		job.Status = JobStatusFailed
		job.LastError = err.Error()
		log.Errorf("[JobQueue] job %s (%s) failed: %v", job.ID, job.Type, err)
		if data, merr := job.Marshal(); merr == nil {
			_ = cache.GetClient().LPush(ctx, failedListKey, data).Err()
		}
		return
	}
	job.Status = JobStatusCompleted
}

// processMailJob delivers receipt and dunning mails via SMTP.
func processMailJob(_ context.Context, job *Job) error {
	to := job.Payload["to"]
	subject := job.Payload["subject"]
	body := job.Payload["body"]
	if to == "" || subject == "" {
		return fmt.Errorf("mail job %s missing recipient or subject", job.ID)
	}
	return mail.SendMail(to, subject, body)
}
