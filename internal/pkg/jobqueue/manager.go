package jobqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vibestack/vibestack/internal/pkg/database"
	"github.com/vibestack/vibestack/internal/pkg/env"
	metrics "github.com/vibestack/vibestack/internal/pkg/metrics/counter"
	"github.com/vibestack/vibestack/internal/pkg/payments"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	renewalTicker      *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_WORKER_COUNT", "")); err == nil && v > 0 {
			workerCount = v
		}
		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	// Flush pending view counters from Redis to the DB every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Renewal sweep interval, hours; the sweep is idempotent so running it
	// more often than daily only burns a query
	sweepHours := 24
	if v, err := strconv.Atoi(env.GetEnv("RENEWAL_SWEEP_INTERVAL_HOURS", "")); err == nil && v > 0 {
		sweepHours = v
	}
	m.renewalTicker = time.NewTicker(time.Duration(sweepHours) * time.Hour)
	m.wg.Add(1)
	go m.renewalWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.renewalTicker != nil {
		m.renewalTicker.Stop()
	}

	close(m.stopCh)
	m.wg.Wait()
	m.queue.Stop()
	m.running = false

	log.Info("[JobQueue Manager] Stopped")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// counterFlushWorker periodically flushes view counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// renewalWorker periodically charges due subscriptions and applies dunning
func (m *Manager) renewalWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Renewal worker stopping")
			return
		case <-m.renewalTicker.C:
			if err := m.runRenewalSweepOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Renewal sweep error: %v", err)
			}
		}
	}
}

func (m *Manager) runRenewalSweepOnce() error {
	svc := payments.NewServiceFromDB(database.GetDB(), payments.NewTossClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := svc.RunRenewalSweep(ctx)
	if err != nil {
		return err
	}
	log.Infof("[JobQueue Manager] Renewal sweep: %d total, %d renewed, %d failed",
		report.Total, report.Renewed, report.Failed)
	return nil
}

// RunRenewalSweepOnce exposes a manual trigger for a single sweep (admin use).
func (m *Manager) RunRenewalSweepOnce() error {
	return m.runRenewalSweepOnce()
}
