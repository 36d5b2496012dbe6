package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/fundfox/fundfox/app/models"
	metrics "github.com/fundfox/fundfox/internal/pkg/metrics/counter"
)

const counterFlushInterval = 5 * time.Second

// Manager owns the job queue workers and the counter flush ticker. Business
// periodic work (expiry, scheduled updates, summaries) is cron triggered and
// does not run here.
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	flush              func(ctx context.Context) error
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
		globalManager = &Manager{
			queue:  NewQueue(getAppSettings().GetJobQueueWorkerCount()),
			flush:  metrics.FlushAll,
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

	// fresh channel per cycle so the manager can be restarted
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	m.counterFlushTicker = time.NewTicker(counterFlushInterval)
	m.wg.Add(1)
	go m.counterFlushWorker(m.stopCh, m.counterFlushTicker.C)

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

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	// pending view counts go to the database before shutdown
	if err := m.flushCountersOnce(); err != nil {
		log.Errorf("[JobQueue Manager] Final counter flush error: %v", err)
	}

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes buffered counters from Redis to DB
func (m *Manager) counterFlushWorker(stop <-chan struct{}, tick <-chan time.Time) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-tick:
			if err := m.flushCountersOnce(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

func (m *Manager) flushCountersOnce() error {
	if m.flush == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), counterFlushInterval)
	defer cancel()
	return m.flush(ctx)
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func getAppSettings() *models.AppSettings {
	return models.GetAppSettings()
}
