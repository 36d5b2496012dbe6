package jobqueue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func resetManager() {
	globalManager = nil
	managerOnce = sync.Once{}
}

func TestGetManager(t *testing.T) {
	resetManager()

	manager1 := GetManager()
	manager2 := GetManager()

	assert.NotNil(t, manager1)
	assert.Same(t, manager1, manager2, "GetManager should return the same instance")
	assert.NotNil(t, manager1.queue)
	assert.NotNil(t, manager1.stopCh)
	assert.False(t, manager1.running)
	assert.Equal(t, getAppSettings().GetJobQueueWorkerCount(), manager1.queue.workers)
}

func TestManager_GetQueue(t *testing.T) {
	resetManager()

	manager := GetManager()
	assert.Same(t, manager.queue, manager.GetQueue())
}

func TestManager_StopWithoutStart(t *testing.T) {
	resetManager()

	manager := GetManager()
	assert.False(t, manager.IsRunning())
	manager.Stop()
	assert.False(t, manager.IsRunning())
}

func TestManager_CounterFlushWorker(t *testing.T) {
	var flushes atomic.Int32
	m := &Manager{flush: func(ctx context.Context) error {
		flushes.Add(1)
		return nil
	}}

	stop := make(chan struct{})
	tick := make(chan time.Time)
	m.wg.Add(1)
	go m.counterFlushWorker(stop, tick)

	tick <- time.Now()
	tick <- time.Now()
	close(stop)
	m.wg.Wait()

	assert.Equal(t, int32(2), flushes.Load())
}
