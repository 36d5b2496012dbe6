package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundfox/fundfox/internal/pkg/ledger"
	"github.com/fundfox/fundfox/internal/pkg/testutil"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return nil
}

type fakeReconciler struct{ ids []uint }

func (f *fakeReconciler) Reconcile(ctx context.Context, campaignID uint) (*ledger.Drift, error) {
	f.ids = append(f.ids, campaignID)
	return &ledger.Drift{CampaignID: campaignID, Corrected: true}, nil
}

type fakeSummaries struct{ ids []uint }

func (f *fakeSummaries) WeeklySummary(ctx context.Context, creatorID uint) error {
	f.ids = append(f.ids, creatorID)
	return nil
}

func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(tt.workers)

			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.Equal(t, tt.expectedWorkers, cap(queue.workerPool))
			assert.False(t, queue.running)
		})
	}
}

// dequeueNext pops one job the way a worker does.
func dequeueNext(t *testing.T, q *Queue) *Job {
	t.Helper()
	job, err := q.dequeueJob(context.Background())
	require.NoError(t, err)
	return job
}

func TestQueue_ProcessesEachJobType(t *testing.T) {
	testutil.NewRedis(t, 14)
	ctx := context.Background()

	mailer := &fakeMailer{}
	rec := &fakeReconciler{}
	sums := &fakeSummaries{}
	q := NewQueue(1)
	q.SetProcessors(Processors{Mailer: mailer, Reconciler: rec, Summaries: sums})

	require.NoError(t, q.EnqueueEmail(ctx, "creator@example.com", "New contribution", "body"))
	n, err := q.EnqueueReconcile(ctx, []uint{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = q.EnqueueWeeklySummaries(ctx, []uint{9})
	require.NoError(t, err)

	size, err := q.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	for i := 0; i < 4; i++ {
		job := dequeueNext(t, q)
		q.processJob(ctx, job)

		_, err := q.GetJob(ctx, job.ID)
		assert.Error(t, err, "completed jobs are removed")
	}

	assert.Equal(t, []string{"creator@example.com|New contribution"}, mailer.sent)
	assert.Equal(t, []uint{3, 4}, rec.ids)
	assert.Equal(t, []uint{9}, sums.ids)

	stats, err := q.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats[JobStatusCompleted])

	processing, err := q.GetProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)
}

func TestQueue_RetriesTransientFailures(t *testing.T) {
	testutil.NewRedis(t, 14)
	ctx := context.Background()

	mailer := &fakeMailer{err: errors.New("connection refused")}
	q := NewQueue(1)
	q.retryDelay = 10 * time.Millisecond
	q.SetProcessors(Processors{Mailer: mailer})

	require.NoError(t, q.EnqueueEmail(ctx, "a@example.com", "hi", "body"))
	job := dequeueNext(t, q)
	q.processJob(ctx, job)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)

	assert.Eventually(t, func() bool {
		size, _ := q.GetQueueSize(ctx)
		return size == 1
	}, time.Second, 10*time.Millisecond, "job is pushed back after the retry delay")
}

func TestQueue_PermanentFailureIsNotRetried(t *testing.T) {
	testutil.NewRedis(t, 14)
	ctx := context.Background()

	q := NewQueue(1)
	_, err := q.EnqueueJob(ctx, JobTypeWeeklySummary, map[string]interface{}{"creator_id": 0})
	require.NoError(t, err)

	job := dequeueNext(t, q)
	q.processJob(ctx, job)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)

	stats, err := q.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusFailed])
}

func TestQueue_RecoverStuck(t *testing.T) {
	rdb := testutil.NewRedis(t, 14)
	ctx := context.Background()
	q := NewQueue(1)

	started := time.Now().Add(-time.Hour)
	stuck := &Job{ID: "stuck", Type: JobTypeSendEmail, Status: JobStatusProcessing, ProcessedAt: &started, UpdatedAt: started}
	fresh := &Job{ID: "fresh", Type: JobTypeSendEmail, Status: JobStatusProcessing, UpdatedAt: time.Now()}
	for _, j := range []*Job{stuck, fresh} {
		raw, err := json.Marshal(j)
		require.NoError(t, err)
		require.NoError(t, rdb.Set(ctx, JobKeyPrefix+j.ID, raw, JobTTL).Err())
		require.NoError(t, rdb.LPush(ctx, JobProcessingKey, j.ID).Err())
	}
	require.NoError(t, rdb.LPush(ctx, JobProcessingKey, "orphan").Err())

	assert.Equal(t, 1, q.recoverStuck(ctx, 10*time.Minute, time.Now()))

	pending, err := rdb.LRange(ctx, JobQueueKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"stuck"}, pending)

	processing, err := rdb.LRange(ctx, JobProcessingKey, 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, processing)
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "job:", JobKeyPrefix)
	assert.Equal(t, "job_queue", JobQueueKey)
	assert.Equal(t, "job_processing", JobProcessingKey)
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}
