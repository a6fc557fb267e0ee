package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleysapc/docsearch/domain/task"
	"github.com/aleysapc/docsearch/internal/retry"
)

type handlerFunc func(ctx context.Context, payload map[string]any) error

func (f handlerFunc) Execute(ctx context.Context, payload map[string]any) error {
	return f(ctx, payload)
}

type recordingFailer struct {
	mu     sync.Mutex
	failed map[string]error
}

func (r *recordingFailer) Fail(_ context.Context, id string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failed == nil {
		r.failed = make(map[string]error)
	}
	r.failed[id] = cause
	return nil
}

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = 2
	p.InitialDelay = time.Millisecond
	p.MaxDelay = time.Millisecond
	p.Retryable = Retryable
	return p
}

func TestWorker_StartStopUnderFastPolling(t *testing.T) {
	s := newStores(t)
	for range 200 {
		w := NewWorker(s.tasks, NewRegistry(), nil, nil, WithPollPeriod(time.Microsecond))
		require.NoError(t, w.Start(context.Background()))
		time.Sleep(20 * time.Microsecond)
		w.Stop()
	}
}

func TestWorker_StopIsIdempotentAndRestartable(t *testing.T) {
	s := newStores(t)
	w := NewWorker(s.tasks, NewRegistry(), nil, nil, WithPollPeriod(time.Millisecond))

	w.Stop()
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
}

func TestWorker_CompletesTaskAfterHandlerReturns(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	var inHandler atomic.Int64
	registry := NewRegistry()
	registry.Register(task.OperationClean, handlerFunc(func(ctx context.Context, _ map[string]any) error {
		n, err := s.tasks.Count(ctx)
		inHandler.Store(n)
		return err
	}))
	_, err := s.tasks.Save(ctx, task.NewTask(task.OperationClean, 2000, map[string]any{task.KeyJobID: "j"}))
	require.NoError(t, err)

	w := NewWorker(s.tasks, registry, nil, nil, WithRetryPolicy(fastPolicy()))
	n, err := w.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, int64(1), inHandler.Load(), "task must stay stored while its handler runs")
	left, err := s.tasks.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestWorker_RedeliversTaskOfCrashedWorker(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	var runs atomic.Int32
	registry := NewRegistry()
	registry.Register(task.OperationEmbed, handlerFunc(func(context.Context, map[string]any) error {
		runs.Add(1)
		return nil
	}))
	_, err := s.tasks.Save(ctx, task.NewTask(task.OperationEmbed, 2000, map[string]any{task.KeyJobID: "j"}))
	require.NoError(t, err)

	// A worker claims the task and dies before finishing it.
	_, ok, err := s.tasks.Claim(ctx, time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	w := NewWorker(s.tasks, registry, nil, nil, WithRetryPolicy(fastPolicy()))
	require.Eventually(t, func() bool {
		n, err := w.Drain(ctx)
		return err == nil && n == 1
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), runs.Load())
	left, err := s.tasks.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestWorker_PermanentFailureFailsJobAndDropsTask(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)
	failer := &recordingFailer{}

	boom := errors.New("unsupported file format")
	registry := NewRegistry()
	registry.Register(task.OperationExtract, handlerFunc(func(context.Context, map[string]any) error {
		return retry.Permanent(boom)
	}))
	_, err := s.tasks.Save(ctx, task.NewTask(task.OperationExtract, 2000, map[string]any{task.KeyJobID: "j"}))
	require.NoError(t, err)

	_, err = NewWorker(s.tasks, registry, failer, nil, WithRetryPolicy(fastPolicy())).Drain(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, failer.failed["j"], boom)
	left, err := s.tasks.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestWorker_StopReleasesInterruptedTask(t *testing.T) {
	ctx := context.Background()
	s := newStores(t)

	started := make(chan struct{})
	registry := NewRegistry()
	registry.Register(task.OperationClean, handlerFunc(func(ctx context.Context, _ map[string]any) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}))
	_, err := s.tasks.Save(ctx, task.NewTask(task.OperationClean, 2000, map[string]any{task.KeyJobID: "j"}))
	require.NoError(t, err)

	w := NewWorker(s.tasks, registry, nil, nil, WithPollPeriod(time.Millisecond), WithRetryPolicy(fastPolicy()))
	require.NoError(t, w.Start(ctx))
	<-started
	w.Stop()

	// Released, so claimable right away instead of after the lease.
	tk, ok, err := s.tasks.Claim(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "j", tk.JobID())
}
