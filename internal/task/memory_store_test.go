package task

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		job := NewJob(KindIngestFile, json.RawMessage(`{"filename":"a.txt"}`), time.Now())
		require.NoError(t, s.Create(ctx, job))

		got, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, StatePending, got.State)

		assert.ErrorIs(t, s.Create(ctx, job), ErrDuplicateJob)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		_, err := s.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrJobNotFound)
		assert.ErrorIs(t, s.SetState(ctx, uuid.New(), ProgressUpdate(0, 1)), ErrJobNotFound)
	})

	t.Run("returned jobs are copies", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		job := NewJob(KindSimulatedProgress, nil, time.Now())
		require.NoError(t, s.Create(ctx, job))
		require.NoError(t, s.SetState(ctx, job.ID, ProgressUpdate(1, 3)))

		got, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		got.Progress.Current = 42
		got.State = StateFailure

		again, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateProgress, again.State)
		assert.Equal(t, 1, again.Progress.Current)
	})

	t.Run("invalid updates leave state unchanged", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		job := NewJob(KindSimulatedProgress, nil, time.Now())
		require.NoError(t, s.Create(ctx, job))
		require.NoError(t, s.SetState(ctx, job.ID, ProgressUpdate(5, 10)))

		assert.ErrorIs(t, s.SetState(ctx, job.ID, ProgressUpdate(4, 10)), ErrInvalidProgress)

		require.NoError(t, s.SetState(ctx, job.ID, SuccessUpdate(json.RawMessage(`1`), false)))
		assert.ErrorIs(t, s.SetState(ctx, job.ID, FailureUpdate("late", false)), ErrJobTerminal)

		got, err := s.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, StateSuccess, got.State)
		assert.JSONEq(t, `1`, string(got.Result))
	})

	t.Run("list by state is oldest first", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		base := time.Now()
		second := NewJob(KindIngestFile, nil, base.Add(time.Second))
		first := NewJob(KindIngestFile, nil, base)
		done := NewJob(KindIngestFile, nil, base)
		for _, j := range []*Job{second, first, done} {
			require.NoError(t, s.Create(ctx, j))
		}
		require.NoError(t, s.SetState(ctx, done.ID, SuccessUpdate(nil, false)))

		pending, err := s.ListByState(ctx, StatePending)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, first.ID, pending[0].ID)
		assert.Equal(t, second.ID, pending[1].ID)

		_, err = s.ListByState(ctx, "nope")
		assert.ErrorIs(t, err, ErrUnknownState)
	})

	t.Run("delete terminal before cutoff", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		pending := NewJob(KindIngestFile, nil, time.Now())
		succeeded := NewJob(KindIngestFile, nil, time.Now())
		failed := NewJob(KindIngestFile, nil, time.Now())
		for _, j := range []*Job{pending, succeeded, failed} {
			require.NoError(t, s.Create(ctx, j))
		}
		require.NoError(t, s.SetState(ctx, succeeded.ID, SuccessUpdate(nil, false)))
		require.NoError(t, s.SetState(ctx, failed.ID, FailureUpdate("x", false)))

		n, err := s.DeleteTerminalBefore(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = s.DeleteTerminalBefore(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, err = s.Get(ctx, succeeded.ID)
		assert.ErrorIs(t, err, ErrJobNotFound)
		_, err = s.Get(ctx, pending.ID)
		assert.NoError(t, err)
	})

	t.Run("concurrent writers on distinct jobs", func(t *testing.T) {
		t.Parallel()
		s := NewMemoryStateStore()
		jobs := make([]*Job, 20)
		for i := range jobs {
			jobs[i] = NewJob(KindSimulatedProgress, nil, time.Now())
			require.NoError(t, s.Create(ctx, jobs[i]))
		}

		var wg sync.WaitGroup
		for _, j := range jobs {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				for i := 0; i < 10; i++ {
					assert.NoError(t, s.SetState(ctx, id, ProgressUpdate(i, 10)))
					_, _ = s.Get(ctx, id)
				}
				assert.NoError(t, s.SetState(ctx, id, SuccessUpdate(nil, false)))
			}(j.ID)
		}
		wg.Wait()

		done, err := s.ListByState(ctx, StateSuccess)
		require.NoError(t, err)
		assert.Len(t, done, len(jobs))
	})
}
