package tasks

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/spotex/internal/shared"
)

func newTestPool(t *testing.T, ctx context.Context, workers int) *WorkerPool {
	t.Helper()
	p := NewWorkerPool(ctx, workers, shared.NewLogger(io.Discard))
	t.Cleanup(p.Close)
	return p
}

func TestWorkerPool(t *testing.T) {
	t.Run("Size Clamped", func(t *testing.T) {
		tests := []struct {
			in, want int
		}{
			{0, DefaultWorkers},
			{-1, DefaultWorkers},
			{1, 1},
			{12, 12},
			{500, MaxWorkers},
		}
		for _, tt := range tests {
			p := newTestPool(t, context.Background(), tt.in)
			if p.Size() != tt.want {
				t.Errorf("NewWorkerPool(%d).Size() = %d, want %d", tt.in, p.Size(), tt.want)
			}
		}
	})

	t.Run("Wait Counts Outcomes", func(t *testing.T) {
		p := newTestPool(t, context.Background(), 4)

		var ran atomic.Int64
		for i := range 20 {
			err := p.Submit(context.Background(), "task", func(context.Context) error {
				time.Sleep(time.Millisecond)
				ran.Add(1)
				switch {
				case i%5 == 0:
					return errors.New("failed")
				case i%7 == 0:
					panic("boom")
				}
				return nil
			})
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}

		batch := p.Wait()
		if ran.Load() != 20 {
			t.Errorf("expected all 20 tasks to finish before Wait returned, got %d", ran.Load())
		}
		// failures at 0,5,10,15; panics at 7,14
		if batch.Failed != 6 || batch.Succeeded != 14 {
			t.Errorf("unexpected batch %+v", batch)
		}
		if batch.Total() != 20 {
			t.Errorf("Total() = %d, want 20", batch.Total())
		}
	})

	t.Run("Batches Reset", func(t *testing.T) {
		p := newTestPool(t, context.Background(), 2)

		for range 3 {
			p.Submit(context.Background(), "ok", func(context.Context) error { return nil })
		}
		if batch := p.Wait(); batch.Succeeded != 3 {
			t.Errorf("first batch: expected 3, got %+v", batch)
		}

		p.Submit(context.Background(), "fail", func(context.Context) error { return errors.New("x") })
		if batch := p.Wait(); batch.Succeeded != 0 || batch.Failed != 1 {
			t.Errorf("second batch: unexpected %+v", batch)
		}

		if batch := p.Wait(); batch.Total() != 0 {
			t.Errorf("empty batch: unexpected %+v", batch)
		}
	})

	t.Run("Concurrency Bounded", func(t *testing.T) {
		const workers = 3
		p := newTestPool(t, context.Background(), workers)

		var active, peak atomic.Int64
		for range 15 {
			p.Submit(context.Background(), "t", func(context.Context) error {
				n := active.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				active.Add(-1)
				return nil
			})
		}
		p.Wait()

		if peak.Load() > workers {
			t.Errorf("expected at most %d concurrent tasks, saw %d", workers, peak.Load())
		}
	})

	t.Run("Submit Blocks While Queue Full", func(t *testing.T) {
		p := newTestPool(t, context.Background(), 1)
		release := make(chan struct{})
		block := func(context.Context) error { <-release; return nil }

		// one running, one queued
		p.Submit(context.Background(), "a", block)
		p.Submit(context.Background(), "b", block)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		var submitErr error
		for range 2 {
			if submitErr = p.Submit(ctx, "c", block); submitErr != nil {
				break
			}
		}
		if !errors.Is(submitErr, context.DeadlineExceeded) {
			t.Errorf("expected DeadlineExceeded, got %v", submitErr)
		}

		close(release)
		if batch := p.Wait(); batch.Failed != 0 {
			t.Errorf("unexpected failures %+v", batch)
		}
	})

	t.Run("Cancelled Context Drains Queue", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := newTestPool(t, ctx, 1)

		started := make(chan struct{})
		p.Submit(context.Background(), "running", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
		<-started

		var ran atomic.Bool
		p.Submit(context.Background(), "queued", func(context.Context) error {
			ran.Store(true)
			return nil
		})
		cancel()

		done := make(chan BatchResult)
		go func() { done <- p.Wait() }()

		select {
		case batch := <-done:
			if batch.Failed != 2 {
				t.Errorf("expected 2 failures, got %+v", batch)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Wait did not return after cancellation")
		}
		if ran.Load() {
			t.Error("queued task ran after cancellation")
		}
	})

	t.Run("Closed Pool Rejects Tasks", func(t *testing.T) {
		p := NewWorkerPool(context.Background(), 2, shared.NewLogger(io.Discard))
		p.Close()
		p.Close()

		err := p.Submit(context.Background(), "late", func(context.Context) error { return nil })
		if !errors.Is(err, shared.ErrPoolClosed) {
			t.Errorf("expected ErrPoolClosed, got %v", err)
		}
		if batch := p.Wait(); batch.Total() != 0 {
			t.Errorf("unexpected batch %+v", batch)
		}
	})

	t.Run("Close Releases Blocked Submit", func(t *testing.T) {
		p := NewWorkerPool(context.Background(), 1, shared.NewLogger(io.Discard))
		release := make(chan struct{})
		block := func(context.Context) error { <-release; return nil }
		p.Submit(context.Background(), "a", block)
		p.Submit(context.Background(), "b", block)

		var wg sync.WaitGroup
		var submitErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			submitErr = p.Submit(context.Background(), "c", block)
		}()

		time.Sleep(20 * time.Millisecond)
		close(release)
		p.Close()
		wg.Wait()

		if submitErr != nil && !errors.Is(submitErr, shared.ErrPoolClosed) {
			t.Errorf("expected nil or ErrPoolClosed, got %v", submitErr)
		}
		batch := p.Wait()
		if batch.Total() < 2 {
			t.Errorf("expected every accepted task accounted for, got %+v", batch)
		}
	})
}
