package parallel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
)

func TestParallelizeNCoversEveryItem(t *testing.T) {
	tests := []struct {
		items, workers int
	}{
		{0, 4},
		{1, 4},
		{7, 3},
		{100, 0},
		{5, 16},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("items=%d/workers=%d", tt.items, tt.workers), func(t *testing.T) {
			seen := make([]int32, tt.items)
			ParallelizeN(tt.items, tt.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Errorf("item %d visited %d times", i, c)
				}
			}
		})
	}
}

func TestParallelizeWithThresholdSequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("got range [%d,%d), want [0,10)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestForEachCollectsErrorsPerItem(t *testing.T) {
	errs := ForEach(context.Background(), 6, 3, func(_ context.Context, i int) error {
		if i%2 == 1 {
			return fmt.Errorf("item %d failed", i)
		}
		return nil
	})

	for i, err := range errs {
		if (err != nil) != (i%2 == 1) {
			t.Errorf("item %d: err = %v", i, err)
		}
	}
}

func TestForEachRecoversPanics(t *testing.T) {
	errs := ForEach(context.Background(), 3, 2, func(_ context.Context, i int) error {
		if i == 1 {
			panic("boom")
		}
		return nil
	})
	if errs[1] == nil {
		t.Fatal("expected panic to be converted into an error")
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	errs := ForEach(ctx, 4, 2, func(context.Context, int) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	if ran != 0 {
		t.Errorf("%d items ran after cancellation", ran)
	}
	for i, err := range errs {
		if err != context.Canceled {
			t.Errorf("item %d: err = %v, want context.Canceled", i, err)
		}
	}
}

func TestWorkers(t *testing.T) {
	if Workers(3) != 3 {
		t.Error("explicit worker count not honoured")
	}
	if Workers(0) < 1 {
		t.Error("default worker count must be positive")
	}
}
