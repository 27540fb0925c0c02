package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/scigp/pkg/errors"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit worker count. workers <= 0
// means one worker per CPU core.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	numWorkers := Workers(workers)
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// Calculate the number of items each worker handles (ceiling division)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// Workers resolves a requested worker count: n <= 0 selects runtime.NumCPU().
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// ForEach calls fn(ctx, i) for i in [0, items) on at most workers goroutines.
// Items are handed out in index order. A panic in fn is recovered into an
// error. Every item runs even when others fail; the returned slice holds
// one error (or nil) per item. Items not started before ctx is done get
// ctx.Err().
func ForEach(ctx context.Context, items, workers int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, items)
	if items <= 0 {
		return errs
	}
	numWorkers := Workers(workers)
	if numWorkers > items {
		numWorkers = items
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				errs[i] = errors.SafeExecute("parallel.ForEach", func() error {
					return fn(ctx, i)
				})
			}
		}()
	}

	for i := 0; i < items; i++ {
		if err := ctx.Err(); err != nil {
			for j := i; j < items; j++ {
				errs[j] = err
			}
			break
		}
		next <- i
	}
	close(next)
	wg.Wait()
	return errs
}
