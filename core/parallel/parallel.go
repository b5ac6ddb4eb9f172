// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// Parallelize divides items into one contiguous chunk per CPU core and runs
// fn on each chunk concurrently. It returns the combined errors of all chunks.
func Parallelize(items int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}
	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		err error
	)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			if chunkErr := fn(s, e); chunkErr != nil {
				mu.Lock()
				err = errors.CombineErrors(err, chunkErr)
				mu.Unlock()
			}
		}(start, end)
	}
	wg.Wait()
	return err
}

// ParallelizeWithThreshold runs fn over the whole range on the calling
// goroutine when items does not exceed threshold, and like Parallelize
// otherwise.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int) error) error {
	if items <= 0 {
		return nil
	}
	if items <= threshold {
		return fn(0, items)
	}
	return Parallelize(items, fn)
}

// ForEach calls fn once per index in [0, items), in parallel above threshold.
// Every index is visited even if some calls fail.
func ForEach(items, threshold int, fn func(i int) error) error {
	return ParallelizeWithThreshold(items, threshold, func(start, end int) error {
		var err error
		for i := start; i < end; i++ {
			err = errors.CombineErrors(err, fn(i))
		}
		return err
	})
}
