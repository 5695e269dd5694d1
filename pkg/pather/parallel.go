package pather

import (
	"runtime"
	"sync"
)

// mapChunks splits the index range [0, n) into up to runtime.NumCPU()
// contiguous chunks, runs fn(start, end) concurrently (one goroutine per
// chunk) and returns the per-chunk results in chunk order. Blocks until all
// workers are done.
//
// All call sites hand workers read-only shared state and merge the partial
// results serially afterwards, which keeps scoring race-free and the merge
// order deterministic.
func mapChunks[T any](n int, fn func(start, end int) T) []T {
	if n <= 0 {
		return nil
	}
	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	type span struct{ start, end int }
	var spans []span
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		spans = append(spans, span{start, end})
	}

	results := make([]T, len(spans))
	var wg sync.WaitGroup
	for i, s := range spans {
		wg.Add(1)
		go func(i int, s span) {
			defer wg.Done()
			results[i] = fn(s.start, s.end)
		}(i, s)
	}
	wg.Wait()
	return results
}
