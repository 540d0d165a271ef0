// Package batch runs work over a list in bounded concurrent groups.
package batch

import (
	"context"
	"sync"
	"time"
)

// Progress reports how many items have finished out of total.
type Progress func(processed, total int)

// Options controls a Run.
type Options struct {
	// OnProgress is called once per finished item, never concurrently,
	// with a strictly increasing processed count.
	OnProgress Progress
	// Size is the number of items processed concurrently. Values below 1 mean 1.
	Size int
	// Delay is the pause between groups. There is no pause after the last group.
	Delay time.Duration
}

// Run calls fn for every index in [0, n). Indexes are processed in groups of
// opts.Size; the items of a group run concurrently and groups run one after
// another. Run returns ctx.Err() if the context ends before every group has
// been scheduled; a group already running is always waited for.
func Run(ctx context.Context, n int, opts Options, fn func(ctx context.Context, i int)) error {
	size := max(opts.Size, 1)

	var mu sync.Mutex
	processed := 0
	done := func() {
		mu.Lock()
		defer mu.Unlock()
		processed++
		if opts.OnProgress != nil {
			opts.OnProgress(processed, n)
		}
	}

	for start := 0; start < n; start += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+size, n)

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer done()
				fn(ctx, i)
			}()
		}
		wg.Wait()

		if end < n && opts.Delay > 0 {
			t := time.NewTimer(opts.Delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	return nil
}
