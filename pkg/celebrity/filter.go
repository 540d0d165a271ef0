package celebrity

import (
	"context"
	"time"

	"github.com/codeGROOVE-dev/guestscout/pkg/batch"
	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
)

// FilterOptions controls FilterBatch.
type FilterOptions struct {
	OnProgress batch.Progress
	BatchSize  int
	Delay      time.Duration
}

// DefaultFilterOptions returns five concurrent lookups per batch with a one second pause between batches.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{BatchSize: 5, Delay: time.Second}
}

// Exclusion pairs an excluded candidate with its classification.
type Exclusion struct {
	Candidate guest.Candidate `json:"candidate"`
	Result    Result          `json:"result"`
}

// Filtered is the outcome of FilterBatch. Both lists keep input order.
type Filtered struct {
	Kept     []guest.Candidate `json:"kept"`
	Excluded []Exclusion       `json:"excluded"`
}

// FilterBatch classifies candidates in bounded batches. A candidate whose
// classification errors is kept. If ctx ends early, the candidates classified
// so far are returned along with the context error.
func (c *Classifier) FilterBatch(ctx context.Context, candidates []guest.Candidate, opts FilterOptions) (Filtered, error) {
	type outcome struct {
		result Result
		err    error
		done   bool
	}
	outcomes := make([]outcome, len(candidates))

	runErr := batch.Run(ctx, len(candidates), batch.Options{
		Size:       opts.BatchSize,
		Delay:      opts.Delay,
		OnProgress: opts.OnProgress,
	}, func(ctx context.Context, i int) {
		r, err := c.IsExcluded(ctx, candidates[i].Name)
		if err != nil {
			c.logger.WarnContext(ctx, "classification error, keeping candidate", "name", candidates[i].Name, "error", err)
		}
		outcomes[i] = outcome{result: r, err: err, done: true}
	})

	var out Filtered
	for i, o := range outcomes {
		if !o.done {
			continue
		}
		if o.err == nil && o.result.Excluded {
			out.Excluded = append(out.Excluded, Exclusion{Candidate: candidates[i], Result: o.result})
			continue
		}
		out.Kept = append(out.Kept, candidates[i])
	}
	return out, runErr
}
