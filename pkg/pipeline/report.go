package pipeline

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/codeGROOVE-dev/guestscout/pkg/celebrity"
	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
	"github.com/codeGROOVE-dev/guestscout/pkg/score"
)

// Scored is a kept candidate. Score is nil when scoring failed and the policy kept it anyway.
type Scored struct {
	Score     *score.Result   `json:"score,omitempty"`
	Candidate guest.Candidate `json:"candidate"`
	Qualified bool            `json:"qualified"`
}

// Excluded is a dropped candidate with the reason it was dropped.
type Excluded struct {
	Evidence  *celebrity.Evidence `json:"evidence,omitempty"`
	Reason    string              `json:"reason"`
	Candidate guest.Candidate     `json:"candidate"`
}

// Counts aggregates a run.
type Counts struct {
	// ByReason counts exclusions by evidence source, or by reason when there is no evidence.
	ByReason  map[string]int `json:"by_reason,omitempty"`
	Input     int            `json:"input"`
	Unique    int            `json:"unique"`
	Evaluated int            `json:"evaluated"`
	Excluded  int            `json:"excluded"`
	Qualified int            `json:"qualified"`
	Unscored  int            `json:"unscored"`
	Failures  int            `json:"failures"`
}

// Report is the outcome of a run.
type Report struct {
	RunID string `json:"run_id"`
	Topic string `json:"topic"`
	// Filtered is sorted by descending total score; unscored candidates come last.
	Filtered []Scored   `json:"filtered"`
	Excluded []Excluded `json:"excluded"`
	Counts   Counts     `json:"counts"`
	// SearchUnavailable is set when every externally checked candidate had all of its checks fail.
	SearchUnavailable bool `json:"search_unavailable"`
}

func newReport(runID, topic string, input int, evals []evaluation) *Report {
	r := &Report{
		RunID:    runID,
		Topic:    topic,
		Filtered: []Scored{},
		Excluded: []Excluded{},
		Counts:   Counts{Input: input, Unique: len(evals), ByReason: map[string]int{}},
	}

	checked, unavailable := 0, 0
	for _, ev := range evals {
		if !ev.evaluated {
			continue
		}
		r.Counts.Evaluated++
		r.Counts.Failures += ev.failures
		if ev.class != nil && ev.class.Checked() {
			checked++
			if ev.class.AllChecksFailed() {
				unavailable++
			}
		}

		if ev.excluded {
			r.Excluded = append(r.Excluded, Excluded{Candidate: ev.candidate, Reason: ev.reason, Evidence: ev.evidence})
			r.Counts.Excluded++
			r.Counts.ByReason[exclusionKey(ev.reason, ev.evidence)]++
			continue
		}
		r.Filtered = append(r.Filtered, Scored{Candidate: ev.candidate, Score: ev.score, Qualified: ev.qualified})
		if ev.score == nil {
			r.Counts.Unscored++
		}
		if ev.qualified {
			r.Counts.Qualified++
		}
	}
	r.SearchUnavailable = checked > 0 && unavailable == checked

	slices.SortStableFunc(r.Filtered, compareScored)
	return r
}

// compareScored orders by descending total, unscored last, ties by normalized name.
func compareScored(a, b Scored) int {
	switch {
	case a.Score != nil && b.Score == nil:
		return -1
	case a.Score == nil && b.Score != nil:
		return 1
	case a.Score != nil && b.Score != nil:
		if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
			return c
		}
	default:
	}
	return cmp.Compare(a.Candidate.Key(), b.Candidate.Key())
}

// Summary renders the aggregate outcome for end users. It never includes provider error text.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d candidates evaluated", r.Counts.Evaluated)
	if r.Counts.Unique < r.Counts.Input {
		fmt.Fprintf(&sb, " (%d duplicates merged)", r.Counts.Input-r.Counts.Unique)
	}
	fmt.Fprintf(&sb, ", %d excluded", r.Counts.Excluded)
	if len(r.Counts.ByReason) > 0 {
		keys := slices.Sorted(maps.Keys(r.Counts.ByReason))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %d", k, r.Counts.ByReason[k])
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&sb, ", %d qualified.", r.Counts.Qualified)
	if r.SearchUnavailable {
		sb.WriteString(" Search service unavailable: celebrity checks could not be completed.")
	}
	return sb.String()
}
