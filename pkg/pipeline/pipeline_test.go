package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codeGROOVE-dev/guestscout/pkg/cache"
	"github.com/codeGROOVE-dev/guestscout/pkg/celebrity"
	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
	"github.com/codeGROOVE-dev/guestscout/pkg/score"
	"github.com/codeGROOVE-dev/guestscout/pkg/search"
)

type classifyFunc func(ctx context.Context, name string) (celebrity.Result, error)

func (f classifyFunc) IsExcluded(ctx context.Context, name string) (celebrity.Result, error) {
	return f(ctx, name)
}

type scoreFunc func(c guest.Candidate, topic string) score.Result

func (f scoreFunc) Score(c guest.Candidate, topic string, _ *score.SocialMetrics) score.Result {
	return f(c, topic)
}

var knownFigure = celebrity.Result{
	Excluded: true,
	Reason:   "Globally recognized technology leader",
	Evidence: &celebrity.Evidence{Source: celebrity.SourceKnownList},
}

// famous excludes "Elon Musk" from the known list and keeps everyone else.
func famous(_ context.Context, name string) (celebrity.Result, error) {
	if guest.NormalizeKey(name) == "elonmusk" {
		return knownFigure, nil
	}
	return celebrity.Result{}, nil
}

// totals scores candidates by a fixed table keyed by normalized name.
func totals(m map[string]float64) scoreFunc {
	return func(c guest.Candidate, _ string) score.Result {
		t := m[c.Key()]
		return score.Result{
			Total:     t,
			Breakdown: score.Breakdown{Relevance: t, Authority: t, Engagement: t, Recency: t, Reach: t},
		}
	}
}

func names(s []Scored) []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Candidate.Name
	}
	return out
}

func newTestOrchestrator(c Classifier, s Scorer, opts ...Option) *Orchestrator {
	return New(c, s, append([]Option{WithBatchSize(2), WithDelay(0)}, opts...)...)
}

func TestRunPartitionsAndSorts(t *testing.T) {
	candidates := []guest.Candidate{
		{Name: "Bob Low", Expertise: []string{"x"}},
		{Name: "Elon Musk"},
		{Name: "Jane Doe", Expertise: []string{"AI"}},
		{Name: "Ann Mid"},
		{Name: "jane doe", Expertise: []string{"Robotics"}},
		{Name: "Cat Mid"},
	}
	o := newTestOrchestrator(classifyFunc(famous), totals(map[string]float64{
		"boblow": 10, "janedoe": 90, "annmid": 50, "catmid": 50,
	}))

	r, err := o.Run(context.Background(), candidates, "ai")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if diff := cmp.Diff([]string{"Jane Doe", "Ann Mid", "Cat Mid", "Bob Low"}, names(r.Filtered)); diff != "" {
		t.Errorf("Filtered order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AI", "Robotics"}, r.Filtered[0].Candidate.Expertise); diff != "" {
		t.Errorf("duplicates were not merged (-want +got):\n%s", diff)
	}
	if !r.Filtered[0].Qualified || r.Filtered[3].Qualified {
		t.Errorf("Qualified flags = %v / %v, want true / false", r.Filtered[0].Qualified, r.Filtered[3].Qualified)
	}

	if len(r.Excluded) != 1 || r.Excluded[0].Candidate.Name != "Elon Musk" {
		t.Fatalf("Excluded = %+v, want Elon Musk", r.Excluded)
	}
	if r.Excluded[0].Reason != knownFigure.Reason || r.Excluded[0].Evidence.Source != celebrity.SourceKnownList {
		t.Errorf("Excluded[0] = %+v", r.Excluded[0])
	}

	want := Counts{
		ByReason:  map[string]int{"known-list": 1},
		Input:     6,
		Unique:    5,
		Evaluated: 5,
		Excluded:  1,
		Qualified: 1,
	}
	if diff := cmp.Diff(want, r.Counts); diff != "" {
		t.Errorf("Counts mismatch (-want +got):\n%s", diff)
	}
	if r.RunID == "" || r.SearchUnavailable {
		t.Errorf("RunID = %q, SearchUnavailable = %v", r.RunID, r.SearchUnavailable)
	}
}

func TestRunScoresWithRealScorer(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	jane := guest.Candidate{
		Name:            "Jane Doe",
		Title:           "AI Researcher",
		Bio:             "10 years experience, published author",
		Expertise:       []string{"Machine Learning"},
		Metrics:         &guest.Metrics{Followers: 1_000_000, EngagementRate: 0.05},
		LastActive:      now.Add(-24 * time.Hour),
		PastAppearances: make([]guest.Appearance, 5),
	}
	o := newTestOrchestrator(classifyFunc(famous), score.New(score.WithClock(func() time.Time { return now })))

	r, err := o.Run(context.Background(), []guest.Candidate{jane}, "AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Filtered) != 1 || r.Filtered[0].Score == nil {
		t.Fatalf("Filtered = %+v", r.Filtered)
	}
	if !r.Filtered[0].Qualified {
		t.Errorf("Jane Doe not qualified: %+v", r.Filtered[0].Score)
	}
}

func TestRunFailurePolicy(t *testing.T) {
	t.Run("classify error keeps and scores the candidate", func(t *testing.T) {
		c := classifyFunc(func(context.Context, string) (celebrity.Result, error) {
			return celebrity.Result{}, errors.New("backend down")
		})
		r, err := newTestOrchestrator(c, totals(map[string]float64{"janedoe": 70})).Run(context.Background(), []guest.Candidate{{Name: "Jane Doe"}}, "x")
		if err != nil {
			t.Fatal(err)
		}
		if len(r.Filtered) != 1 || r.Filtered[0].Score == nil || r.Filtered[0].Score.Total != 70 {
			t.Errorf("Filtered = %+v, want scored Jane Doe", r.Filtered)
		}
		if r.Counts.Failures != 1 {
			t.Errorf("Failures = %d, want 1", r.Counts.Failures)
		}
	})

	t.Run("rate limited classification is retried once", func(t *testing.T) {
		var calls atomic.Int32
		c := classifyFunc(func(context.Context, string) (celebrity.Result, error) {
			if calls.Add(1) == 1 {
				return celebrity.Result{}, &cache.RateLimitError{Service: "google", RetryAfter: time.Minute}
			}
			return knownFigure, nil
		})
		r, err := newTestOrchestrator(c, totals(nil)).Run(context.Background(), []guest.Candidate{{Name: "Jane Doe"}}, "x")
		if err != nil {
			t.Fatal(err)
		}
		if calls.Load() != 2 {
			t.Errorf("classify calls = %d, want 2", calls.Load())
		}
		if len(r.Excluded) != 1 {
			t.Errorf("retry result not used: %+v", r)
		}
	})

	t.Run("persistent rate limit keeps the candidate", func(t *testing.T) {
		var calls atomic.Int32
		c := classifyFunc(func(context.Context, string) (celebrity.Result, error) {
			calls.Add(1)
			return celebrity.Result{}, &cache.RateLimitError{Service: "google"}
		})
		r, err := newTestOrchestrator(c, totals(nil)).Run(context.Background(), []guest.Candidate{{Name: "Jane Doe"}}, "x")
		if err != nil {
			t.Fatal(err)
		}
		if calls.Load() != 2 || len(r.Filtered) != 1 {
			t.Errorf("calls = %d, filtered = %d; want 2 and 1", calls.Load(), len(r.Filtered))
		}
	})

	t.Run("classify panic excludes with generic reason", func(t *testing.T) {
		c := classifyFunc(func(_ context.Context, name string) (celebrity.Result, error) {
			if name == "Crash" {
				panic("boom")
			}
			return celebrity.Result{}, nil
		})
		r, err := newTestOrchestrator(c, totals(nil)).Run(context.Background(), []guest.Candidate{{Name: "Crash"}, {Name: "Fine"}}, "x")
		if err != nil {
			t.Fatal(err)
		}
		if len(r.Excluded) != 1 || r.Excluded[0].Reason != ReasonProcessingError {
			t.Fatalf("Excluded = %+v", r.Excluded)
		}
		if strings.Contains(r.Summary(), "boom") {
			t.Errorf("Summary leaks panic text: %q", r.Summary())
		}
		if r.Counts.ByReason[ReasonProcessingError] != 1 {
			t.Errorf("ByReason = %v", r.Counts.ByReason)
		}
	})

	t.Run("custom policy keeps crashed scoring unscored", func(t *testing.T) {
		s := scoreFunc(func(c guest.Candidate, _ string) score.Result {
			if c.Name == "Crash" {
				panic("boom")
			}
			return score.Result{Total: 1}
		})
		var seen []Failure
		var mu sync.Mutex
		policy := func(f Failure) Decision {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, f)
			return Decision{Action: Include}
		}
		r, err := newTestOrchestrator(classifyFunc(famous), s, WithPolicy(policy)).Run(context.Background(), []guest.Candidate{{Name: "Crash"}, {Name: "Zed"}}, "x")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"Zed", "Crash"}, names(r.Filtered)); diff != "" {
			t.Errorf("unscored candidate not last (-want +got):\n%s", diff)
		}
		if r.Filtered[1].Score != nil || r.Counts.Unscored != 1 {
			t.Errorf("Crash should be unscored: %+v", r.Filtered[1])
		}
		if len(seen) != 1 || seen[0].Stage != StageScore || !seen[0].Panic || seen[0].Attempt != 1 {
			t.Errorf("policy saw %+v", seen)
		}
	})
}

func TestDefaultPolicy(t *testing.T) {
	rle := &cache.RateLimitError{Service: "google"}
	tests := []struct {
		name string
		f    Failure
		want Action
	}{
		{"panic excludes", Failure{Stage: StageScore, Panic: true, Attempt: 1}, Exclude},
		{"rate limit retries first time", Failure{Stage: StageClassify, Err: rle, Attempt: 1}, Retry},
		{"rate limit includes second time", Failure{Stage: StageClassify, Err: rle, Attempt: 2}, Include},
		{"other classify error includes", Failure{Stage: StageClassify, Err: errors.New("x"), Attempt: 1}, Include},
		{"score error includes", Failure{Stage: StageScore, Err: errors.New("x"), Attempt: 1}, Include},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultPolicy(tt.f).Action; got != tt.want {
				t.Errorf("DefaultPolicy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchUnavailable(t *testing.T) {
	allFailed := classifyFunc(func(_ context.Context, name string) (celebrity.Result, error) {
		if name == "Elon Musk" {
			return knownFigure, nil
		}
		return celebrity.Result{Failed: []celebrity.Check{celebrity.CheckReference, celebrity.CheckSocial, celebrity.CheckNews}}, nil
	})
	r, err := newTestOrchestrator(allFailed, totals(nil)).Run(context.Background(),
		[]guest.Candidate{{Name: "Jane Doe"}, {Name: "Elon Musk"}, {Name: "Bob Roe"}}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if !r.SearchUnavailable {
		t.Error("SearchUnavailable = false, want true")
	}
	if !strings.Contains(r.Summary(), "Search service unavailable") {
		t.Errorf("Summary = %q", r.Summary())
	}

	partial := classifyFunc(func(_ context.Context, name string) (celebrity.Result, error) {
		if name == "Jane Doe" {
			return celebrity.Result{Failed: []celebrity.Check{celebrity.CheckSocial}}, nil
		}
		return celebrity.Result{Failed: []celebrity.Check{celebrity.CheckReference, celebrity.CheckSocial, celebrity.CheckNews}}, nil
	})
	r, err = newTestOrchestrator(partial, totals(nil)).Run(context.Background(),
		[]guest.Candidate{{Name: "Jane Doe"}, {Name: "Bob Roe"}}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if r.SearchUnavailable {
		t.Error("partial results reported as unavailable")
	}
}

func TestSummary(t *testing.T) {
	r := &Report{Counts: Counts{
		Input: 12, Unique: 10, Evaluated: 10, Excluded: 3, Qualified: 4,
		ByReason: map[string]int{"social-followers": 1, "known-list": 2},
	}}
	want := "10 candidates evaluated (2 duplicates merged), 3 excluded (known-list: 2, social-followers: 1), 4 qualified."
	if got := r.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := classifyFunc(func(ctx context.Context, name string) (celebrity.Result, error) {
		switch name {
		case "":
			return celebrity.Result{}, celebrity.ErrEmptyName
		case "Jane Doe":
			return celebrity.Result{Failed: []celebrity.Check{celebrity.CheckNews}}, nil
		}
		return famous(ctx, name)
	})
	o := newTestOrchestrator(c, totals(nil), WithMetrics(m))
	if _, err := o.Run(context.Background(), []guest.Candidate{{Name: "Jane Doe"}, {Name: "Elon Musk"}, {Bio: "no name"}}, "x"); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(m.evaluated); got != 3 {
		t.Errorf("evaluated = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.excluded.WithLabelValues("known-list")); got != 1 {
		t.Errorf("excluded{known-list} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.stageFailures.WithLabelValues("classify")); got != 1 {
		t.Errorf("stage failures{classify} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.degradedChecks.WithLabelValues("news")); got != 1 {
		t.Errorf("degraded checks{news} = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Errorf("duration collectors = %d, want 1", n)
	}
}

func TestRunProgressAndCancel(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)
	o := newTestOrchestrator(classifyFunc(famous), totals(nil), WithProgress(func(processed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		calls = append(calls, processed)
	}))
	if _, err := o.Run(context.Background(), []guest.Candidate{{Name: "A B"}, {Name: "C D"}, {Name: "E F"}}, "x"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, calls); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := o.Run(ctx, []guest.Candidate{{Name: "A B"}}, "x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if r == nil || r.Counts.Evaluated != 0 || r.Counts.Unique != 1 {
		t.Errorf("report after cancel = %+v", r)
	}
}

func TestRunPrefilters(t *testing.T) {
	appearances := func(n int) []guest.Appearance { return make([]guest.Appearance, n) }
	candidates := []guest.Candidate{
		{Name: "Ann Few", Expertise: []string{"Machine Learning"}, PastAppearances: appearances(1)},
		{Name: "Bob Many", Expertise: []string{"Machine Learning"}, PastAppearances: appearances(21)},
		{Name: "Cat Fit", Expertise: []string{"Applied Machine Learning"}, PastAppearances: appearances(2)},
		{Name: "Dan Offtopic", Expertise: []string{"Gardening"}, PastAppearances: appearances(20)},
		{Name: "Elon Musk", Expertise: []string{"machine learning"}, PastAppearances: appearances(5)},
	}

	tests := []struct {
		name           string
		opts           []Option
		wantKept       []string
		wantByReason   map[string]int
		wantClassified int
	}{
		{
			name:           "no filters",
			wantKept:       []string{"Ann Few", "Bob Many", "Cat Fit", "Dan Offtopic"},
			wantByReason:   map[string]int{"known-list": 1},
			wantClassified: 5,
		},
		{
			name:           "appearance range",
			opts:           []Option{WithAppearanceRange(2, 20)},
			wantKept:       []string{"Cat Fit", "Dan Offtopic"},
			wantByReason:   map[string]int{"known-list": 1, ReasonAppearances: 2},
			wantClassified: 3,
		},
		{
			name:           "no upper bound",
			opts:           []Option{WithAppearanceRange(2, 0)},
			wantKept:       []string{"Bob Many", "Cat Fit", "Dan Offtopic"},
			wantByReason:   map[string]int{"known-list": 1, ReasonAppearances: 1},
			wantClassified: 4,
		},
		{
			name:           "required topics",
			opts:           []Option{WithRequiredTopics(" MACHINE learning", "")},
			wantKept:       []string{"Ann Few", "Bob Many", "Cat Fit"},
			wantByReason:   map[string]int{"known-list": 1, ReasonTopics: 1},
			wantClassified: 4,
		},
		{
			name:           "blank topics are ignored",
			opts:           []Option{WithRequiredTopics("  ")},
			wantKept:       []string{"Ann Few", "Bob Many", "Cat Fit", "Dan Offtopic"},
			wantByReason:   map[string]int{"known-list": 1},
			wantClassified: 5,
		},
		{
			name:           "celebrity filter off",
			opts:           []Option{WithoutCelebrityFilter(), WithAppearanceRange(2, 20)},
			wantKept:       []string{"Cat Fit", "Dan Offtopic", "Elon Musk"},
			wantByReason:   map[string]int{ReasonAppearances: 2},
			wantClassified: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var classified atomic.Int32
			c := classifyFunc(func(ctx context.Context, name string) (celebrity.Result, error) {
				classified.Add(1)
				return famous(ctx, name)
			})
			r, err := newTestOrchestrator(c, totals(nil), tt.opts...).Run(context.Background(), candidates, "ml")
			if err != nil {
				t.Fatal(err)
			}
			kept := names(r.Filtered)
			slices.Sort(kept)
			if diff := cmp.Diff(tt.wantKept, kept); diff != "" {
				t.Errorf("kept (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantByReason, r.Counts.ByReason); diff != "" {
				t.Errorf("ByReason (-want +got):\n%s", diff)
			}
			if r.Counts.Evaluated != len(candidates) {
				t.Errorf("Evaluated = %d, want %d", r.Counts.Evaluated, len(candidates))
			}
			if got := int(classified.Load()); got != tt.wantClassified {
				t.Errorf("classifier calls = %d, want %d", got, tt.wantClassified)
			}
		})
	}
}

type namedSearcher string

func (n namedSearcher) Name() string { return string(n) }

func (n namedSearcher) Search(context.Context, search.Query) (*search.Response, error) {
	return &search.Response{}, nil
}

type namedReference string

func (n namedReference) Name() string { return string(n) }

func (n namedReference) Lookup(context.Context, string) (*search.Article, error) {
	return nil, nil //nolint:nilnil // no article
}

func TestRunRetriesRateLimitedClassifier(t *testing.T) {
	limiter := cache.NewLimiter(map[string]cache.Limit{
		"web": {MaxRequests: 1, Window: time.Hour},
		"ref": {MaxRequests: 1, Window: time.Hour},
	})
	for _, svc := range []string{"web", "ref"} {
		if err := limiter.Check(svc); err != nil {
			t.Fatal(err)
		}
	}
	classifier, err := celebrity.New(namedReference("ref"), namedSearcher("web"), celebrity.WithLimiter(limiter))
	if err != nil {
		t.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r, err := newTestOrchestrator(classifier, totals(map[string]float64{"janedoe": 50}), WithMetrics(m)).
		Run(context.Background(), []guest.Candidate{{Name: "Jane Doe"}}, "x")
	if err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.stageFailures.WithLabelValues("classify")); got != 2 {
		t.Errorf("classify failures = %v, want 2 (first attempt and its retry)", got)
	}
	if len(r.Filtered) != 1 || r.Filtered[0].Score == nil {
		t.Errorf("Filtered = %+v, want Jane Doe kept and scored", r.Filtered)
	}
}
