// Package pipeline runs candidate lists through de-duplication, celebrity
// filtering and scoring, and assembles the ranked report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/guestscout/pkg/batch"
	"github.com/codeGROOVE-dev/guestscout/pkg/celebrity"
	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
	"github.com/codeGROOVE-dev/guestscout/pkg/match"
	"github.com/codeGROOVE-dev/guestscout/pkg/score"
)

// Classifier decides whether a name is too high-profile to suggest.
type Classifier interface {
	IsExcluded(ctx context.Context, name string) (celebrity.Result, error)
}

// Scorer rates a candidate for a topic.
type Scorer interface {
	Score(c guest.Candidate, topic string, metrics *score.SocialMetrics) score.Result
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithMetrics records pipeline activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithBatchSize sets how many candidates are evaluated concurrently.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) { o.batchSize = n }
}

// WithDelay sets the pause between batches.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithProgress sets a callback invoked after every evaluated candidate.
func WithProgress(p batch.Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithAppearanceRange drops candidates with fewer than minCount or more than
// maxCount past appearances before classification. maxCount <= 0 means no upper bound.
func WithAppearanceRange(minCount, maxCount int) Option {
	return func(o *Orchestrator) {
		o.appearances = &appearanceRange{min: minCount, max: maxCount}
	}
}

// WithRequiredTopics drops candidates none of whose expertise tags contains
// any of topics, compared case-insensitively. Blank topics are ignored.
func WithRequiredTopics(topics ...string) Option {
	return func(o *Orchestrator) {
		o.requiredTopics = nil
		for _, t := range topics {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				o.requiredTopics = append(o.requiredTopics, t)
			}
		}
	}
}

// WithoutCelebrityFilter skips classification; every candidate is scored.
func WithoutCelebrityFilter() Option {
	return func(o *Orchestrator) { o.skipClassify = true }
}

// Orchestrator drives the end-to-end evaluation of candidate lists.
type Orchestrator struct {
	classifier     Classifier
	scorer         Scorer
	policy         Policy
	metrics        *Metrics
	logger         *slog.Logger
	progress       batch.Progress
	appearances    *appearanceRange
	requiredTopics []string
	batchSize      int
	delay          time.Duration
	skipClassify   bool
}

// New creates an Orchestrator with batches of five and a one second pause between batches.
func New(classifier Classifier, scorer Scorer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		scorer:     scorer,
		policy:     DefaultPolicy,
		logger:     slog.Default(),
		batchSize:  5,
		delay:      time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// evaluation is the outcome for one unique candidate.
type evaluation struct {
	score     *score.Result
	evidence  *celebrity.Evidence
	class     *celebrity.Result
	reason    string
	candidate guest.Candidate
	failures  int
	excluded  bool
	evaluated bool
	qualified bool
}

// Run de-duplicates candidates, classifies and scores every unique candidate
// and returns the report. Individual candidate failures never abort the run;
// they are resolved by the policy. If ctx ends early, the report covers the
// candidates evaluated so far and the context error is returned with it.
func (o *Orchestrator) Run(ctx context.Context, candidates []guest.Candidate, topic string) (*Report, error) {
	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)
	unique := match.Dedupe(candidates)
	logger.InfoContext(ctx, "evaluating candidates", "input", len(candidates), "unique", len(unique), "topic", topic)

	evals := make([]evaluation, len(unique))
	runErr := batch.Run(ctx, len(unique), batch.Options{
		Size:       o.batchSize,
		Delay:      o.delay,
		OnProgress: o.progress,
	}, func(ctx context.Context, i int) {
		start := time.Now()
		evals[i] = o.evaluate(ctx, logger, unique[i], topic)
		o.metrics.observeEvaluation(time.Since(start))
	})
	if runErr != nil {
		logger.WarnContext(ctx, "run stopped early", "error", runErr)
	}

	r := newReport(runID, topic, len(candidates), evals)
	logger.InfoContext(ctx, "run complete",
		"evaluated", r.Counts.Evaluated, "excluded", r.Counts.Excluded,
		"qualified", r.Counts.Qualified, "failures", r.Counts.Failures)
	return r, runErr
}

func (o *Orchestrator) evaluate(ctx context.Context, logger *slog.Logger, c guest.Candidate, topic string) evaluation {
	ev := evaluation{candidate: c, evaluated: true}

	if reason := o.prefilter(c); reason != "" {
		logger.DebugContext(ctx, "candidate filtered", "name", c.Name, "reason", reason)
		return o.exclude(ev, reason, nil)
	}

	for attempt := 1; !o.skipClassify; attempt++ {
		res, panicked, err := o.classify(ctx, c.Name)
		if err == nil {
			ev.class = &res
			for _, check := range res.Failed {
				o.metrics.observeDegradedCheck(string(check))
			}
			break
		}
		ev.failures++
		d := o.decide(ctx, logger, c, Failure{Stage: StageClassify, Err: err, Attempt: attempt, Panic: panicked})
		if d.Action == Retry && attempt < maxAttempts {
			continue
		}
		if d.Action == Exclude {
			return o.exclude(ev, d.Reason, nil)
		}
		break
	}
	if ev.class != nil && ev.class.Excluded {
		return o.exclude(ev, ev.class.Reason, ev.class.Evidence)
	}

	for attempt := 1; ; attempt++ {
		res, panicked, err := o.score(c, topic)
		if err == nil {
			ev.score = &res
			ev.qualified = score.Qualified(res)
			break
		}
		ev.failures++
		d := o.decide(ctx, logger, c, Failure{Stage: StageScore, Err: err, Attempt: attempt, Panic: panicked})
		if d.Action == Retry && attempt < maxAttempts {
			continue
		}
		if d.Action == Exclude {
			return o.exclude(ev, d.Reason, nil)
		}
		break
	}
	return ev
}

func (o *Orchestrator) exclude(ev evaluation, reason string, evidence *celebrity.Evidence) evaluation {
	ev.excluded, ev.reason, ev.evidence = true, reason, evidence
	o.metrics.observeExcluded(exclusionKey(reason, evidence))
	return ev
}

func (o *Orchestrator) decide(ctx context.Context, logger *slog.Logger, c guest.Candidate, f Failure) Decision {
	o.metrics.observeStageFailure(f.Stage)
	d := o.policy(f)
	logger.WarnContext(ctx, "stage failed",
		"stage", string(f.Stage), "name", c.Name, "attempt", f.Attempt,
		"panic", f.Panic, "error", f.Err, "action", d.Action.String())
	return d
}

func (o *Orchestrator) classify(ctx context.Context, name string) (res celebrity.Result, panicked bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err, panicked = fmt.Errorf("classify panic: %v", p), true
		}
	}()
	res, err = o.classifier.IsExcluded(ctx, name)
	return res, false, err
}

var errNoScorer = errors.New("no scorer configured")

func (o *Orchestrator) score(c guest.Candidate, topic string) (res score.Result, panicked bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err, panicked = fmt.Errorf("score panic: %v", p), true
		}
	}()
	if o.scorer == nil {
		return res, false, errNoScorer
	}
	return o.scorer.Score(c, topic, nil), false, nil
}

// exclusionKey groups exclusions for counting: by evidence source when known,
// otherwise by reason.
func exclusionKey(reason string, evidence *celebrity.Evidence) string {
	if evidence != nil {
		return string(evidence.Source)
	}
	return reason
}
