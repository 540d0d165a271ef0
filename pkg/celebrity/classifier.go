// Package celebrity decides whether a candidate is too famous or too widely
// followed to be a realistic podcast guest.
package celebrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeGROOVE-dev/guestscout/pkg/cache"
	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
	"github.com/codeGROOVE-dev/guestscout/pkg/match"
	"github.com/codeGROOVE-dev/guestscout/pkg/search"
)

// DefaultTimeout bounds the external checks for one name.
const DefaultTimeout = 10 * time.Second

// ErrEmptyName is returned for names that normalize to nothing.
var ErrEmptyName = errors.New("empty name")

// Source identifies the evidence that led to an exclusion.
type Source string

// Evidence sources.
const (
	SourceKnownList Source = "known-list"
	SourceReference Source = "reference-lookup"
	SourceSocial    Source = "social-followers"
	SourceNews      Source = "news-coverage"
)

// Check names one of the external heuristics.
type Check string

// Heuristic checks run for names missing from the known-figures table.
const (
	CheckReference Check = "reference"
	CheckSocial    Check = "social"
	CheckNews      Check = "news"
)

var allChecks = []Check{CheckReference, CheckSocial, CheckNews}

// Evidence records why a name was excluded.
type Evidence struct {
	Details map[string]string `json:"details,omitempty"`
	Source  Source            `json:"source"`
}

// Result is the classification of one name.
type Result struct {
	Evidence *Evidence `json:"evidence,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	// Failed lists checks that errored and counted as negative.
	Failed   []Check `json:"failed,omitempty"`
	Excluded bool    `json:"excluded"`
	// TimedOut is set when the decision was made before every check finished.
	TimedOut bool `json:"timed_out,omitempty"`
}

// Checked reports whether the result came from the external checks rather
// than the known-figures table.
func (r Result) Checked() bool {
	return r.Evidence == nil || r.Evidence.Source != SourceKnownList
}

// AllChecksFailed reports whether every external check failed, meaning the
// decision carries no evidence either way.
func (r Result) AllChecksFailed() bool {
	return r.Checked() && len(r.Failed) >= len(allChecks)
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) { c.logger = logger }
}

// WithLimiter gates every external call through l, keyed by provider name.
func WithLimiter(l *cache.Limiter) Option {
	return func(c *Classifier) { c.limiter = l }
}

// WithFigures replaces the built-in known-figures table.
func WithFigures(f *Figures) Option {
	return func(c *Classifier) { c.figures = f }
}

// WithTimeout sets the overall deadline for the external checks of one name.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

// Classifier decides exclusion for names, caching each decision for its lifetime.
type Classifier struct {
	reference search.Reference
	web       search.Searcher
	limiter   *cache.Limiter
	figures   *Figures
	logger    *slog.Logger
	results   *cache.Memo[Result]
	timeout   time.Duration
}

// New creates a Classifier. Either provider may be nil, in which case its
// checks always fail and count as negative.
func New(reference search.Reference, web search.Searcher, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		reference: reference,
		web:       web,
		logger:    slog.Default(),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.figures == nil {
		f, err := DefaultFigures()
		if err != nil {
			return nil, fmt.Errorf("load known figures: %w", err)
		}
		c.figures = f
	}
	c.results = cache.NewMemo[Result](0, cache.WithLogger(c.logger))
	return c, nil
}

// uncachedError carries a provisional decision out of the cache fetch so that
// it reaches the caller without being stored. err is what the caller sees.
type uncachedError struct {
	err    error
	result Result
}

func (e *uncachedError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "classification timed out"
}

// IsExcluded classifies name. Repeat calls for the same normalized name are
// answered from the cache without external calls. Failing checks degrade to
// negative evidence. Errors are ErrEmptyName for a blank name, or a
// *cache.RateLimitError when the limiter refused every check; in the latter
// case the provisional result is returned too and nothing is cached.
func (c *Classifier) IsExcluded(ctx context.Context, name string) (Result, error) {
	key := guest.NormalizeKey(name)
	if key == "" {
		return Result{}, ErrEmptyName
	}

	r, err := c.results.Get(ctx, key, func(ctx context.Context) (Result, error) {
		if fig, ok := c.figures.Lookup(name); ok {
			c.logger.DebugContext(ctx, "known figure", "name", name, "category", fig.Category)
			return Result{
				Excluded: true,
				Reason:   fig.Reason,
				Evidence: &Evidence{Source: SourceKnownList, Details: map[string]string{"category": fig.Category}},
			}, nil
		}
		r, err := c.evaluate(ctx, name)
		if r.TimedOut || err != nil {
			return Result{}, &uncachedError{result: r, err: err}
		}
		return r, nil
	})
	var ue *uncachedError
	if errors.As(err, &ue) {
		return ue.result, ue.err
	}
	return r, err
}

// ClearCache forgets every cached decision.
func (c *Classifier) ClearCache() {
	c.results.Clear()
}

// CacheStats reports decision cache hits and misses.
func (c *Classifier) CacheStats() cache.Stats {
	return c.results.Stats()
}

type socialHit struct {
	platform  string
	followers int64
	threshold int64
}

// findings accumulates check outcomes as they complete.
type findings struct {
	refDetails  map[string]string
	newsDetails map[string]string
	social      *socialHit
	failed      []Check
	limited     []error
	reference   bool
	news        bool
}

// evaluate runs the external checks. The error is non-nil only when the
// limiter refused every check.
func (c *Classifier) evaluate(ctx context.Context, name string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		f  findings
	)
	fail := func(check Check, err error) {
		c.logger.WarnContext(ctx, "check failed", "check", string(check), "name", name, "error", err)
		mu.Lock()
		defer mu.Unlock()
		f.failed = append(f.failed, check)
		var rle *cache.RateLimitError
		if errors.As(err, &rle) {
			f.limited = append(f.limited, err)
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		ok, details, err := c.checkReference(ctx, name)
		if err != nil {
			fail(CheckReference, err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		f.reference, f.refDetails = ok, details
		return nil
	})
	g.Go(func() error {
		hit, err := c.checkSocial(ctx, name)
		if err != nil {
			fail(CheckSocial, err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		f.social = hit
		return nil
	})
	g.Go(func() error {
		ok, details, err := c.checkNews(ctx, name)
		if err != nil {
			fail(CheckNews, err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		f.news, f.newsDetails = ok, details
		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = g.Wait() //nolint:errcheck // checks never return errors
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
	// Any check cut short by the deadline makes the decision provisional.
	timedOut := ctx.Err() != nil
	if timedOut {
		c.logger.WarnContext(ctx, "classification timed out, deciding on partial results", "name", name, "timeout", c.timeout)
	}

	mu.Lock()
	snapshot := f
	snapshot.failed = append([]Check(nil), f.failed...)
	limited := len(f.limited)
	var firstLimited error
	if limited > 0 {
		firstLimited = f.limited[0]
	}
	mu.Unlock()

	r := decide(snapshot)
	r.TimedOut = timedOut
	if limited == len(allChecks) {
		return r, fmt.Errorf("every check rate limited: %w", firstLimited)
	}
	return r, nil
}

// decide applies the exclusion rule: a large social following alone excludes;
// otherwise both reference presence and news coverage are required.
func decide(f findings) Result {
	r := Result{Failed: f.failed}
	switch {
	case f.social != nil:
		r.Excluded = true
		r.Reason = fmt.Sprintf("Social media influencer with %s followers on %s", formatCount(f.social.followers), f.social.platform)
		r.Evidence = &Evidence{Source: SourceSocial, Details: map[string]string{
			"platform":  f.social.platform,
			"followers": strconv.FormatInt(f.social.followers, 10),
			"threshold": strconv.FormatInt(f.social.threshold, 10),
		}}
	case f.reference && f.news:
		r.Excluded = true
		r.Reason = "High-profile public figure: substantial reference article and major recent news coverage"
		details := make(map[string]string, len(f.refDetails)+len(f.newsDetails))
		maps.Copy(details, f.refDetails)
		maps.Copy(details, f.newsDetails)
		r.Evidence = &Evidence{Source: SourceReference, Details: details}
	}
	return r
}

func (c *Classifier) allow(ctx context.Context, provider string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Check(provider)
}

func (c *Classifier) checkReference(ctx context.Context, name string) (bool, map[string]string, error) {
	if c.reference == nil {
		return false, nil, errors.New("no reference provider configured")
	}
	if err := c.allow(ctx, c.reference.Name()); err != nil {
		return false, nil, err
	}
	art, err := c.reference.Lookup(ctx, name)
	if err != nil {
		return false, nil, fmt.Errorf("reference lookup: %w", err)
	}
	if art == nil {
		return false, nil, nil
	}

	summary := strings.ToLower(art.Snippet)
	details := map[string]string{
		"article":    art.Title,
		"word_count": strconv.Itoa(art.WordCount),
	}
	if kw := firstContained(summary, achievementKeywords); kw != "" {
		details["achievement"] = kw
		return true, details, nil
	}
	if art.WordCount > longArticleWords {
		if kw := firstContained(summary, highProfileKeywords); kw != "" {
			details["keyword"] = kw
			return true, details, nil
		}
	}
	return false, nil, nil
}

func (c *Classifier) checkSocial(ctx context.Context, name string) (*socialHit, error) {
	if c.web == nil {
		return nil, errors.New("no web search provider configured")
	}
	if err := c.allow(ctx, c.web.Name()); err != nil {
		return nil, err
	}
	resp, err := c.web.Search(ctx, search.Query{
		Text:       `"` + name + `"`,
		NumResults: 10,
		Sites:      socialSites,
	})
	if err != nil {
		return nil, fmt.Errorf("social search: %w", err)
	}

	for _, res := range resp.Results {
		count, ok := FollowerCount(res.Snippet)
		if !ok {
			continue
		}
		var threshold int64 = generalFollowerThreshold
		if firstContained(strings.ToLower(res.Snippet), businessKeywords) != "" {
			threshold = businessFollowerThreshold
		}
		if count > threshold {
			platform, ok := platformLabels[match.Platform(res.Link)]
			if !ok {
				platform = "Social Media"
			}
			return &socialHit{platform: platform, followers: count, threshold: threshold}, nil
		}
	}
	return nil, nil //nolint:nilnil // no influencer found
}

func (c *Classifier) checkNews(ctx context.Context, name string) (bool, map[string]string, error) {
	if c.web == nil {
		return false, nil, errors.New("no web search provider configured")
	}
	if err := c.allow(ctx, c.web.Name()); err != nil {
		return false, nil, err
	}
	resp, err := c.web.Search(ctx, search.Query{
		Text:         `"` + name + `"`,
		NumResults:   10,
		DateRestrict: "y1",
	})
	if err != nil {
		return false, nil, fmt.Errorf("news search: %w", err)
	}

	outlets := 0
	headline := ""
	for _, res := range resp.Results {
		if !isNewsDomain(res.Link) {
			continue
		}
		outlets++
		if headline == "" && firstContained(strings.ToLower(res.Title), headlineVerbs) != "" {
			headline = res.Title
		}
	}

	if resp.TotalResults <= newsVolumeThreshold && outlets < newsOutletThreshold && headline == "" {
		return false, nil, nil
	}
	details := map[string]string{
		"total_results": strconv.FormatInt(resp.TotalResults, 10),
		"news_results":  strconv.Itoa(outlets),
	}
	if headline != "" {
		details["headline"] = headline
	}
	return true, details, nil
}

func isNewsDomain(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range newsDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// firstContained returns the first keyword found in text, or "".
func firstContained(text string, keywords []string) string {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return kw
		}
	}
	return ""
}

func formatCount(n int64) string {
	switch {
	case n >= 1e9:
		return strconv.FormatFloat(float64(n)/1e9, 'f', -1, 64) + "B"
	case n >= 1e6:
		return strconv.FormatFloat(float64(n)/1e6, 'f', -1, 64) + "M"
	case n >= 1e3:
		return strconv.FormatFloat(float64(n)/1e3, 'f', -1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
