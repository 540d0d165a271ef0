// Command guestscout filters and ranks podcast guest candidates.
//
// Usage:
//
//	guestscout -topic "machine learning" -in candidates.json
//	llm-tool "suggest guests" | guestscout -topic AI    # reads a completion from stdin
//
// Celebrity checks need GOOGLE_API_KEY and GOOGLE_CSE_ID, or BRAVE_API_KEY
// (or ~/.brave) with -provider brave. A .env file in the working directory is loaded first.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codeGROOVE-dev/guestscout/pkg/cache"
	"github.com/codeGROOVE-dev/guestscout/pkg/celebrity"
	"github.com/codeGROOVE-dev/guestscout/pkg/llmjson"
	"github.com/codeGROOVE-dev/guestscout/pkg/pipeline"
	"github.com/codeGROOVE-dev/guestscout/pkg/score"
	"github.com/codeGROOVE-dev/guestscout/pkg/search"
)

func main() {
	topic := flag.String("topic", "", "podcast topic used for relevance scoring (required)")
	in := flag.String("in", "", "file holding a JSON candidate array or an LLM completion (default: stdin)")
	provider := flag.String("provider", "google", "web search provider: google or brave")
	figures := flag.String("figures", "", "JSON file replacing the built-in known figures table")
	batchSize := flag.Int("batch", 5, "candidates evaluated concurrently")
	delay := flag.Duration("delay", time.Second, "pause between batches")
	cacheTTL := flag.Duration("cache-ttl", cache.DefaultTTL, "search response cache time-to-live")
	minAppearances := flag.Int("min-appearances", 0, "drop candidates with fewer past podcast appearances")
	maxAppearances := flag.Int("max-appearances", 0, "drop candidates with more past podcast appearances (0 means no limit)")
	requireTopics := flag.String("require-topics", "", "comma-separated topics; keep only candidates with a matching expertise tag")
	noCelebrityFilter := flag.Bool("no-celebrity-filter", false, "skip celebrity classification and score every candidate")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while running, e.g. :9090")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *topic == "" {
		fmt.Fprintln(os.Stderr, "Usage: guestscout -topic <topic> [options]")
		fmt.Fprintln(os.Stderr, "\nOptions:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, config{
		topic:       *topic,
		in:          *in,
		provider:    *provider,
		figures:     *figures,
		batchSize:   *batchSize,
		delay:       *delay,
		cacheTTL:    *cacheTTL,
		metricsAddr: *metricsAddr,

		minAppearances:    *minAppearances,
		maxAppearances:    *maxAppearances,
		requireTopics:     *requireTopics,
		noCelebrityFilter: *noCelebrityFilter,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1) //nolint:gocritic // exitAfterDefer is acceptable in main
	}
}

type config struct {
	topic       string
	in          string
	provider    string
	figures     string
	metricsAddr string
	batchSize   int
	delay       time.Duration
	cacheTTL    time.Duration

	requireTopics     string
	minAppearances    int
	maxAppearances    int
	noCelebrityFilter bool
}

func run(ctx context.Context, logger *slog.Logger, cfg config) error {
	text, err := readInput(cfg.in)
	if err != nil {
		return err
	}
	candidates, skipped, err := llmjson.ParseCandidates(text)
	if err != nil {
		return fmt.Errorf("parse candidates: %w", err)
	}
	for _, e := range skipped {
		logger.Warn("skipping candidate", "error", e)
	}

	popts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithBatchSize(cfg.batchSize),
		pipeline.WithDelay(cfg.delay),
		pipeline.WithProgress(func(processed, total int) {
			logger.Debug("progress", "processed", processed, "total", total)
		}),
	}
	if cfg.minAppearances > 0 || cfg.maxAppearances > 0 {
		popts = append(popts, pipeline.WithAppearanceRange(cfg.minAppearances, cfg.maxAppearances))
	}
	if cfg.requireTopics != "" {
		popts = append(popts, pipeline.WithRequiredTopics(strings.Split(cfg.requireTopics, ",")...))
	}

	var classifier pipeline.Classifier
	if cfg.noCelebrityFilter {
		popts = append(popts, pipeline.WithoutCelebrityFilter())
	} else {
		c, err := newClassifier(cfg, logger)
		if err != nil {
			return err
		}
		classifier = c
	}

	reg := prometheus.NewRegistry()
	if cfg.metricsAddr != "" {
		serveMetrics(ctx, logger, cfg.metricsAddr, reg)
	}
	popts = append(popts, pipeline.WithMetrics(pipeline.NewMetrics(reg)))

	report, runErr := pipeline.New(classifier, score.New(), popts...).Run(ctx, candidates, cfg.topic)
	if report != nil {
		if err := outputJSON(report); err != nil {
			return fmt.Errorf("output: %w", err)
		}
		fmt.Fprintln(os.Stderr, report.Summary())
	}
	return runErr
}

func newClassifier(cfg config, logger *slog.Logger) (*celebrity.Classifier, error) {
	web, err := newWebSearcher(cfg.provider, logger)
	if err != nil {
		return nil, err
	}
	web = search.Guard(search.Cached(web, cache.NewMemo[*search.Response](cfg.cacheTTL, cache.WithLogger(logger))),
		search.WithBreakerLogger(logger))
	ref := search.GuardReference(
		search.CachedReference(search.NewWikipedia(search.WithLogger(logger)), cache.NewMemo[*search.Article](cfg.cacheTTL, cache.WithLogger(logger))),
		search.WithBreakerLogger(logger))

	opts := []celebrity.Option{
		celebrity.WithLogger(logger),
		celebrity.WithLimiter(cache.NewLimiter(cache.DefaultLimits())),
	}
	if cfg.figures != "" {
		figs, err := loadFigures(cfg.figures)
		if err != nil {
			return nil, err
		}
		opts = append(opts, celebrity.WithFigures(figs))
	}
	classifier, err := celebrity.New(ref, web, opts...)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	return classifier, nil
}

func newWebSearcher(provider string, logger *slog.Logger) (search.Searcher, error) {
	switch provider {
	case "google":
		key, cx := os.Getenv("GOOGLE_API_KEY"), os.Getenv("GOOGLE_CSE_ID")
		if key == "" || cx == "" {
			logger.Warn("GOOGLE_API_KEY or GOOGLE_CSE_ID not set; celebrity web checks will fail")
		}
		return search.NewGoogle(key, cx, search.WithLogger(logger)), nil
	case "brave":
		key := search.LoadBraveAPIKey()
		if key == "" {
			logger.Warn("no Brave API key found; celebrity web checks will fail")
		}
		return search.NewBrave(key, search.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want google or brave)", provider)
	}
}

func readInput(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func loadFigures(path string) (*celebrity.Figures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open figures: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file
	figs, err := celebrity.LoadFigures(f)
	if err != nil {
		return nil, fmt.Errorf("load figures %s: %w", path, err)
	}
	return figs, nil
}

func serveMetrics(ctx context.Context, logger *slog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()
	context.AfterFunc(ctx, func() {
		srv.Close() //nolint:errcheck,gosec // shutting down
	})
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
