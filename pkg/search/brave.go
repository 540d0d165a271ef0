package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const braveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// braveFreshness maps Google-style date restrictions onto Brave's freshness values.
var braveFreshness = map[string]string{
	"d1": "pd",
	"w1": "pw",
	"m1": "pm",
	"y1": "py",
}

// Brave implements Searcher using the Brave Search API.
// Free tier: 2,000 queries/month, 1 query/second.
// Get an API key at https://api.search.brave.com/
type Brave struct {
	apiKey string
	cfg    config
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// NewBrave creates a Brave Search client. apiKey is the subscription token.
func NewBrave(apiKey string, opts ...Option) *Brave {
	return &Brave{apiKey: apiKey, cfg: newConfig(braveEndpoint, opts)}
}

// LoadBraveAPIKey loads the Brave API key from multiple sources (in priority order):
// 1. BRAVE_API_KEY environment variable
// 2. ~/.brave file (first line, trimmed)
//
// Returns empty string if no key is found.
func LoadBraveAPIKey() string {
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		return key
	}
	if home, err := os.UserHomeDir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(home, ".brave")); err == nil {
			line, _, _ := strings.Cut(string(data), "\n")
			if key := strings.TrimSpace(line); key != "" {
				return key
			}
		}
	}
	return ""
}

// Name returns the provider name used for rate limiting and logging.
func (*Brave) Name() string { return "brave" }

// Search performs a web search. Brave does not report a total result count.
func (b *Brave) Search(ctx context.Context, q Query) (*Response, error) {
	params := url.Values{}
	params.Set("q", queryText(q))
	if n := clampResults(q.NumResults); n > 0 {
		params.Set("count", strconv.Itoa(n))
	}
	if f, ok := braveFreshness[q.DateRestrict]; ok {
		params.Set("freshness", f)
	}

	header := http.Header{}
	header.Set("X-Subscription-Token", b.apiKey)

	b.cfg.logger.DebugContext(ctx, "brave search", "query", params.Get("q"))
	data, err := get(ctx, b.cfg, b.Name(), params, header)
	if err != nil {
		return nil, err
	}

	var br braveResponse
	if err := json.Unmarshal(data, &br); err != nil {
		return nil, fmt.Errorf("decode brave response: %w", err)
	}
	resp := &Response{Results: make([]Result, 0, len(br.Web.Results))}
	for _, r := range br.Web.Results {
		resp.Results = append(resp.Results, Result{Title: r.Title, Link: r.URL, Snippet: r.Description})
	}
	return resp, nil
}
