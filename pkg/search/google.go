package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const googleEndpoint = "https://www.googleapis.com/customsearch/v1"

// Google implements Searcher using the Custom Search JSON API.
// The free tier allows 100 queries per day.
type Google struct {
	apiKey   string
	engineID string
	cfg      config
}

type googleResponse struct {
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// NewGoogle creates a Custom Search client for the given API key and engine (cx) id.
func NewGoogle(apiKey, engineID string, opts ...Option) *Google {
	return &Google{apiKey: apiKey, engineID: engineID, cfg: newConfig(googleEndpoint, opts)}
}

// Name returns the provider name used for rate limiting and logging.
func (*Google) Name() string { return "google" }

// Search performs a web search.
func (g *Google) Search(ctx context.Context, q Query) (*Response, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.engineID)
	params.Set("q", queryText(q))
	if n := clampResults(q.NumResults); n > 0 {
		params.Set("num", strconv.Itoa(n))
	}
	if q.DateRestrict != "" {
		params.Set("dateRestrict", q.DateRestrict)
	}

	g.cfg.logger.DebugContext(ctx, "google search", "query", params.Get("q"))
	data, err := get(ctx, g.cfg, g.Name(), params, nil)
	if err != nil {
		return nil, err
	}

	var gr googleResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("decode google response: %w", err)
	}
	resp := &Response{Results: make([]Result, 0, len(gr.Items))}
	if s := gr.SearchInformation.TotalResults; s != "" {
		total, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse totalResults %q: %w", s, err)
		}
		resp.TotalResults = total
	}
	for _, it := range gr.Items {
		resp.Results = append(resp.Results, Result{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
	}
	return resp, nil
}

// queryText folds site restrictions into the query string.
func queryText(q Query) string {
	if len(q.Sites) == 0 {
		return q.Text
	}
	sites := make([]string, len(q.Sites))
	for i, s := range q.Sites {
		sites[i] = "site:" + s
	}
	return q.Text + " (" + strings.Join(sites, " OR ") + ")"
}

// clampResults limits n to the 1..10 range both providers accept; 0 means provider default.
func clampResults(n int) int {
	if n <= 0 {
		return 0
	}
	return min(n, 10)
}
