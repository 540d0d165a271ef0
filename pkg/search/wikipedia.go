package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/codeGROOVE-dev/guestscout/pkg/htmlutil"
)

const wikipediaEndpoint = "https://en.wikipedia.org/w/api.php"

// Wikipedia implements Reference using the MediaWiki search API.
type Wikipedia struct {
	cfg config
}

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title     string `json:"title"`
			Snippet   string `json:"snippet"`
			WordCount int    `json:"wordcount"`
		} `json:"search"`
	} `json:"query"`
}

// NewWikipedia creates an English Wikipedia client.
func NewWikipedia(opts ...Option) *Wikipedia {
	return &Wikipedia{cfg: newConfig(wikipediaEndpoint, opts)}
}

// Name returns the provider name used for rate limiting and logging.
func (*Wikipedia) Name() string { return "wikipedia" }

// Lookup returns the top search match for name, or nil when there is none.
func (w *Wikipedia) Lookup(ctx context.Context, name string) (*Article, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", name)
	params.Set("srlimit", "1")
	params.Set("srprop", "snippet|wordcount")
	params.Set("format", "json")

	w.cfg.logger.DebugContext(ctx, "wikipedia lookup", "name", name)
	data, err := get(ctx, w.cfg, w.Name(), params, nil)
	if err != nil {
		return nil, err
	}

	var wr wikipediaResponse
	if err := json.Unmarshal(data, &wr); err != nil {
		return nil, fmt.Errorf("decode wikipedia response: %w", err)
	}
	if len(wr.Query.Search) == 0 {
		return nil, nil //nolint:nilnil // no article is not an error
	}
	top := wr.Query.Search[0]
	return &Article{
		Title:     top.Title,
		Snippet:   htmlutil.Text(top.Snippet),
		WordCount: top.WordCount,
	}, nil
}
