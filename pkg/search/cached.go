package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/codeGROOVE-dev/guestscout/pkg/cache"
)

type cachedSearcher struct {
	next Searcher
	memo *cache.Memo[*Response]
}

// Cached memoizes the responses of s in m, keyed by provider and query.
// Responses are shared between callers and must not be modified.
func Cached(s Searcher, m *cache.Memo[*Response]) Searcher {
	return &cachedSearcher{next: s, memo: m}
}

func (c *cachedSearcher) Name() string { return c.next.Name() }

func (c *cachedSearcher) Search(ctx context.Context, q Query) (*Response, error) {
	key := strings.Join([]string{
		c.next.Name(), q.Text, q.DateRestrict, strings.Join(q.Sites, ","), strconv.Itoa(q.NumResults),
	}, "|")
	return c.memo.Get(ctx, key, func(ctx context.Context) (*Response, error) {
		return c.next.Search(ctx, q)
	})
}

type cachedReference struct {
	next Reference
	memo *cache.Memo[*Article]
}

// CachedReference memoizes the lookups of r in m, keyed by provider and name.
func CachedReference(r Reference, m *cache.Memo[*Article]) Reference {
	return &cachedReference{next: r, memo: m}
}

func (c *cachedReference) Name() string { return c.next.Name() }

func (c *cachedReference) Lookup(ctx context.Context, name string) (*Article, error) {
	key := c.next.Name() + "|" + strings.ToLower(strings.TrimSpace(name))
	return c.memo.Get(ctx, key, func(ctx context.Context) (*Article, error) {
		return c.next.Lookup(ctx, name)
	})
}
