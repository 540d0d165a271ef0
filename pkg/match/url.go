package match

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	linkedInPattern = regexp.MustCompile(`^https://(?:www\.)?linkedin\.com/(?:in|company)/[\w-]+/?$`)
	twitterPattern  = regexp.MustCompile(`^https://(?:www\.)?(?:twitter\.com|x\.com)/[\w-]+/?$`)
	handlePattern   = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
)

// platformDomains maps platform names to the hosts that serve them.
var platformDomains = map[string][]string{
	"linkedin":  {"linkedin.com"},
	"twitter":   {"twitter.com", "x.com"},
	"instagram": {"instagram.com"},
	"youtube":   {"youtube.com"},
	"tiktok":    {"tiktok.com"},
}

// normalizeURL reduces a URL to a comparable host+path form.
func normalizeURL(u string) string {
	u = strings.TrimSpace(u)
	u = strings.TrimSuffix(u, "/")
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	u = strings.ToLower(u)
	// x.com and twitter.com are the same platform
	if rest, ok := strings.CutPrefix(u, "x.com/"); ok {
		u = "twitter.com/" + rest
	}
	return u
}

// Platform returns the social platform a URL belongs to, or "" if unknown.
func Platform(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for platform, domains := range platformDomains {
		for _, d := range domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return platform
			}
		}
	}
	return ""
}

// IsLinkedInProfileURL reports whether u is a canonical https LinkedIn profile or company URL.
func IsLinkedInProfileURL(u string) bool {
	return linkedInPattern.MatchString(u)
}

// IsTwitterProfileURL reports whether u is a canonical https Twitter/X profile URL.
func IsTwitterProfileURL(u string) bool {
	return twitterPattern.MatchString(u)
}

// NormalizeLinkedInURL rewrites a LinkedIn URL to https://linkedin.com/<path> without
// query, fragment or surrounding slashes. Values that are not LinkedIn URLs become "".
func NormalizeLinkedInURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || Platform(raw) != "linkedin" {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	return "https://linkedin.com/" + path
}

// NormalizeTwitterHandle accepts "@user", "user" or a twitter.com / x.com profile URL
// and returns the bare handle. Invalid handles become "".
func NormalizeTwitterHandle(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "/") {
		n := normalizeURL(raw)
		rest, ok := strings.CutPrefix(n, "twitter.com/")
		if !ok {
			return ""
		}
		raw, _, _ = strings.Cut(rest, "/")
		raw, _, _ = strings.Cut(raw, "?")
	}
	raw = strings.TrimPrefix(raw, "@")
	if !handlePattern.MatchString(raw) {
		return ""
	}
	return raw
}
