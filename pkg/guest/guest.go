// Package guest defines the candidate record shared by the matching, classification and scoring stages.
package guest

import (
	"strings"
	"time"
	"unicode"
)

// Appearance is a past podcast or media appearance.
type Appearance struct {
	Date     time.Time `json:"date,omitzero"`
	Platform string    `json:"platform,omitempty"`
	Title    string    `json:"title,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// SocialHandles holds the unvalidated social identifiers a source reported.
type SocialHandles struct {
	LinkedInURL   string `json:"linkedinUrl,omitempty"`
	TwitterHandle string `json:"twitterHandle,omitempty"`
}

// Metrics is best-effort audience data. Zero fields mean "not observed".
type Metrics struct {
	Followers       int64   `json:"followers,omitempty"`
	EngagementRate  float64 `json:"engagementRate,omitempty"` // fraction, 0.05 == 5%
	RecentPostCount int     `json:"recentPostCount,omitempty"`
}

// Candidate is a person under consideration as a podcast guest.
// Candidates are treated as immutable input: later stages produce decisions keyed by Key
// rather than modifying the record.
//
//nolint:govet // fieldalignment: intentional layout for readability
type Candidate struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Bio     string `json:"bio,omitempty"`

	Expertise []string      `json:"expertise,omitempty"`
	Social    SocialHandles `json:"socialHandles,omitzero"`
	Metrics   *Metrics      `json:"metrics,omitempty"`

	PastAppearances []Appearance `json:"pastAppearances,omitempty"`
	LastActive      time.Time    `json:"lastActive,omitzero"`

	// Sources lists the upstream sources ("linkedin", "twitter", "llm", ...) that produced the record.
	Sources []string `json:"sources,omitempty"`
}

// Key returns the identity used for caching and de-duplication:
// the name lowercased with every non-alphanumeric character removed.
func (c Candidate) Key() string {
	return NormalizeKey(c.Name)
}

// NormalizeKey lowercases s and strips all characters that are not letters or digits.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Clone returns a deep copy so callers can derive new records without aliasing c's slices.
func (c Candidate) Clone() Candidate {
	out := c
	out.Expertise = append([]string(nil), c.Expertise...)
	out.PastAppearances = append([]Appearance(nil), c.PastAppearances...)
	out.Sources = append([]string(nil), c.Sources...)
	if c.Metrics != nil {
		m := *c.Metrics
		out.Metrics = &m
	}
	return out
}
