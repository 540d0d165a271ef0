// Package match decides whether candidate fragments from different sources describe the same person,
// and folds matching fragments into a single record.
package match

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
)

// similarityTolerance is the fraction of the longer name's length allowed as edit distance.
const similarityTolerance = 0.3

// NormalizeName lowercases s and strips every non-alphanumeric character.
func NormalizeName(s string) string {
	return guest.NormalizeKey(s)
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// NamesSimilar reports whether the normalized forms of a and b are within
// floor(0.3 * longer length) edits of each other. Short names therefore need a
// near-exact match while long names tolerate more variation.
func NamesSimilar(a, b string) bool {
	a, b = NormalizeName(a), NormalizeName(b)
	maxDistance := int(float64(max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))) * similarityTolerance)
	return Levenshtein(a, b) <= maxDistance
}

// splitName returns the normalized first-name part (all words but the last) and last name.
func splitName(name string) (first, last string) {
	words := strings.Fields(name)
	if len(words) == 0 {
		return "", ""
	}
	last = NormalizeName(words[len(words)-1])
	first = NormalizeName(strings.Join(words[:len(words)-1], " "))
	return first, last
}

// ProfilesMatch reports whether a and b likely describe the same person:
// identical normalized names, or equal last names with similar first names,
// or the same non-empty normalized company.
func ProfilesMatch(a, b guest.Candidate) bool {
	na, nb := NormalizeName(a.Name), NormalizeName(b.Name)
	if na != "" && na == nb {
		return true
	}

	firstA, lastA := splitName(a.Name)
	firstB, lastB := splitName(b.Name)
	if lastA != "" && lastA == lastB && NamesSimilar(firstA, firstB) {
		return true
	}

	ca, cb := NormalizeName(a.Company), NormalizeName(b.Company)
	return ca != "" && ca == cb
}

// richer returns the longer of two strings, preferring a on ties.
func richer(a, b string) string {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b
	}
	return a
}

// firstNonEmpty returns a unless it is blank.
func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// unionFold appends the values of b missing from a, comparing case-insensitively.
func unionFold(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range slices.Concat(a, b) {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func mergeAppearances(a, b []guest.Appearance) []guest.Appearance {
	out := make([]guest.Appearance, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, ap := range slices.Concat(a, b) {
		k := normalizeURL(ap.URL)
		if k == "" {
			k = "title:" + strings.ToLower(strings.TrimSpace(ap.Title))
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, ap)
	}
	return out
}

func mergeMetrics(a, b *guest.Metrics) *guest.Metrics {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		m := *b
		return &m
	case b == nil:
		m := *a
		return &m
	}
	// Different sources see different slices of the same audience, so the
	// best-known reach is the maximum, never a sum or average.
	return &guest.Metrics{
		Followers:       max(a.Followers, b.Followers),
		EngagementRate:  max(a.EngagementRate, b.EngagementRate),
		RecentPostCount: max(a.RecentPostCount, b.RecentPostCount),
	}
}

// Merge combines two fragments of the same person into a new Candidate.
// Neither input is modified.
func Merge(a, b guest.Candidate) guest.Candidate {
	out := guest.Candidate{
		Name:            richer(a.Name, b.Name),
		Title:           richer(a.Title, b.Title),
		Company:         richer(a.Company, b.Company),
		Bio:             richer(a.Bio, b.Bio),
		Expertise:       unionFold(a.Expertise, b.Expertise),
		Metrics:         mergeMetrics(a.Metrics, b.Metrics),
		PastAppearances: mergeAppearances(a.PastAppearances, b.PastAppearances),
		Sources:         unionFold(a.Sources, b.Sources),
		LastActive:      a.LastActive,
	}
	if b.LastActive.After(out.LastActive) {
		out.LastActive = b.LastActive
	}
	out.Social.LinkedInURL = firstNonEmpty(NormalizeLinkedInURL(a.Social.LinkedInURL), NormalizeLinkedInURL(b.Social.LinkedInURL))
	out.Social.TwitterHandle = firstNonEmpty(NormalizeTwitterHandle(a.Social.TwitterHandle), NormalizeTwitterHandle(b.Social.TwitterHandle))
	return out
}

// Dedupe folds every candidate into the earliest candidate it matches, so that
// a person found through several sources is evaluated once. Output keeps
// first-appearance order.
func Dedupe(candidates []guest.Candidate) []guest.Candidate {
	out := make([]guest.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Name) == "" && strings.TrimSpace(c.Company) == "" {
			out = append(out, c.Clone())
			continue
		}
		merged := false
		for i := range out {
			if ProfilesMatch(out[i], c) {
				out[i] = Merge(out[i], c)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, c.Clone())
		}
	}
	return out
}
