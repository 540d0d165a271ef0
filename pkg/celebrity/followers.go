package celebrity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var followerPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)*[kmb]?)\s*(?:followers|following|connections|subscribers)`)

// ParseCount converts a count such as "1.5M", "800K", "2B" or "12,345" to a number.
// Suffixes are case-insensitive.
func ParseCount(s string) (int64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'k', 'K':
		mult = 1e3
	case 'm', 'M':
		mult = 1e6
	case 'b', 'B':
		mult = 1e9
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	// "1.234.567" uses dots as thousands separators.
	if strings.Count(s, ".") > 1 {
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0, false
	}
	v := f*mult + 0.5
	if v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// FollowerCount extracts the first follower, connection or subscriber count from a search snippet.
func FollowerCount(snippet string) (int64, bool) {
	m := followerPattern.FindStringSubmatch(snippet)
	if m == nil {
		return 0, false
	}
	return ParseCount(m[1])
}
