// Package score rates how suitable a candidate is as a guest for a topic.
//
// Topic matching is not plain substring search. The topic is split on commas;
// a term of three characters or fewer only matches whole words, and both
// expertise tags and bios also match the related terms listed in related.go
// (for example "ai" also matches "machine learning").
package score

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
)

// SocialMetrics is the audience snapshot used for the engagement and reach sub-scores.
type SocialMetrics = guest.Metrics

// Weights are the multipliers applied to each sub-score to form the total.
type Weights struct {
	Relevance  float64
	Authority  float64
	Engagement float64
	Recency    float64
	Reach      float64
}

// DefaultWeights sum to one, so totals stay on a 0-100 scale.
var DefaultWeights = Weights{
	Relevance:  0.30,
	Authority:  0.25,
	Engagement: 0.20,
	Recency:    0.15,
	Reach:      0.10,
}

// Qualification floors.
const (
	MinTotal      = 65
	MinRelevance  = 15
	MinAuthority  = 10
	MinEngagement = 5

	MinLinkedInFollowers = 500
	MinTwitterFollowers  = 1000
)

// Flags attached to weak scores.
const (
	FlagLowRelevance  = "Low topic relevance"
	FlagLowAuthority  = "Limited expertise evidence"
	FlagLowEngagement = "Low engagement"
	FlagNoMetrics     = "No social metrics available"
	FlagLowFollowers  = "Low follower count"
)

// recentWindow is how recently a candidate must have been active to count as current.
const recentWindow = 90 * 24 * time.Hour

// Breakdown holds the sub-scores, each in [0, 100].
type Breakdown struct {
	Relevance  float64 `json:"relevance"`
	Authority  float64 `json:"authority"`
	Engagement float64 `json:"engagement"`
	Recency    float64 `json:"recency"`
	Reach      float64 `json:"reach"`
}

// Result is the score of one candidate for one topic.
type Result struct {
	Flags     []string  `json:"flags,omitempty"`
	Breakdown Breakdown `json:"breakdown"`
	Total     float64   `json:"total"`
}

// Qualified reports whether r clears the total floor and every per-dimension floor.
// A high total does not compensate for a critically weak dimension.
func Qualified(r Result) bool {
	return r.Total >= MinTotal &&
		r.Breakdown.Relevance >= MinRelevance &&
		r.Breakdown.Authority >= MinAuthority &&
		r.Breakdown.Engagement >= MinEngagement
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithWeights overrides DefaultWeights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) { s.weights = w }
}

// Scorer computes guest quality scores. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	now     func() time.Time
	weights Weights
}

// New creates a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now, weights: DefaultWeights}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score rates c for topic, a comma-separated list of terms. When metrics is
// nil the candidate's own metrics are used; without any metrics, engagement
// and reach are zero. The candidate is not modified.
func (s *Scorer) Score(c guest.Candidate, topic string, metrics *SocialMetrics) Result {
	if metrics == nil {
		metrics = c.Metrics
	}

	b := Breakdown{
		Relevance: relevance(c, topicTerms(topic)),
		Authority: authority(c),
		Recency:   s.recency(c),
	}
	if metrics != nil {
		b.Engagement = engagement(metrics.EngagementRate)
		b.Reach = reach(metrics.Followers)
	}

	var flags []string
	if b.Relevance < MinRelevance {
		flags = append(flags, FlagLowRelevance)
	}
	if b.Authority < MinAuthority {
		flags = append(flags, FlagLowAuthority)
	}
	switch {
	case metrics == nil:
		flags = append(flags, FlagNoMetrics)
	case b.Engagement < MinEngagement:
		flags = append(flags, FlagLowEngagement)
	}
	if metrics != nil && metrics.Followers < followerFloor(c.Social) {
		flags = append(flags, FlagLowFollowers)
	}

	w := s.weights
	total := b.Relevance*w.Relevance +
		b.Authority*w.Authority +
		b.Engagement*w.Engagement +
		b.Recency*w.Recency +
		b.Reach*w.Reach

	return Result{Total: total, Breakdown: b, Flags: flags}
}

// followerFloor is Twitter's when that is the only known platform, else LinkedIn's.
func followerFloor(h guest.SocialHandles) int64 {
	if h.TwitterHandle != "" && h.LinkedInURL == "" {
		return MinTwitterFollowers
	}
	return MinLinkedInFollowers
}

func topicTerms(topic string) []string {
	var terms []string
	for t := range strings.SplitSeq(strings.ToLower(topic), ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// mentions reports whether lowercased text contains term. Terms of three
// characters or fewer must appear as a whole word so that "ai" does not match "email".
func mentions(text, term string) bool {
	if utf8.RuneCountInString(term) > 3 || strings.ContainsFunc(term, unicode.IsSpace) {
		return strings.Contains(text, term)
	}
	for w := range strings.FieldsFuncSeq(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		if w == term {
			return true
		}
	}
	return false
}

func relevance(c guest.Candidate, terms []string) float64 {
	tagPoints := 0
	for _, tag := range c.Expertise {
		tag = strings.ToLower(tag)
		for _, t := range terms {
			if mentions(tag, t) || mentionsAny(tag, relatedTerms[t]) {
				tagPoints += 20
				break
			}
		}
	}

	title, company, bio := strings.ToLower(c.Title), strings.ToLower(c.Company), strings.ToLower(c.Bio)
	rolePoints, bioPoints := 0, 0
	for _, t := range terms {
		if mentions(title, t) {
			rolePoints += 15
		}
		if mentions(company, t) {
			rolePoints += 15
		}
		if mentions(bio, t) {
			bioPoints += 10
		}
		for _, rt := range relatedTerms[t] {
			if mentions(bio, rt) {
				bioPoints += 5
			}
		}
	}

	return float64(min(100, min(40, tagPoints)+min(30, rolePoints)+min(30, bioPoints)))
}

func mentionsAny(text string, terms []string) bool {
	for _, t := range terms {
		if mentions(text, t) {
			return true
		}
	}
	return false
}

var (
	leadershipPattern  = regexp.MustCompile(`(?i)CEO|Founder|Director|Head|Chief|Partner`)
	yearsPattern       = regexp.MustCompile(`(?i)(\d+)\+?\s*years?`)
	publishedPattern   = regexp.MustCompile(`(?i)author|speaker|published|keynote`)
	recognitionPattern = regexp.MustCompile(`(?i)award|featured|recognized|expert`)
)

func authority(c guest.Candidate) float64 {
	points := 0
	if leadershipPattern.MatchString(c.Title) {
		points += 30
	}
	if m := yearsPattern.FindStringSubmatch(c.Bio); m != nil {
		if years, err := strconv.Atoi(m[1]); err == nil {
			points += min(30, min(years, 15)*2)
		}
	}
	if publishedPattern.MatchString(c.Bio) {
		points += 20
	}
	if recognitionPattern.MatchString(c.Bio) {
		points += 20
	}
	return float64(min(100, points))
}

// engagement maps an engagement rate (0.05 = 5%) onto 0-100.
func engagement(rate float64) float64 {
	var v float64
	switch {
	case rate >= 0.05:
		v = 100
	case rate >= 0.02:
		v = 60 + (rate-0.02)/0.03*40
	default:
		v = max(0, rate) / 0.02 * 60
	}
	return math.Round(v)
}

// reach maps a follower count onto 0-100 in four linear segments.
func reach(followers int64) float64 {
	f := float64(max(0, followers))
	var v float64
	switch {
	case f <= 500:
		v = f / 500 * 20
	case f <= 5000:
		v = 20 + (f-500)/4500*30
	case f <= 50000:
		v = 50 + (f-5000)/45000*30
	default:
		v = 80 + min(20, (f-50000)/950000*20)
	}
	return math.Round(v)
}

func (s *Scorer) recency(c guest.Candidate) float64 {
	points := 0
	if !c.LastActive.IsZero() && c.LastActive.After(s.now().Add(-recentWindow)) {
		points += 50
	}
	points += min(50, len(c.PastAppearances)*10)
	return float64(points)
}
