package pipeline

import (
	"strings"

	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
)

// Exclusion reasons for candidates dropped before classification.
const (
	ReasonAppearances = "appearance count out of range"
	ReasonTopics      = "no required topic"
)

type appearanceRange struct {
	min, max int
}

func (r *appearanceRange) contains(n int) bool {
	return n >= r.min && (r.max <= 0 || n <= r.max)
}

// prefilter returns the reason c is dropped before classification, or "".
func (o *Orchestrator) prefilter(c guest.Candidate) string {
	if o.appearances != nil && !o.appearances.contains(len(c.PastAppearances)) {
		return ReasonAppearances
	}
	if len(o.requiredTopics) > 0 && !hasTopic(c.Expertise, o.requiredTopics) {
		return ReasonTopics
	}
	return ""
}

func hasTopic(tags, topics []string) bool {
	for _, topic := range topics {
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), topic) {
				return true
			}
		}
	}
	return false
}
