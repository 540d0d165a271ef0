package pipeline

import (
	"errors"

	"github.com/codeGROOVE-dev/guestscout/pkg/cache"
)

// Stage names a step of a candidate evaluation.
type Stage string

// Evaluation stages.
const (
	StageClassify Stage = "classify"
	StageScore    Stage = "score"
)

// Action is what to do with a candidate whose stage failed.
type Action int

// Failure actions.
const (
	// Include keeps the candidate. After a classify failure it is still scored;
	// after a score failure it is kept unscored.
	Include Action = iota
	// Exclude drops the candidate with Decision.Reason.
	Exclude
	// Retry runs the stage again, up to maxAttempts in total.
	Retry
)

func (a Action) String() string {
	switch a {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	case Retry:
		return "retry"
	default:
		return "unknown"
	}
}

// maxAttempts bounds how often a stage runs when the policy keeps asking for retries.
const maxAttempts = 3

// ReasonProcessingError is the exclusion reason for candidates whose evaluation crashed.
const ReasonProcessingError = "processing error"

// Failure describes one failed stage attempt.
type Failure struct {
	Err     error
	Stage   Stage
	Attempt int
	// Panic is set when the stage panicked rather than returning an error.
	Panic bool
}

// Decision is a policy's answer to a Failure.
type Decision struct {
	Reason string
	Action Action
}

// Policy decides what happens to a candidate after a stage failure.
// It is consulted for every failure, so all recovery rules live in one place.
type Policy func(Failure) Decision

// DefaultPolicy gives candidates the benefit of the doubt on infrastructure
// failures: a rate-limited classification is retried once, any other
// classify or score error keeps the candidate, and a crash excludes it.
// celebrity.Classifier reports a *cache.RateLimitError when the limiter
// refused every one of its checks.
func DefaultPolicy(f Failure) Decision {
	if f.Panic {
		return Decision{Action: Exclude, Reason: ReasonProcessingError}
	}
	var rle *cache.RateLimitError
	if f.Stage == StageClassify && f.Attempt == 1 && errors.As(f.Err, &rle) {
		return Decision{Action: Retry}
	}
	return Decision{Action: Include}
}
