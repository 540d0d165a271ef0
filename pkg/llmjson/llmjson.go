// Package llmjson pulls candidate lists out of free-form language model completions.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/codeGROOVE-dev/guestscout/pkg/guest"
)

// ErrNoArray is returned when a completion contains no JSON array.
var ErrNoArray = errors.New("no JSON array found")

// SourceLLM is appended to the Sources of every parsed candidate.
const SourceLLM = "llm"

const candidateSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "pattern": "\\S"},
    "title": {"type": "string"},
    "company": {"type": "string"},
    "bio": {"type": "string"},
    "expertise": {"type": "array", "items": {"type": "string"}},
    "socialHandles": {
      "type": "object",
      "properties": {
        "linkedinUrl": {"type": "string"},
        "twitterHandle": {"type": "string"}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "followers": {"type": "integer", "minimum": 0},
        "engagementRate": {"type": "number", "minimum": 0},
        "recentPostCount": {"type": "integer", "minimum": 0}
      }
    },
    "pastAppearances": {"type": "array", "items": {"type": "object"}},
    "lastActive": {"type": "string", "format": "date-time"}
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(candidateSchema))
})

// ElementError describes an array element that was skipped.
type ElementError struct {
	Problems []string
	Index    int
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("element %d: %s", e.Index, strings.Join(e.Problems, "; "))
}

// ExtractArray returns the JSON array in text. A completion that is a JSON
// array as a whole is returned trimmed; otherwise the first balanced [...]
// that is valid JSON is returned. Brackets inside JSON strings are ignored.
func ExtractArray(text string) (string, error) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "[") && json.Valid([]byte(t)) {
		return t, nil
	}
	for i := range len(t) {
		if t[i] != '[' {
			continue
		}
		end := closing(t, i)
		if end < 0 {
			continue
		}
		if s := t[i : end+1]; json.Valid([]byte(s)) {
			return s, nil
		}
	}
	return "", ErrNoArray
}

// closing returns the index of the bracket matching the one at start, or -1.
func closing(s string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			default:
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		default:
		}
	}
	return -1
}

// ParseCandidates extracts the candidate array from a completion. Each element
// is validated on its own; elements that fail validation are skipped and
// reported in the returned slice of *ElementError. The error is non-nil only
// when no array could be found or decoded.
func ParseCandidates(text string) ([]guest.Candidate, []error, error) {
	raw, err := ExtractArray(text)
	if err != nil {
		return nil, nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return nil, nil, fmt.Errorf("decode array: %w", err)
	}
	schema, err := loadSchema()
	if err != nil {
		return nil, nil, fmt.Errorf("load candidate schema: %w", err)
	}

	candidates := make([]guest.Candidate, 0, len(elems))
	var skipped []error
	for i, elem := range elems {
		c, problems := decode(schema, elem)
		if len(problems) > 0 {
			skipped = append(skipped, &ElementError{Index: i, Problems: problems})
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, skipped, nil
}

func decode(schema *gojsonschema.Schema, elem json.RawMessage) (guest.Candidate, []string) {
	var c guest.Candidate
	result, err := schema.Validate(gojsonschema.NewBytesLoader(elem))
	if err != nil {
		return c, []string{err.Error()}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return c, problems
	}
	if err := json.Unmarshal(elem, &c); err != nil {
		return c, []string{err.Error()}
	}
	c.Name = strings.TrimSpace(c.Name)
	if !slices.Contains(c.Sources, SourceLLM) {
		c.Sources = append(c.Sources, SourceLLM)
	}
	return c, nil
}
