package celebrity

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed figures.json
var defaultFigures []byte

const defaultFigureReason = "Well-known public figure"

// Figure is an entry in the known-figures table.
type Figure struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Figures is a read-only table of globally recognizable people.
type Figures struct {
	byName map[string]Figure
}

// LoadFigures reads a JSON array of figures. Entries without a name are rejected.
func LoadFigures(r io.Reader) (*Figures, error) {
	var list []Figure
	dec := json.NewDecoder(r)
	if err := dec.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode figures: %w", err)
	}
	f := &Figures{byName: make(map[string]Figure, len(list))}
	for i, fig := range list {
		key := figureKey(fig.Name)
		if key == "" {
			return nil, fmt.Errorf("figure %d has no name", i)
		}
		if fig.Reason == "" {
			fig.Reason = defaultFigureReason
		}
		f.byName[key] = fig
	}
	return f, nil
}

var loadDefaultFigures = sync.OnceValues(func() (*Figures, error) {
	return LoadFigures(bytes.NewReader(defaultFigures))
})

// DefaultFigures returns the built-in known-figures table.
func DefaultFigures() (*Figures, error) {
	return loadDefaultFigures()
}

// Lookup finds name in the table, ignoring case and extra whitespace.
func (f *Figures) Lookup(name string) (Figure, bool) {
	if f == nil {
		return Figure{}, false
	}
	fig, ok := f.byName[figureKey(name)]
	return fig, ok
}

// Len returns the number of figures in the table.
func (f *Figures) Len() int {
	if f == nil {
		return 0
	}
	return len(f.byName)
}

func figureKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
