package celebrity

import (
	"strings"
	"testing"
)

func TestDefaultFigures(t *testing.T) {
	f, err := DefaultFigures()
	if err != nil {
		t.Fatalf("DefaultFigures: %v", err)
	}
	if f.Len() == 0 {
		t.Fatal("built-in table is empty")
	}
	for _, name := range []string{"Elon Musk", "  elon   MUSK ", "Satya Nadella", "Beyoncé"} {
		fig, ok := f.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) missed", name)
			continue
		}
		if fig.Reason == "" || fig.Category == "" {
			t.Errorf("Lookup(%q) = %+v, want reason and category", name, fig)
		}
	}
	if _, ok := f.Lookup("Jane Doe"); ok {
		t.Error("Lookup(Jane Doe) hit")
	}
}

func TestLoadFigures(t *testing.T) {
	f, err := LoadFigures(strings.NewReader(`[{"name": "Ada Lovelace"}]`))
	if err != nil {
		t.Fatalf("LoadFigures: %v", err)
	}
	fig, ok := f.Lookup("ada lovelace")
	if !ok || fig.Reason != defaultFigureReason {
		t.Errorf("Lookup = %+v, %v; want default reason", fig, ok)
	}

	if _, err := LoadFigures(strings.NewReader(`[{"name": "  "}]`)); err == nil {
		t.Error("LoadFigures accepted a blank name")
	}
	if _, err := LoadFigures(strings.NewReader(`{`)); err == nil {
		t.Error("LoadFigures accepted malformed JSON")
	}

	var nilTable *Figures
	if _, ok := nilTable.Lookup("anyone"); ok {
		t.Error("nil table matched")
	}
}
