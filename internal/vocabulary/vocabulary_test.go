package vocabulary

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildAssignsSortedIDs(t *testing.T) {
	v := Build([][]string{{"system", "algorithm", "system"}, {"computer"}})
	want := map[string]int{"algorithm": 1, "computer": 2, "system": 3}
	for term, id := range want {
		got, ok := v.ID(term)
		if !ok || got != id {
			t.Errorf("ID(%q) = %d,%v want %d", term, got, ok, id)
		}
		if v.Term(id) != term {
			t.Errorf("Term(%d) = %q want %q", id, v.Term(id), term)
		}
	}
	if v.Size() != 3 {
		t.Errorf("Size = %d", v.Size())
	}
	if _, ok := v.ID("missing"); ok {
		t.Error("unexpected ID for missing term")
	}
	if v.Term(0) != "" || v.Term(4) != "" {
		t.Error("out-of-range Term should be empty")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	docs := [][]string{{"zeta", "alpha", "mu"}, {"beta", "alpha"}, {}, {"Mu", "mu"}}
	a := Build(docs)
	for i := 0; i < 20; i++ {
		b := Build(docs)
		if diff := cmp.Diff(a.Terms(), b.Terms()); diff != "" {
			t.Fatalf("rebuild %d differs (-first +again):\n%s", i, diff)
		}
	}
	// byte order: uppercase sorts before lowercase
	if a.Term(1) != "Mu" {
		t.Errorf("Term(1) = %q, want Mu", a.Term(1))
	}
}

func TestBuildEmpty(t *testing.T) {
	v := Build(nil)
	if v.Size() != 0 {
		t.Errorf("Size = %d, want 0", v.Size())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulaire.txt")
	v := Build([][]string{{"b", "a", "c"}})
	if _, err := v.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(v.Terms(), loaded.Terms()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTermsRejectsDuplicates(t *testing.T) {
	if _, err := FromTerms([]string{"a", "b", "a"}); err == nil {
		t.Error("expected duplicate error")
	}
}
