package ledger_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"moltcast/internal/ledger"
	"moltcast/internal/services"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	l, err := ledger.Load(filepath.Join(t.TempDir(), "covered-posts.json"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d entries", l.Len())
	}
}

func TestLoadWhitespaceFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covered-posts.json")
	if err := os.WriteFile(path, []byte("  \n\t"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := ledger.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty ledger, got %d entries", l.Len())
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"not json":     "{oops",
		"zero episode": `{"p1": 0}`,
		"negative":     `{"p1": -2}`,
		"fractional":   `{"p1": 1.5}`,
		"string value": `{"p1": "3"}`,
		"array":        `["p1"]`,
		"null value":   `{"p1": null}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ledger.Parse([]byte(input)); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []map[string]int{
		{},
		{"a": 1},
		{"post-1": 3, "post-2": 3, "zz": 12, "7f3a-uuid": 2147483647},
	}
	for _, in := range inputs {
		data, err := ledger.Encode(in)
		if err != nil {
			t.Fatalf("Encode returned error: %v", err)
		}
		out, err := ledger.Parse(data)
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if !reflect.DeepEqual(in, out) {
			t.Fatalf("round trip mismatch: %v != %v", in, out)
		}
	}
}

func TestMarkCoveredPersistsAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episodes", "covered-posts.json")
	l, err := ledger.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.MarkCovered(2, []string{"a", "b"}); err != nil {
		t.Fatalf("MarkCovered returned error: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := l.MarkCovered(2, []string{"a", "b"}); err != nil {
		t.Fatalf("MarkCovered returned error: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("confirming twice changed the ledger:\n%s\n%s", first, second)
	}

	reloaded, err := ledger.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(reloaded.Entries(), map[string]int{"a": 2, "b": 2}) {
		t.Fatalf("unexpected entries: %v", reloaded.Entries())
	}
}

func TestMarkCoveredLastWriterWins(t *testing.T) {
	l := ledger.New(filepath.Join(t.TempDir(), "covered-posts.json"))
	if err := l.MarkCovered(1, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if err := l.MarkCovered(4, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if owner, ok := l.Owner("a"); !ok || owner != 4 {
		t.Fatalf("expected owner 4, got %d %v", owner, ok)
	}
	if l.Len() != 1 {
		t.Fatalf("expected single entry, got %d", l.Len())
	}
}

func TestMarkCoveredRejectsInvalidEpisode(t *testing.T) {
	l := ledger.New(filepath.Join(t.TempDir(), "covered-posts.json"))
	if err := l.MarkCovered(0, []string{"a"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if l.Len() != 0 {
		t.Fatal("failed mutation must not change the ledger")
	}
}

func TestUnmarkIgnoresMissingIDs(t *testing.T) {
	l := ledger.New(filepath.Join(t.TempDir(), "covered-posts.json"))
	if err := l.MarkCovered(1, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	if err := l.Unmark([]string{"a", "missing"}); err != nil {
		t.Fatalf("Unmark returned error: %v", err)
	}
	if l.IsCovered("a") || !l.IsCovered("b") {
		t.Fatalf("unexpected entries after unmark: %v", l.Entries())
	}
}

func TestCoverageQueries(t *testing.T) {
	l := ledger.New(filepath.Join(t.TempDir(), "covered-posts.json"))
	if err := l.MarkCovered(3, []string{"a", "c"}); err != nil {
		t.Fatal(err)
	}
	if got := l.Covered([]string{"c", "b", "a"}); !reflect.DeepEqual(got, []string{"c", "a"}) {
		t.Fatalf("Covered = %v", got)
	}
	if l.AllCovered(nil) {
		t.Fatal("empty list must not be covered")
	}
	if l.AllCovered([]string{"a", "b"}) {
		t.Fatal("partial coverage reported as covered")
	}
	if !l.AllCovered([]string{"a", "c"}) {
		t.Fatal("full coverage not reported")
	}
	if !reflect.DeepEqual(l.IDs(), []string{"a", "c"}) {
		t.Fatalf("IDs = %v", l.IDs())
	}
}
