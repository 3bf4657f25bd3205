package relevance_test

import (
	"errors"
	"reflect"
	"testing"

	"moltcast/internal/moltbook"
	"moltcast/internal/relevance"
	"moltcast/internal/services"
)

func TestCountMatchesCaseInsensitive(t *testing.T) {
	post := moltbook.Post{Title: "API Key LEAK", Content: "the api key was leaked"}
	got := relevance.CountMatches(post, []string{"api", "key", "leak"})
	if got != 6 {
		t.Fatalf("CountMatches = %d, want 6", got)
	}
}

func TestCountMatchesNonOverlapping(t *testing.T) {
	post := moltbook.Post{Title: "aaaa"}
	if got := relevance.CountMatches(post, []string{"aa"}); got != 2 {
		t.Fatalf("CountMatches = %d, want 2", got)
	}
}

func TestCountMatchesJoinsTitleAndContent(t *testing.T) {
	post := moltbook.Post{Title: "bot", Content: "net"}
	if got := relevance.CountMatches(post, []string{"botnet"}); got != 0 {
		t.Fatalf("title and content must be separated, got %d", got)
	}
	if got := relevance.CountMatches(post, []string{"bot net"}); got != 1 {
		t.Fatalf("expected phrase spanning the separator to match once, got %d", got)
	}
}

func TestCountMatchesIgnoresEmptyKeywords(t *testing.T) {
	post := moltbook.Post{Title: "anything"}
	if got := relevance.CountMatches(post, []string{""}); got != 0 {
		t.Fatalf("empty keyword matched %d times", got)
	}
	if got := relevance.CountMatches(post, nil); got != 0 {
		t.Fatalf("nil keywords matched %d times", got)
	}
}

func TestScoreExample(t *testing.T) {
	post := moltbook.Post{
		Title:   "Security breach exposed",
		Content: "A hack on the database",
		Upvotes: 100,
	}
	keywords := []string{"security", "breach", "hack", "database", "expose"}
	if hits := relevance.CountMatches(post, keywords); hits != 5 {
		t.Fatalf("hits = %d, want 5", hits)
	}
	if score := relevance.Score(post, keywords); score != 100 {
		t.Fatalf("score = %v, want 100", score)
	}

	small := moltbook.Post{Title: "security breach", Upvotes: 100}
	if score := relevance.Score(small, []string{"security", "breach"}); score != 70 {
		t.Fatalf("score = %v, want 70", score)
	}
}

func TestLookupBuiltInThemes(t *testing.T) {
	security, err := relevance.Lookup("security")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(security.Keywords) != 13 || security.Keywords[0] != "security" {
		t.Fatalf("unexpected security keywords: %v", security.Keywords)
	}
	identity, err := relevance.Lookup("Identity")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(identity.Keywords) != 14 {
		t.Fatalf("unexpected identity keywords: %v", identity.Keywords)
	}
	if !reflect.DeepEqual(relevance.Names(), []string{"identity", "security"}) {
		t.Fatalf("unexpected names: %v", relevance.Names())
	}
}

func TestLookupUnknownTheme(t *testing.T) {
	_, err := relevance.Lookup("weather")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	theme, err := relevance.Lookup("security")
	if err != nil {
		t.Fatal(err)
	}
	theme.Keywords[0] = "mutated"
	again, _ := relevance.Lookup("security")
	if again.Keywords[0] != "security" {
		t.Fatal("registry was mutated through a returned theme")
	}
}
