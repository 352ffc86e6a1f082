package lexical

import (
	"testing"

	"memberqa/internal/textnorm"
)

func buildIndex(texts ...string) *Index {
	docs := make([][]string, len(texts))
	for i, text := range texts {
		docs[i] = textnorm.Tokenize(text)
	}
	return Build(docs)
}

func TestQueryRanksRareTermsFirst(t *testing.T) {
	ix := buildIndex(
		"please book a table for dinner",
		"please book a flight to paris",
		"please send the invoice",
		"please call me back",
	)

	got := ix.Query(textnorm.Tokenize("flight paris"), 10)
	if len(got) != 1 {
		t.Fatalf("Query() returned %d candidates, want 1", len(got))
	}
	if got[0].Doc != 1 {
		t.Errorf("Query() top doc = %d, want 1", got[0].Doc)
	}
	if got[0].Rank != 1 {
		t.Errorf("Query() top rank = %d, want 1", got[0].Rank)
	}
}

func TestQuerySaturatesTermFrequency(t *testing.T) {
	ix := buildIndex(
		"car",
		"car car car car car car car car",
		"boat",
	)

	single := ix.Score([]string{"car"}, 0)
	repeated := ix.Score([]string{"car"}, 1)
	if repeated <= 0 || single <= 0 {
		t.Fatalf("expected positive scores, got %f and %f", single, repeated)
	}
	if repeated > single*(K1+1) {
		t.Errorf("repeated-term score %f exceeds saturation bound %f", repeated, single*(K1+1))
	}
}

func TestQueryLengthNormalization(t *testing.T) {
	ix := buildIndex(
		"tickets",
		"tickets for the show and a long list of other unrelated words here",
		"nothing relevant",
	)

	got := ix.Query([]string{"tickets"}, 10)
	if len(got) != 2 {
		t.Fatalf("Query() returned %d candidates, want 2", len(got))
	}
	if got[0].Doc != 0 {
		t.Errorf("shorter document should rank first, got doc %d", got[0].Doc)
	}
}

func TestQueryDeterministicTies(t *testing.T) {
	ix := buildIndex("seats", "seats", "other")

	first := ix.Query([]string{"seats"}, 10)
	second := ix.Query([]string{"seats"}, 10)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 candidates, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Query() not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].Doc != 0 || first[1].Doc != 1 {
		t.Errorf("ties should follow corpus order, got %d then %d", first[0].Doc, first[1].Doc)
	}
}

func TestQueryEmpty(t *testing.T) {
	empty := Build(nil)
	if got := empty.Query([]string{"anything"}, 5); len(got) != 0 {
		t.Errorf("Query() on empty index = %v, want empty", got)
	}

	ix := buildIndex("hello world")
	if got := ix.Query(nil, 5); got != nil {
		t.Errorf("Query(nil) = %v, want nil", got)
	}
	if got := ix.Query([]string{"hello"}, 0); got != nil {
		t.Errorf("Query(topN=0) = %v, want nil", got)
	}
}

func TestCommonTermKeepsPositiveIDF(t *testing.T) {
	ix := buildIndex("please book", "please call", "please send")

	if score := ix.Score([]string{"please"}, 0); score <= 0 {
		t.Errorf("term present in every document should keep a positive score, got %f", score)
	}
}
