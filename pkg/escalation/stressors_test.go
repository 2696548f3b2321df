package escalation

import "testing"

func TestDetectCollapsesDuplicateTags(t *testing.T) {
	lexicon := DefaultLexicon()
	texts := []string{
		"estresse no trabalho",
		"muito estressada hoje",
		"a pressão só aumenta",
	}

	tags := lexicon.Detect(texts)
	if len(tags) != 1 || tags[0] != "stress" {
		t.Fatalf("expected single stress tag, got %v", tags)
	}
}

func TestDetectIsCaseInsensitive(t *testing.T) {
	lexicon := DefaultLexicon()
	tags := lexicon.Detect([]string{"BRIGA com meu chefe"})
	if len(tags) != 1 || tags[0] != "conflict" {
		t.Fatalf("expected conflict tag, got %v", tags)
	}
}

func TestDetectReturnsSortedTags(t *testing.T) {
	lexicon := DefaultLexicon()
	tags := lexicon.Detect([]string{"solidão, luto e dívidas"})
	want := []string{"financial", "isolation", "loss"}
	if len(tags) != len(want) {
		t.Fatalf("expected %v, got %v", want, tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tags)
		}
	}
}

func TestDetectNoMatches(t *testing.T) {
	lexicon := DefaultLexicon()
	if tags := lexicon.Detect([]string{"um dia tranquilo no parque"}); len(tags) != 0 {
		t.Fatalf("expected no tags, got %v", tags)
	}
}

func TestLoadLexiconFallsBackToDefault(t *testing.T) {
	lexicon, err := LoadLexicon("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lexicon.Rules) == 0 {
		t.Fatal("expected default rules")
	}
}
