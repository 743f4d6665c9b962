package slides

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	got := normalize(0, "  Intro  ", "Welcome to the talk.\r\nLet's begin.")
	want := "Intro. Welcome to the talk.\nLet's begin."
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}

func TestNormalizeEmptyFallsBackToSlideIndex(t *testing.T) {
	got := normalize(2, "", "")
	want := "Slide 2"
	if got != want {
		t.Errorf("normalize = %q, want %q", got, want)
	}
}

func TestTokensDropsStopwordsAndShortWords(t *testing.T) {
	toks := tokens("The Quick Brown Fox is an Animal")
	for _, w := range []string{"the", "is", "an", "it"} {
		if _, ok := toks[w]; ok {
			t.Errorf("expected stopword/short token %q to be dropped", w)
		}
	}
	for _, w := range []string{"quick", "brown", "fox", "animal"} {
		if _, ok := toks[w]; !ok {
			t.Errorf("expected token %q to be present, got %v", w, toks)
		}
	}
}

func TestSplitSentencesBulletsAndContinuations(t *testing.T) {
	normalized := "Agenda. - First we cover onboarding steps\n" +
		"continuing the same bullet point here\n" +
		"- Second we review the quarterly roadmap details"
	cfg := DefaultSentenceSplitConfig()

	got := splitSentences(normalized, cfg)
	if len(got) == 0 {
		t.Fatal("expected at least one sentence")
	}
	for _, s := range got {
		if len(s) < cfg.MinChars {
			t.Errorf("sentence %q shorter than MinChars %d", s, cfg.MinChars)
		}
	}
}

func TestSplitSentencesDedupesCaseInsensitively(t *testing.T) {
	normalized := "Topic. This is a long enough sentence to count. " +
		"THIS IS A LONG ENOUGH SENTENCE TO COUNT. Done."
	got := splitSentences(normalized, DefaultSentenceSplitConfig())
	if len(got) != 1 {
		t.Errorf("splitSentences = %v, want exactly one deduped sentence", got)
	}
}

func TestSplitSentencesCapsAtMaxPerSlide(t *testing.T) {
	cfg := SentenceSplitConfig{MinChars: 1, MinWords: 1, MaxPerSlide: 2}
	normalized := "Topic. Alpha sentence one here. Beta sentence two here. Gamma sentence three here."
	got := splitSentences(normalized, cfg)
	if len(got) != 2 {
		t.Errorf("splitSentences returned %d sentences, want capped at 2", len(got))
	}
}

func TestDeriveHotwordsWeightsTitleHigher(t *testing.T) {
	deck := []Slide{
		{
			Title:       "Pricing",
			Normalized:  normalize(0, "Pricing", "our pricing model scales with usage"),
			Tokens:      tokens("our pricing model scales with usage"),
			TitleTokens: tokens("Pricing"),
		},
		{
			Title:       "Overview",
			Normalized:  normalize(1, "Overview", "pricing is mentioned once here too"),
			Tokens:      tokens("pricing is mentioned once here too"),
			TitleTokens: tokens("Overview"),
		},
	}
	hotwords := DeriveHotwords(deck)

	found := false
	for _, w := range hotwords {
		if w == "pricing" {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected 'pricing' among hotwords, got %v", hotwords)
	}

	// "overview" appears only in a title (weight 3) and must outrank
	// "model", a content-only word (weight 1) seen earlier in the deck.
	rank := make(map[string]int, len(hotwords))
	for i, w := range hotwords {
		rank[w] = i
	}
	if rank["overview"] > rank["model"] {
		t.Errorf("hotwords = %v, want title-only 'overview' ranked before content-only 'model'", hotwords)
	}
}

func TestDeriveHotwordsCapsAtFifty(t *testing.T) {
	var deck []Slide
	for i := 0; i < 5; i++ {
		content := ""
		for j := 0; j < 20; j++ {
			content += wordFor(i, j) + " "
		}
		deck = append(deck, Slide{
			Title:       "Topic",
			Normalized:  normalize(i, "Topic", content),
			Tokens:      tokens(content),
			TitleTokens: tokens("Topic"),
		})
	}
	hotwords := DeriveHotwords(deck)
	if len(hotwords) > 50 {
		t.Errorf("len(hotwords) = %d, want <= 50", len(hotwords))
	}
}

func wordFor(i, j int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i]) + string(letters[j]) + "word"
}

// TestDeriveHotwordsTieBreakIsDeterministic guards against regressing to
// map-iteration order for first-seen tie breaks: zeta..kappa all tie at
// weight 1, so the only thing that can keep their relative order stable
// across repeated calls is deriving first-seen from the slide text itself.
func TestDeriveHotwordsTieBreakIsDeterministic(t *testing.T) {
	content := "zeta eta theta iota kappa"
	deck := []Slide{
		{
			Title:       "Intro",
			Normalized:  normalize(0, "Intro", content),
			Tokens:      tokens(normalize(0, "Intro", content)),
			TitleTokens: tokens("Intro"),
		},
	}
	want := []string{"intro", "zeta", "eta", "theta", "iota", "kappa"}

	for i := 0; i < 20; i++ {
		got := DeriveHotwords(deck)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: DeriveHotwords = %v, want %v", i, got, want)
		}
	}
}
