package slides

import (
	"context"
	"testing"
)

type fakeEmbedder struct {
	fn func(text string) []float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return f.fn(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = f.fn(t)
	}
	return out, nil
}

// basisVector maps a one-word cue ("one", "two", "three") in the speech
// text to a one-hot vector over a 3-slide deck, so cosine similarity to
// each slide's one-hot embedding is exact and unambiguous in tests.
func basisVector(cue string) []float64 {
	switch cue {
	case "one":
		return []float64{1, 0, 0}
	case "two":
		return []float64{0, 1, 0}
	case "three":
		return []float64{0, 0, 1}
	default:
		return []float64{0, 0, 0}
	}
}

func threeSlideIndex() *Index {
	return &Index{
		Slides: []Slide{
			{Index: 0, Title: "One", Embedding: []float64{1, 0, 0}, Tokens: tokens("intro content"), TitleTokens: tokens("One")},
			{Index: 1, Title: "Two", Embedding: []float64{0, 1, 0}, Tokens: tokens("pricing details"), TitleTokens: tokens("Two")},
			{Index: 2, Title: "Three", Embedding: []float64{0, 0, 1}, Tokens: tokens("summary wrap"), TitleTokens: tokens("Three")},
		},
	}
}

func baseConfig() Config {
	return Config{
		MatchThreshold:     0.5,
		MatchDiff:          0.05,
		MatchCooldownWords: 0,
		StayBias:           0,
		ForwardBiasMargin:  0,
		BackBiasMargin:     0,
		QAMatchThreshold:   0.3,
		QAMatchDiff:        0,
	}
}

func TestMatcherCheckForwardTransition(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	m := NewMatcher(idx, embedder, baseConfig())

	result, err := m.Check(context.Background(), "two", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Transition == nil {
		t.Fatal("expected a transition")
	}
	if result.Transition.ToSlide != 1 || result.Transition.Intent != IntentForward {
		t.Errorf("transition = %+v, want ToSlide 1, Intent forward", result.Transition)
	}
	if m.Current() != 1 {
		t.Errorf("matcher current = %d, want 1", m.Current())
	}
}

func TestMatcherCheckBackwardTransition(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	m := NewMatcher(idx, embedder, cfg)
	m.Goto(1)

	result, err := m.Check(context.Background(), "one", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Transition == nil {
		t.Fatal("expected a transition")
	}
	if result.Transition.ToSlide != 0 || result.Transition.Intent != IntentBackward {
		t.Errorf("transition = %+v, want ToSlide 0, Intent backward", result.Transition)
	}
}

func TestMatcherCheckStaysWhenSpeechMatchesCurrent(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	m := NewMatcher(idx, embedder, baseConfig())

	result, err := m.Check(context.Background(), "one", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Transition != nil {
		t.Errorf("expected no transition, got %+v", result.Transition)
	}
	if result.Evaluation.Intent != IntentStay {
		t.Errorf("intent = %v, want stay", result.Evaluation.Intent)
	}
}

func TestMatcherCheckCooldownBlocksTransition(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	cfg.MatchCooldownWords = 5
	m := NewMatcher(idx, embedder, cfg)
	m.AddWords(2) // below the cooldown threshold

	result, err := m.Check(context.Background(), "two", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Evaluation.CooldownBlocked {
		t.Error("expected CooldownBlocked = true")
	}
	if result.Transition != nil {
		t.Errorf("expected no transition while in cooldown, got %+v", result.Transition)
	}
	if m.Current() != 0 {
		t.Errorf("matcher current = %d, want unchanged 0", m.Current())
	}
}

func TestMatcherCheckIgnoreCooldownOverridesGate(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	cfg.MatchCooldownWords = 5
	m := NewMatcher(idx, embedder, cfg)
	m.AddWords(2)

	result, err := m.Check(context.Background(), "two", true)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Evaluation.CooldownBlocked {
		t.Error("expected CooldownBlocked = false when ignoreCooldown is set")
	}
	if result.Transition == nil {
		t.Error("expected a transition when cooldown is ignored")
	}
}

func TestMatcherCheckQAModeJumpsDirectly(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	cfg.QAMode = true
	m := NewMatcher(idx, embedder, cfg)

	result, err := m.Check(context.Background(), "three", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Transition == nil {
		t.Fatal("expected a transition")
	}
	if result.Transition.ToSlide != 2 || result.Transition.Intent != IntentJump {
		t.Errorf("transition = %+v, want ToSlide 2, Intent jump", result.Transition)
	}
	if result.Evaluation.CooldownBlocked {
		t.Error("QA mode must not apply the cooldown gate")
	}
}

func TestMatcherCheckNonAdjacentJumpAllowed(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	cfg.AllowNonAdjacent = true
	cfg.NonAdjacentThreshold = 0.9
	cfg.NonAdjacentBoost = 0
	m := NewMatcher(idx, embedder, cfg)

	result, err := m.Check(context.Background(), "three", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Evaluation.NonAdjacent {
		t.Error("expected NonAdjacent = true")
	}
	if result.Transition == nil || result.Transition.ToSlide != 2 {
		t.Errorf("transition = %+v, want jump to slide 2", result.Transition)
	}
}

func TestMatcherCheckNonAdjacentJumpBlockedBelowThreshold(t *testing.T) {
	idx := threeSlideIndex()
	embedder := &fakeEmbedder{fn: basisVector}
	cfg := baseConfig()
	cfg.AllowNonAdjacent = true
	cfg.NonAdjacentThreshold = 1.5 // unreachable, cosine is bounded by 1
	cfg.NonAdjacentBoost = 0
	m := NewMatcher(idx, embedder, cfg)

	result, err := m.Check(context.Background(), "three", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !result.Evaluation.NonAdjacent {
		t.Error("expected NonAdjacent = true even when the jump is gated out")
	}
	if result.Transition != nil {
		t.Errorf("expected the jump to be blocked, got transition %+v", result.Transition)
	}
	if m.Current() != 0 {
		t.Errorf("matcher current = %d, want unchanged 0", m.Current())
	}
}

func TestMatcherCheckKeywordBoostTipsATie(t *testing.T) {
	idx := &Index{
		Slides: []Slide{
			{Index: 0, Title: "One", Embedding: []float64{1, 1, 1}, Tokens: tokens("intro content"), TitleTokens: tokens("One")},
			{Index: 1, Title: "Two", Embedding: []float64{1, 1, 1}, Tokens: tokens("pricing details"), TitleTokens: tokens("Two")},
		},
	}
	embedder := &fakeEmbedder{fn: func(text string) []float64 { return []float64{1, 1, 1} }}
	cfg := baseConfig()
	cfg.KeywordBoost = 0.5
	cfg.KeywordMinTokens = 1
	m := NewMatcher(idx, embedder, cfg)

	result, err := m.Check(context.Background(), "pricing", false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if result.Transition == nil || result.Transition.ToSlide != 1 {
		t.Errorf("transition = %+v, want keyword boost to tip slide 1", result.Transition)
	}
}

func TestMatcherGotoIgnoresOutOfRange(t *testing.T) {
	idx := threeSlideIndex()
	m := NewMatcher(idx, &fakeEmbedder{fn: basisVector}, baseConfig())

	m.Goto(5)
	if m.Current() != 0 {
		t.Errorf("Goto(5) changed current to %d, want unchanged 0 (out of range)", m.Current())
	}
	m.Goto(2)
	if m.Current() != 2 {
		t.Errorf("Goto(2) current = %d, want 2", m.Current())
	}
}

func TestMatcherResetReturnsToSlideZero(t *testing.T) {
	idx := threeSlideIndex()
	m := NewMatcher(idx, &fakeEmbedder{fn: basisVector}, baseConfig())
	m.Goto(2)
	m.AddWords(4)

	m.Reset()
	if m.Current() != 0 {
		t.Errorf("current after Reset = %d, want 0", m.Current())
	}
	if m.WordsSinceTransition() != 0 {
		t.Errorf("WordsSinceTransition after Reset = %d, want 0", m.WordsSinceTransition())
	}
}
