package slides

import (
	"context"
	"fmt"
	"math"

	"github.com/hubenschmidt/presentation-copilot/internal/embed"
)

// Config holds the matcher's tuning knobs, independent of the
// process-wide config surface so the package can be tested in isolation.
type Config struct {
	MatchThreshold     float64
	MatchDiff          float64
	MatchCooldownWords int
	StayBias           float64
	ForwardBiasMargin  float64
	BackBiasMargin     float64

	AllowNonAdjacent     bool
	NonAdjacentThreshold float64
	NonAdjacentBoost     float64

	KeywordBoost     float64
	KeywordMinTokens int
	TitleBoost       float64
	TitleMinTokens   int

	SentenceMatchEnabled bool

	QAMode           bool
	QAMatchThreshold float64
	QAMatchDiff      float64
}

// Intent classifies the relation of a transition's target to the previous
// current slide, or the recognized source of a fired trigger.
type Intent string

const (
	IntentForward  Intent = "forward"
	IntentBackward Intent = "backward"
	IntentJump     Intent = "jump"
	IntentStay     Intent = "stay"
)

// Transition describes a slide change decided by the matcher.
type Transition struct {
	FromSlide  int
	ToSlide    int
	Confidence float64
	SlideTitle string
	Intent     Intent
}

// Option is a compact similarity label included in the evaluation payload.
type Option struct {
	Label string
	Slide int
	Sim   float64
}

// Evaluation is always produced when encoding succeeds, whether or not a
// transition results.
type Evaluation struct {
	SimPrev    float64
	SimCurrent float64
	SimNext    float64
	SimTarget  float64
	SimBest    float64
	BestSlide  int

	Threshold    float64
	RequiredDiff float64
	Diff         float64

	Intent          Intent
	WouldTransition bool
	QAMode          bool
	AllowNonAdjacent bool
	NonAdjacent     bool
	CooldownBlocked bool
	CooldownWords   int
	WordsSince      int

	Options  []Option
	Keywords []string
	Contrast string
}

// Result is the matcher's output for one Check call.
type Result struct {
	Evaluation Evaluation
	Transition *Transition
}

// EncodingError reports a failure to embed the input text.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("matcher encoding: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// Matcher owns the mutable per-session decision state: current slide,
// words since the last transition, and QA-mode toggle.
type Matcher struct {
	index  *Index
	embedder embed.Embedder
	cfg    Config

	current              int
	wordsSinceTransition int
	qaMode               bool

	cache *embeddingCache
}

// NewMatcher creates a Matcher over a built Index.
func NewMatcher(index *Index, embedder embed.Embedder, cfg Config) *Matcher {
	return &Matcher{
		index:    index,
		embedder: embedder,
		cfg:      cfg,
		qaMode:   cfg.QAMode,
		cache:    newEmbeddingCache(64),
	}
}

// Current returns the matcher's current slide index.
func (m *Matcher) Current() int { return m.current }

// SetQAMode toggles the alternate QA policy.
func (m *Matcher) SetQAMode(qa bool) { m.qaMode = qa }

// Goto sets the current slide directly (goto_slide), clearing the
// cooldown counter.
func (m *Matcher) Goto(index int) {
	if index < 0 || index >= len(m.index.Slides) {
		return
	}
	m.current = index
	m.wordsSinceTransition = 0
}

// Reset returns the matcher to slide 0 with a clean cooldown counter.
func (m *Matcher) Reset() {
	m.current = 0
	m.wordsSinceTransition = 0
}

// AddWords increments the cooldown counter by n newly added words.
func (m *Matcher) AddWords(n int) {
	m.wordsSinceTransition += n
}

// WordsSinceTransition reports the cooldown counter, used by the session
// controller to gate Next/Prev triggers separately from the matcher's own
// match_cooldown_words gate.
func (m *Matcher) WordsSinceTransition() int { return m.wordsSinceTransition }

// Check runs the full matcher algorithm against text, returning an
// evaluation (always, on success) and a transition (when the decision is
// to move).
func (m *Matcher) Check(ctx context.Context, text string, ignoreCooldown bool) (*Result, error) {
	n := len(m.index.Slides)
	if n == 0 {
		return nil, fmt.Errorf("matcher: empty slide index")
	}

	threshold := m.cfg.MatchThreshold
	requiredDiffBase := math.Max(m.cfg.MatchDiff, m.cfg.StayBias)
	if m.qaMode {
		threshold = m.cfg.QAMatchThreshold
		requiredDiffBase = m.cfg.QAMatchDiff
	}

	cooldownBlocked := false
	if !ignoreCooldown && !m.qaMode && m.wordsSinceTransition < m.cfg.MatchCooldownWords {
		cooldownBlocked = true
	}

	emb, err := m.encode(ctx, text)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}

	sims := make([]float64, n)
	for i, s := range m.index.Slides {
		sims[i] = cosine(emb, s.Embedding)
	}

	speechTokens := tokens(text)
	next := clamp(m.current+1, n)
	prev := clamp(m.current-1, n)

	boostIdx := m.lexicalBoostIndices(sims, next, prev)
	m.applyLexicalBoosts(sims, speechTokens, boostIdx)

	if m.cfg.SentenceMatchEnabled {
		m.applySentenceUplift(sims, emb, next, prev)
	}

	best := argmax(sims)

	var target int
	var nonAdjacent bool
	if m.qaMode {
		target = best
	} else {
		candidates := []int{m.current, prev, next}
		localBest := argmaxAmong(sims, candidates)
		target = localBest

		if next != m.current && sims[next] >= sims[localBest]-m.cfg.ForwardBiasMargin {
			target = next
		} else if prev != m.current && sims[prev] >= sims[localBest]-m.cfg.BackBiasMargin {
			target = prev
		}

		if m.cfg.AllowNonAdjacent && !contains(candidates, best) {
			nonAdjacent = true
			required := math.Max(sims[localBest]+m.cfg.NonAdjacentBoost, m.cfg.NonAdjacentThreshold)
			if sims[best] >= required {
				target = best
			}
		}
	}

	diff := sims[target] - sims[m.current]
	wouldTransition := target != m.current && sims[target] >= threshold && diff >= requiredDiffBase && !cooldownBlocked

	eval := Evaluation{
		SimPrev:          sims[prev],
		SimCurrent:       sims[m.current],
		SimNext:          sims[next],
		SimTarget:        sims[target],
		SimBest:          sims[best],
		BestSlide:        best,
		Threshold:        threshold,
		RequiredDiff:     requiredDiffBase,
		Diff:             diff,
		WouldTransition:  wouldTransition,
		QAMode:           m.qaMode,
		AllowNonAdjacent: m.cfg.AllowNonAdjacent,
		NonAdjacent:      nonAdjacent,
		CooldownBlocked:  cooldownBlocked,
		CooldownWords:    m.cfg.MatchCooldownWords,
		WordsSince:       m.wordsSinceTransition,
		Options:          m.options(sims, prev, next, target),
	}

	fromSlide := m.current
	intent := computeIntent(fromSlide, target, n)
	eval.Intent = intent

	eval.Keywords, eval.Contrast = explain(text, speechTokens, m.index.Slides[target], m.index.Slides[m.current])

	result := &Result{Evaluation: eval}

	if wouldTransition {
		m.current = target
		m.wordsSinceTransition = 0
		result.Transition = &Transition{
			FromSlide:  fromSlide,
			ToSlide:    target,
			Confidence: sims[target],
			SlideTitle: m.index.Slides[target].Title,
			Intent:     intent,
		}
	}

	return result, nil
}

func (m *Matcher) encode(ctx context.Context, text string) ([]float64, error) {
	if v, ok := m.cache.get(text); ok {
		return v, nil
	}
	v, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.put(text, v)
	return v, nil
}

func (m *Matcher) lexicalBoostIndices(sims []float64, next, prev int) []int {
	n := len(m.index.Slides)
	if m.qaMode {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := []int{m.current}
	if next != m.current {
		idx = append(idx, next)
	}
	if prev != m.current {
		idx = append(idx, prev)
	}
	if m.cfg.AllowNonAdjacent {
		best := argmax(sims)
		if !contains(idx, best) {
			idx = append(idx, best)
		}
	}
	return idx
}

func (m *Matcher) applyLexicalBoosts(sims []float64, speechTokens map[string]struct{}, indices []int) {
	nTokens := len(speechTokens)

	if m.cfg.KeywordBoost > 0 && nTokens >= m.cfg.KeywordMinTokens {
		for _, i := range indices {
			overlap := overlapRatio(speechTokens, m.index.Slides[i].Tokens)
			sims[i] += clamp01(m.cfg.KeywordBoost * overlap)
		}
	}
	if m.cfg.TitleBoost > 0 && nTokens >= m.cfg.TitleMinTokens {
		for _, i := range indices {
			overlap := overlapRatio(speechTokens, m.index.Slides[i].TitleTokens)
			sims[i] += clamp01(m.cfg.TitleBoost * overlap)
		}
	}
}

func (m *Matcher) applySentenceUplift(sims []float64, emb []float64, next, prev int) {
	n := len(m.index.Slides)
	var candidates []int
	if m.qaMode {
		candidates = make([]int, n)
		for i := range candidates {
			candidates[i] = i
		}
	} else {
		candidates = []int{m.current}
		if next < n {
			candidates = append(candidates, next)
		}
		if prev >= 0 {
			candidates = append(candidates, prev)
		}
	}

	for _, i := range candidates {
		slide := m.index.Slides[i]
		if len(slide.SentenceEmbeddings) == 0 {
			continue
		}
		maxSim := sims[i]
		for _, sv := range slide.SentenceEmbeddings {
			s := cosine(emb, sv)
			if s > maxSim {
				maxSim = s
			}
		}
		if maxSim > sims[i] {
			sims[i] = maxSim
		}
	}
}

func (m *Matcher) options(sims []float64, prev, next, target int) []Option {
	if m.qaMode {
		top := topN(sims, 3)
		out := make([]Option, len(top))
		for i, idx := range top {
			out[i] = Option{Label: fmt.Sprintf("slide_%d", idx), Slide: idx, Sim: sims[idx]}
		}
		return out
	}
	return []Option{
		{Label: "prev", Slide: prev, Sim: sims[prev]},
		{Label: "current", Slide: m.current, Sim: sims[m.current]},
		{Label: "next", Slide: next, Sim: sims[next]},
	}
}

func computeIntent(from, target, n int) Intent {
	switch {
	case target == from:
		return IntentStay
	case target == from+1:
		return IntentForward
	case target == from-1:
		return IntentBackward
	default:
		return IntentJump
	}
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp01(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func argmax(xs []float64) int {
	best := 0
	for i, v := range xs {
		if v > xs[best] {
			best = i
		}
	}
	return best
}

func argmaxAmong(xs []float64, indices []int) int {
	best := indices[0]
	for _, i := range indices[1:] {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func topN(xs []float64, n int) []int {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	// simple selection, deck sizes are small
	for i := 0; i < n && i < len(idx); i++ {
		maxJ := i
		for j := i + 1; j < len(idx); j++ {
			if xs[idx[j]] > xs[idx[maxJ]] {
				maxJ = j
			}
		}
		idx[i], idx[maxJ] = idx[maxJ], idx[i]
	}
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n]
}

func overlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 {
		return 0
	}
	var count int
	for t := range a {
		if _, ok := b[t]; ok {
			count++
		}
	}
	return float64(count) / float64(len(a))
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA)*math.Sqrt(normB) + 1e-8
	return dot / denom
}
