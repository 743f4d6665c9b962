package slides

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Slide is immutable once built: index is the natural 0..N-1 order of the
// input deck; Embedding and SentenceEmbeddings are derived from a
// normalized form of "title. content" and populated by Build.
type Slide struct {
	Index               int
	Title               string
	Content             string
	Normalized          string
	Embedding           []float64
	Sentences           []string
	SentenceEmbeddings  [][]float64 // each L2-normalized
	Tokens              map[string]struct{}
	TitleTokens         map[string]struct{}
}

// RawSlide is the input shape for load_slides: a title and textual content.
type RawSlide struct {
	Title   string
	Content string
}

var stopwords = buildStopwords([]string{
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "of", "to",
	"in", "on", "at", "for", "with", "is", "are", "was", "were", "be",
	"been", "being", "this", "that", "these", "those", "it", "its", "as",
	"by", "from", "we", "you", "i", "he", "she", "they", "them", "our",
	"your", "will", "can", "could", "would", "should",
})

func buildStopwords(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var horizontalSpaceRe = regexp.MustCompile(`[ \t]+`)
var multiNewlineRe = regexp.MustCompile(`\n{2,}`)
var tokenRe = regexp.MustCompile(`[a-z0-9']+`)

// normalize composes "title. content", substitutes a placeholder when
// empty, strips NUL bytes, maps CR to LF, collapses whitespace, and
// replaces non-printable characters with a space.
func normalize(index int, title, content string) string {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	text := strings.TrimSpace(fmt.Sprintf("%s. %s", title, content))
	if text == "" || text == "." {
		text = fmt.Sprintf("Slide %d", index)
	}

	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	for _, r := range text {
		if r == ' ' || r == '\n' || unicode.IsPrint(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	cleaned := horizontalSpaceRe.ReplaceAllString(b.String(), " ")
	cleaned = multiNewlineRe.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}

// tokens lowercases text, extracts [a-z0-9']+ runs, and drops tokens of
// length <= 2 or in the stopword list.
func tokens(text string) map[string]struct{} {
	lower := strings.ToLower(text)
	matches := tokenRe.FindAllString(lower, -1)
	out := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if len(m) <= 2 {
			continue
		}
		if _, stop := stopwords[m]; stop {
			continue
		}
		out[m] = struct{}{}
	}
	return out
}

// orderedTokens applies the same filtering as tokens but preserves
// first-occurrence order instead of collapsing into a set.
func orderedTokens(text string) []string {
	lower := strings.ToLower(text)
	matches := tokenRe.FindAllString(lower, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) <= 2 {
			continue
		}
		if _, stop := stopwords[m]; stop {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

var bulletLineRe = regexp.MustCompile(`^[\s]*([•\-\*]|\d+[.)])\s*`)
var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)

const (
	defaultSentenceMinChars    = 20
	defaultSentenceMinWords    = 4
	defaultSentenceMaxPerSlide = 12
)

// SentenceSplitConfig controls the thresholds used by splitSentences.
type SentenceSplitConfig struct {
	MinChars    int
	MinWords    int
	MaxPerSlide int
}

// DefaultSentenceSplitConfig returns the default sentence-splitting thresholds.
func DefaultSentenceSplitConfig() SentenceSplitConfig {
	return SentenceSplitConfig{
		MinChars:    defaultSentenceMinChars,
		MinWords:    defaultSentenceMinWords,
		MaxPerSlide: defaultSentenceMaxPerSlide,
	}
}

// splitSentences turns normalized slide text into sub-sentence candidates:
// bullet/numbered lines each start a fresh sentence; non-bullet
// continuation lines append to the previous bullet; within each resulting
// line, further splits occur on sentence punctuation followed by
// whitespace. Short sentences are dropped, duplicates removed
// case-insensitively, and the result capped.
func splitSentences(normalized string, cfg SentenceSplitConfig) []string {
	lines := strings.Split(normalized, "\n")

	var joined []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if bulletLineRe.MatchString(line) || len(joined) == 0 {
			joined = append(joined, bulletLineRe.ReplaceAllString(line, ""))
		} else {
			joined[len(joined)-1] += " " + line
		}
	}

	var candidates []string
	for _, block := range joined {
		for _, part := range sentenceSplitRe.Split(block, -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				candidates = append(candidates, part)
			}
		}
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		if len(c) < cfg.MinChars {
			continue
		}
		if len(strings.Fields(c)) < cfg.MinWords {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) >= cfg.MaxPerSlide {
			break
		}
	}
	return out
}

// hotwordEntry tracks a candidate hotword's weighted frequency and the
// order it was first seen in, for deterministic tie-breaking.
type hotwordEntry struct {
	token     string
	weight    float64
	firstSeen int
}

// DeriveHotwords collects tokens across the deck, weighting title tokens
// 3x and content tokens 1x, and returns the top 50 ranked by frequency
// with ties broken by first-seen order. First-seen order is derived from
// each slide's normalized text scanned left to right, not from map
// iteration (which Go randomizes), so tied tokens rank identically across
// runs on the same deck.
func DeriveHotwords(slides []Slide) []string {
	entries := make(map[string]*hotwordEntry)
	order := 0

	touch := func(t string) *hotwordEntry {
		e, ok := entries[t]
		if !ok {
			e = &hotwordEntry{token: t, firstSeen: order}
			entries[t] = e
			order++
		}
		return e
	}

	for _, s := range slides {
		for _, t := range orderedTokens(s.Normalized) {
			touch(t)
		}
	}

	for _, s := range slides {
		for t := range s.TitleTokens {
			touch(t).weight += 3
		}
		for t := range s.Tokens {
			touch(t).weight += 1
		}
	}

	list := make([]*hotwordEntry, 0, len(entries))
	for _, e := range entries {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].weight != list[j].weight {
			return list[i].weight > list[j].weight
		}
		return list[i].firstSeen < list[j].firstSeen
	})

	if len(list) > 50 {
		list = list[:50]
	}
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.token
	}
	return out
}
