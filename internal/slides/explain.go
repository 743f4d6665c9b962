package slides

import "strings"

const maxKeywords = 8
const contrastWindowWords = 60

// explain computes the keyword list and contrast phrase used to justify a
// matcher decision: keywords intersect speech tokens with the target
// slide's tokens (falling back to the current slide's tokens when target
// equals current), subtracting tokens shared with the current slide to
// highlight contrast; the contrast phrase is the highest-scoring 2/3-word
// span of the input by the same target-minus-current overlap measure.
func explain(text string, speechTokens map[string]struct{}, target, current Slide) ([]string, string) {
	keywords := keywordsFor(speechTokens, target, current)
	contrast := contrastPhrase(text, target, current)
	return keywords, contrast
}

func keywordsFor(speechTokens map[string]struct{}, target, current Slide) []string {
	intersect := intersectTokens(speechTokens, target.Tokens)
	contrastSet := subtractTokens(intersect, current.Tokens)
	if len(contrastSet) == 0 {
		contrastSet = intersect
	}

	list := make([]string, 0, len(contrastSet))
	for t := range contrastSet {
		list = append(list, t)
	}

	titleSet := target.TitleTokens
	sortKeywords(list, titleSet)

	if len(list) > maxKeywords {
		list = list[:maxKeywords]
	}
	return list
}

func sortKeywords(list []string, titleTokens map[string]struct{}) {
	less := func(i, j int) bool {
		a, b := list[i], list[j]
		_, aTitle := titleTokens[a]
		_, bTitle := titleTokens[b]
		if aTitle != bTitle {
			return aTitle
		}
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return a < b
	}
	insertionSort(list, less)
}

func insertionSort(list []string, less func(i, j int) bool) {
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
}

func intersectTokens(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for t := range a {
		if _, ok := b[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out
}

func subtractTokens(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	for t := range a {
		if _, ok := b[t]; !ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// contrastPhrase enumerates 2- and 3-word contiguous spans from the first
// 60 words of text, scores each by overlap with the target's tokens minus
// overlap with the current slide's tokens, and returns the single
// highest-scoring span (ties break on raw target overlap, then title
// overlap).
func contrastPhrase(text string, target, current Slide) string {
	words := strings.Fields(text)
	if len(words) > contrastWindowWords {
		words = words[:contrastWindowWords]
	}
	if len(words) == 0 {
		return ""
	}

	var best string
	var bestScore, bestTargetOverlap, bestTitleOverlap float64
	found := false

	tryLen := func(spanLen int) {
		for i := 0; i+spanLen <= len(words); i++ {
			span := strings.Join(words[i:i+spanLen], " ")
			spanTokens := tokens(span)
			targetOverlap := overlapCount(spanTokens, target.Tokens)
			currentOverlap := overlapCount(spanTokens, current.Tokens)
			titleOverlap := overlapCount(spanTokens, target.TitleTokens)
			score := targetOverlap - currentOverlap

			if !found || score > bestScore ||
				(score == bestScore && targetOverlap > bestTargetOverlap) ||
				(score == bestScore && targetOverlap == bestTargetOverlap && titleOverlap > bestTitleOverlap) {
				best = span
				bestScore = score
				bestTargetOverlap = targetOverlap
				bestTitleOverlap = titleOverlap
				found = true
			}
		}
	}

	tryLen(2)
	tryLen(3)

	return best
}

func overlapCount(a, b map[string]struct{}) float64 {
	var count float64
	for t := range a {
		if _, ok := b[t]; ok {
			count++
		}
	}
	return count
}
