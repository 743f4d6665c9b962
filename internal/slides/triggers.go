package slides

import (
	"regexp"
	"strconv"
	"strings"
)

// TriggerAction identifies a recognized voice command.
type TriggerAction string

const (
	ActionNext  TriggerAction = "Next"
	ActionPrev  TriggerAction = "Prev"
	ActionGoto  TriggerAction = "Goto"
	ActionFirst TriggerAction = "First"
	ActionLast  TriggerAction = "Last"
)

// Trigger is the output of the trigger detector: a recognized command and,
// for Goto, a 0-indexed target slide.
type Trigger struct {
	Action TriggerAction
	Target int
	HasTarget bool
}

// politePrefix matches an optional "please", followed by optionally one of
// a small set of polite lead-ins, before the imperative itself.
const politePrefix = `(?:please\s+)?(?:(?:can|could|would)\s+you\s+|let'?s\s+|we\s+should\s+|i\s+want\s+to\s+)?`

var triggerPatterns = []struct {
	re     *regexp.Regexp
	action TriggerAction
}{
	{regexp.MustCompile(`^` + politePrefix + `(?:go|move|advance|switch)\s+(?:to\s+)?(?:the\s+)?next\s+(?:slide|one)\b`), ActionNext},
	{regexp.MustCompile(`^` + politePrefix + `(?:go|move|switch)\s+back\s+(?:a\s+)?(?:slide|one)\b`), ActionPrev},
	{regexp.MustCompile(`^` + politePrefix + `(?:previous|prior)\s+slide\b`), ActionPrev},
	{regexp.MustCompile(`^` + politePrefix + `last\s+slide\b`), ActionLast},
	{regexp.MustCompile(`^` + politePrefix + `first\s+slide\b`), ActionFirst},
	{regexp.MustCompile(`^` + politePrefix + `(?:go|jump|skip)\s+(?:to\s+)?(?:slide\s+)?(\d+)\b`), ActionGoto},
	{regexp.MustCompile(`^` + politePrefix + `slide\s+(\d+)\b`), ActionGoto},
}

// DetectTrigger scans text for an anchored imperative command. Matching
// requires the recognized pattern to begin at the start of the
// (lowercased, trimmed) string; mid-sentence occurrences never fire.
func DetectTrigger(text string) (Trigger, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(t) < 3 {
		return Trigger{}, false
	}

	for _, p := range triggerPatterns {
		m := p.re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if p.action != ActionGoto {
			return Trigger{Action: p.action}, true
		}
		if len(m) < 2 || m[1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return Trigger{Action: ActionGoto, Target: n - 1, HasTarget: true}, true
	}
	return Trigger{}, false
}
