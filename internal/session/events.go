package session

import "github.com/hubenschmidt/presentation-copilot/internal/slides"

// Event is a single line of the stdout JSON event channel. Only the fields
// relevant to its Type are populated.
type Event struct {
	Type string `json:"type"`

	Count int `json:"count,omitempty"`

	Text string `json:"text,omitempty"`

	FromSlide  *int    `json:"from_slide,omitempty"`
	ToSlide    *int    `json:"to_slide,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	SlideTitle string  `json:"slide_title,omitempty"`
	Intent     string  `json:"intent,omitempty"`

	MatchEval *matchEvalPayload `json:"match_eval,omitempty"`

	CurrentSlide *int `json:"current_slide,omitempty"`

	Message string `json:"message,omitempty"`
}

type optionPayload struct {
	Label string  `json:"label"`
	Slide int     `json:"slide"`
	Sim   float64 `json:"sim"`
}

type matchEvalPayload struct {
	SimPrev    float64 `json:"sim_prev"`
	SimCurrent float64 `json:"sim_current"`
	SimNext    float64 `json:"sim_next"`
	SimTarget  float64 `json:"sim_target"`
	SimBest    float64 `json:"sim_best"`
	BestSlide  int     `json:"best_slide"`

	Threshold    float64 `json:"threshold"`
	RequiredDiff float64 `json:"required_diff"`
	Diff         float64 `json:"diff"`

	Intent           string `json:"intent"`
	WouldTransition  bool   `json:"would_transition"`
	QAMode           bool   `json:"qa_mode"`
	AllowNonAdjacent bool   `json:"allow_non_adjacent"`
	NonAdjacent      bool   `json:"non_adjacent"`
	CooldownBlocked  bool   `json:"cooldown_blocked"`
	CooldownWords    int    `json:"cooldown_words"`
	WordsSince       int    `json:"words_since"`

	Options  []optionPayload `json:"options"`
	Keywords []string        `json:"keywords"`
	Contrast string          `json:"contrast"`
}

func toMatchEvalPayload(e slides.Evaluation) *matchEvalPayload {
	opts := make([]optionPayload, len(e.Options))
	for i, o := range e.Options {
		opts[i] = optionPayload{Label: o.Label, Slide: o.Slide, Sim: o.Sim}
	}
	return &matchEvalPayload{
		SimPrev:          e.SimPrev,
		SimCurrent:       e.SimCurrent,
		SimNext:          e.SimNext,
		SimTarget:        e.SimTarget,
		SimBest:          e.SimBest,
		BestSlide:        e.BestSlide,
		Threshold:        e.Threshold,
		RequiredDiff:     e.RequiredDiff,
		Diff:             e.Diff,
		Intent:           string(e.Intent),
		WouldTransition:  e.WouldTransition,
		QAMode:           e.QAMode,
		AllowNonAdjacent: e.AllowNonAdjacent,
		NonAdjacent:      e.NonAdjacent,
		CooldownBlocked:  e.CooldownBlocked,
		CooldownWords:    e.CooldownWords,
		WordsSince:       e.WordsSince,
		Options:          opts,
		Keywords:         e.Keywords,
		Contrast:         e.Contrast,
	}
}

func readyEvent() Event { return Event{Type: "ready"} }

func finalEvent(text string) Event { return Event{Type: "final", Text: text} }

func partialEvent(text string) Event { return Event{Type: "partial", Text: text} }

func slidesReadyEvent(count int) Event { return Event{Type: "slides_ready", Count: count} }

func slideSetEvent(current int) Event { return Event{Type: "slide_set", CurrentSlide: &current} }

func resetDoneEvent(current int) Event { return Event{Type: "reset_done", CurrentSlide: &current} }

func errorEvent(message string) Event { return Event{Type: "error", Message: message} }

func matchEvalEvent(e slides.Evaluation) Event {
	return Event{Type: "match_eval", MatchEval: toMatchEvalPayload(e)}
}

func transitionEvent(t slides.Transition) Event {
	from := t.FromSlide
	to := t.ToSlide
	return Event{
		Type:       "slide_transition",
		FromSlide:  &from,
		ToSlide:    &to,
		Confidence: t.Confidence,
		SlideTitle: t.SlideTitle,
		Intent:     string(t.Intent),
	}
}
