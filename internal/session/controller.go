// Package session owns the event loop: it reads line-delimited JSON
// commands from stdin, dispatches them to the stabilizer/matcher/trigger
// components, and emits line-delimited JSON events on stdout.
package session

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hubenschmidt/presentation-copilot/internal/embed"
	"github.com/hubenschmidt/presentation-copilot/internal/metrics"
	"github.com/hubenschmidt/presentation-copilot/internal/slides"
	"github.com/hubenschmidt/presentation-copilot/internal/stabilizer"
)

// Config holds every knob the controller needs, independent of the
// process-wide config surface so the package stays testable in isolation.
type Config struct {
	SampleRate    int
	BufferSeconds int
	QABufferSeconds int

	WindowWords int

	RecentWordsCount      int
	RecentWordsMultiplier int

	TriggerCooldownMs      int
	TriggerTailWords       int
	TriggerMinWordsBetween int

	PartialFinalizeMs      int
	PartialMatchEnabled    bool
	PartialMatchStableMs   int
	PartialMatchCooldownMs int

	Matcher slides.Config
}

// Controller owns the per-session mutable state: the PCM stabilizer, the
// slide matcher (built lazily on load_slides), the text window, and
// speech-stream bookkeeping for partial finalization and trigger debounce.
type Controller struct {
	id  string
	cfg Config

	stabilizer *stabilizer.Stabilizer
	embedder   embed.Embedder

	index   *slides.Index
	matcher *slides.Matcher

	qaMode bool

	textWindow []string

	lastPartialText    string
	lastPartialTs      time.Time
	lastPartialMatchTs time.Time
	lastTriggerTs      time.Time

	out *json.Encoder
}

// New creates a Controller. The stabilizer is already wired to an ASR
// backend; the embedder is used to build the slide index on load_slides.
func New(st *stabilizer.Stabilizer, embedder embed.Embedder, cfg Config, out io.Writer) *Controller {
	return &Controller{
		id:         uuid.NewString(),
		cfg:        cfg,
		stabilizer: st,
		embedder:   embedder,
		out:        json.NewEncoder(out),
	}
}

func (c *Controller) emit(ev Event) {
	if err := c.out.Encode(ev); err != nil {
		slog.Error("write event", "session", c.id, "error", err)
	}
}

// Run reads newline-delimited JSON commands from in until EOF, dispatching
// each to completion before reading the next (single-threaded, cooperative
// scheduling). It never exits early on a per-message error.
func (c *Controller) Run(ctx context.Context, in io.Reader) {
	c.emit(readyEvent())

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.handleLine(ctx, line)
	}
}

type inboundMessage struct {
	Type string `json:"type"`

	Data   string `json:"data"`
	Silent bool   `json:"silent"`

	Slides []rawSlideJSON `json:"slides"`

	Index int `json:"index"`

	QAMode bool `json:"qa_mode"`
}

type rawSlideJSON struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (c *Controller) handleLine(ctx context.Context, line string) {
	var msg inboundMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		slog.Warn("malformed message", "session", c.id, "error", err)
		c.emit(errorEvent("malformed json"))
		return
	}

	switch msg.Type {
	case "audio":
		c.handleAudio(ctx, msg)
	case "load_slides":
		c.handleLoadSlides(ctx, msg)
	case "goto_slide":
		c.handleGotoSlide(msg)
	case "reset":
		c.handleReset()
	case "set_qa_mode":
		c.handleSetQAMode(msg)
	default:
		slog.Warn("unknown message type", "session", c.id, "type", msg.Type)
		c.emit(errorEvent(fmt.Sprintf("unknown message type %q", msg.Type)))
	}
}

func (c *Controller) handleLoadSlides(ctx context.Context, msg inboundMessage) {
	if len(msg.Slides) == 0 {
		slog.Warn("load_slides with empty deck", "session", c.id)
		c.emit(errorEvent("load_slides requires at least one slide"))
		return
	}

	raw := make([]slides.RawSlide, len(msg.Slides))
	for i, s := range msg.Slides {
		raw[i] = slides.RawSlide{Title: s.Title, Content: s.Content}
	}

	index, err := slides.Build(ctx, c.embedder, raw, slides.DefaultSentenceSplitConfig())
	if err != nil {
		slog.Warn("build slide index", "session", c.id, "error", err)
		c.emit(errorEvent(err.Error()))
		return
	}

	c.index = index
	c.matcher = slides.NewMatcher(index, c.embedder, c.cfg.Matcher)
	c.matcher.SetQAMode(c.qaMode)
	c.stabilizer.SetHotwords(index.Hotwords)
	c.textWindow = nil

	c.emit(slidesReadyEvent(len(index.Slides)))
}

func (c *Controller) handleGotoSlide(msg inboundMessage) {
	if c.matcher == nil {
		c.emit(errorEvent("no slides loaded"))
		return
	}
	c.matcher.Goto(msg.Index)
	c.textWindow = nil
	c.emit(slideSetEvent(c.matcher.Current()))
}

func (c *Controller) handleReset() {
	c.stabilizer.Reset()
	if c.matcher != nil {
		c.matcher.Reset()
	}
	c.textWindow = nil
	c.lastPartialText = ""
	c.lastPartialTs = time.Time{}
	c.lastPartialMatchTs = time.Time{}
	c.emit(resetDoneEvent(0))
}

func (c *Controller) handleSetQAMode(msg inboundMessage) {
	c.qaMode = msg.QAMode
	if c.matcher != nil {
		c.matcher.SetQAMode(c.qaMode)
	}
	bufferSeconds := c.cfg.BufferSeconds
	if c.qaMode {
		bufferSeconds = c.cfg.QABufferSeconds
	}
	c.stabilizer.SetBufferSeconds(bufferSeconds)
	c.textWindow = nil
	c.lastPartialText = ""
	c.lastPartialTs = time.Time{}
}

func (c *Controller) handleAudio(ctx context.Context, msg inboundMessage) {
	if msg.Silent {
		c.maybeFinalizeSilence(ctx)
		return
	}

	pcm, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		slog.Warn("bad base64 audio", "session", c.id, "error", err)
		c.emit(errorEvent("bad base64 audio"))
		return
	}

	metrics.AudioChunks.Inc()
	c.stabilizer.AddAudio(pcm)

	confirmed, partial, err := c.stabilizer.Process(ctx)
	if err != nil {
		slog.Warn("stabilizer process", "session", c.id, "error", err)
		c.emit(errorEvent(err.Error()))
		return
	}

	now := time.Now()

	if len(confirmed) > 0 {
		metrics.WordsConfirmed.Add(float64(len(confirmed)))
		text := strings.Join(confirmed, " ")
		c.emit(finalEvent(text))
		c.lastPartialText = ""
		c.lastPartialTs = time.Time{}
		c.processWords(ctx, confirmed)
	}

	if len(partial) > 0 {
		text := strings.Join(partial, " ")
		c.emit(partialEvent(text))
		prevPartialTs := c.lastPartialTs
		c.lastPartialText = text
		c.lastPartialTs = now

		c.tryPartialTrigger(text)
		c.maybePartialMatch(ctx, text, now, prevPartialTs)
		return
	}

	if len(confirmed) == 0 {
		c.maybeFinalizeSilence(ctx)
	}
}

// maybeFinalizeSilence emits a synthetic final for a stable partial after
// partial_finalize_ms of silence, then runs it through processWords as if
// the words had been confirmed.
func (c *Controller) maybeFinalizeSilence(ctx context.Context) {
	if c.lastPartialText == "" || c.lastPartialTs.IsZero() {
		return
	}
	if time.Since(c.lastPartialTs) < time.Duration(c.cfg.PartialFinalizeMs)*time.Millisecond {
		return
	}

	text := c.lastPartialText
	c.lastPartialText = ""
	c.lastPartialTs = time.Time{}

	c.emit(finalEvent(text))
	c.processWords(ctx, strings.Fields(text))
}

// tryPartialTrigger checks the partial tail for a command, restricted to
// Goto/First/Last and subject to trigger_cooldown_ms; Next/Prev never fire
// on an unstable partial.
func (c *Controller) tryPartialTrigger(text string) {
	tail := tailWords(text, c.cfg.TriggerTailWords)
	trig, ok := slides.DetectTrigger(tail)
	if !ok {
		return
	}
	if trig.Action == slides.ActionNext || trig.Action == slides.ActionPrev {
		return
	}
	if !c.triggerAllowed(trig) {
		return
	}
	c.fireTrigger(trig)
}

// maybePartialMatch runs the partial-path semantic match once the partial
// has been stable for partial_match_stable_ms and the previous partial
// match fired at least partial_match_cooldown_ms ago. prevPartialTs is the
// timestamp of the partial update preceding this one.
func (c *Controller) maybePartialMatch(ctx context.Context, text string, now, prevPartialTs time.Time) {
	if !c.cfg.PartialMatchEnabled || c.matcher == nil {
		return
	}
	if now.Sub(prevPartialTs) < time.Duration(c.cfg.PartialMatchStableMs)*time.Millisecond {
		return
	}
	if now.Sub(c.lastPartialMatchTs) < time.Duration(c.cfg.PartialMatchCooldownMs)*time.Millisecond {
		return
	}

	c.lastPartialMatchTs = now
	c.evaluateMatch(ctx, c.weightedWindowText(strings.Fields(text)), true)
}

// processWords appends confirmed (or silence-finalized) words to the text
// window, advances the cooldown counter, tries a full trigger scan over
// the tail, and otherwise runs the matcher.
func (c *Controller) processWords(ctx context.Context, words []string) {
	c.textWindow = append(c.textWindow, words...)
	if len(c.textWindow) > c.cfg.WindowWords {
		c.textWindow = c.textWindow[len(c.textWindow)-c.cfg.WindowWords:]
	}
	if c.matcher != nil {
		c.matcher.AddWords(len(words))
	}

	tail := tailWords(strings.Join(c.textWindow, " "), c.cfg.TriggerTailWords)
	if trig, ok := slides.DetectTrigger(tail); ok {
		if c.triggerAllowed(trig) {
			c.fireTrigger(trig)
			return
		}
	}

	c.evaluateMatch(ctx, c.weightedWindowText(c.textWindow), false)
}

// triggerAllowed enforces trigger_cooldown_ms globally and
// trigger_min_words_between additionally for Next/Prev.
func (c *Controller) triggerAllowed(trig slides.Trigger) bool {
	if !c.lastTriggerTs.IsZero() {
		if time.Since(c.lastTriggerTs) < time.Duration(c.cfg.TriggerCooldownMs)*time.Millisecond {
			return false
		}
	}
	if (trig.Action == slides.ActionNext || trig.Action == slides.ActionPrev) && c.matcher != nil {
		if c.matcher.WordsSinceTransition() < c.cfg.TriggerMinWordsBetween {
			return false
		}
	}
	return true
}

func (c *Controller) fireTrigger(trig slides.Trigger) {
	if c.matcher == nil {
		return
	}
	c.lastTriggerTs = time.Now()
	from := c.matcher.Current()

	var to int
	switch trig.Action {
	case slides.ActionNext:
		to = clampIndex(from+1, c.index)
	case slides.ActionPrev:
		to = clampIndex(from-1, c.index)
	case slides.ActionFirst:
		to = 0
	case slides.ActionLast:
		to = len(c.index.Slides) - 1
	case slides.ActionGoto:
		if !trig.HasTarget {
			return
		}
		to = clampIndex(trig.Target, c.index)
	default:
		return
	}

	c.matcher.Goto(to)
	c.textWindow = nil

	metrics.TriggersFired.WithLabelValues(string(trig.Action)).Inc()
	metrics.TransitionsTotal.WithLabelValues("voice").Inc()

	c.emit(transitionEvent(slides.Transition{
		FromSlide:  from,
		ToSlide:    to,
		Confidence: 1.0,
		SlideTitle: c.index.Slides[to].Title,
		Intent:     "voice:" + string(trig.Action),
	}))
}

func clampIndex(i int, index *slides.Index) int {
	if i < 0 {
		return 0
	}
	if i >= len(index.Slides) {
		return len(index.Slides) - 1
	}
	return i
}

func (c *Controller) evaluateMatch(ctx context.Context, text string, ignoreCooldown bool) {
	if c.matcher == nil {
		return
	}

	result, err := c.matcher.Check(ctx, text, ignoreCooldown)
	if err != nil {
		slog.Warn("matcher check", "session", c.id, "error", err)
		c.emit(errorEvent(err.Error()))
		return
	}

	if result.Evaluation.CooldownBlocked {
		metrics.CooldownBlocked.Inc()
	}

	c.emit(matchEvalEvent(result.Evaluation))

	if result.Transition != nil {
		metrics.TransitionsTotal.WithLabelValues(string(result.Transition.Intent)).Inc()
		c.emit(transitionEvent(*result.Transition))
		c.textWindow = nil
	}
}

// weightedWindowText appends recent_words_multiplier-1 extra copies of the
// last recent_words_count words to the window text before matching; a
// soft recency emphasis, not a truncation.
func (c *Controller) weightedWindowText(words []string) string {
	base := strings.Join(words, " ")
	if c.cfg.RecentWordsMultiplier <= 1 || c.cfg.RecentWordsCount <= 0 {
		return base
	}

	recent := words
	if len(recent) > c.cfg.RecentWordsCount {
		recent = recent[len(recent)-c.cfg.RecentWordsCount:]
	}
	recentText := strings.Join(recent, " ")

	var b strings.Builder
	b.WriteString(base)
	for i := 1; i < c.cfg.RecentWordsMultiplier; i++ {
		b.WriteByte(' ')
		b.WriteString(recentText)
	}
	return b.String()
}

func tailWords(text string, n int) string {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[len(fields)-n:]
	}
	return strings.Join(fields, " ")
}
