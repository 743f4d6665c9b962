// Package logx renders log/slog records as single-line "[tag] message
// key=value ..." text, matching the wire format external tooling expects
// on stderr.
package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var sanitizeReplacer = strings.NewReplacer("→", "->", "↑", "^", "↓", "v")

// Handler is a slog.Handler that writes "[tag] message key=value ...\n"
// lines to an underlying writer. All loggers built from the same Handler
// share its tag; use WithTag to derive a logger for a different subsystem.
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	tag    string
	level  slog.Leveler
	attrs  []slog.Attr
}

// NewHandler creates a Handler that tags every line with tag.
func NewHandler(w io.Writer, tag string, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{mu: &sync.Mutex{}, w: w, tag: tag, level: level}
}

// WithTag returns a new Handler writing to the same destination under a
// different tag, e.g. slog.New(base.WithTag("slides")).
func (h *Handler) WithTag(tag string) *Handler {
	return &Handler{mu: h.mu, w: h.w, tag: tag, level: h.level, attrs: h.attrs}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(h.tag)
	b.WriteString("] ")
	b.WriteString(sanitizeReplacer.Replace(r.Message))

	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	b.WriteByte(' ')
	b.WriteString(a.Key)
	b.WriteByte('=')
	fmt.Fprintf(b, "%v", a.Value.Any())
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &Handler{mu: h.mu, w: h.w, tag: h.tag, level: h.level}
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return next
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	// Groups aren't represented in the flat [tag] message key=value format;
	// attributes are flattened instead of namespaced.
	return h
}
