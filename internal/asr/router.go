package asr

import "github.com/hubenschmidt/presentation-copilot/internal/router"

// NewRouter builds a dispatcher over the given named Transcriber backends,
// falling back to the given engine name when ASR_ENGINE doesn't match one.
func NewRouter(backends map[string]Transcriber, fallback string) *router.Router[Transcriber] {
	return router.New(backends, fallback)
}
