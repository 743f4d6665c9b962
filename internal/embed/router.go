package embed

import "github.com/hubenschmidt/presentation-copilot/internal/router"

// NewRouter builds a dispatcher over the given named Embedder backends,
// falling back to the given engine name when EMBED_ENGINE doesn't match one.
func NewRouter(backends map[string]Embedder, fallback string) *router.Router[Embedder] {
	return router.New(backends, fallback)
}
