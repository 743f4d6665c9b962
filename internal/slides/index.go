package slides

import (
	"context"
	"fmt"
	"math"

	"github.com/hubenschmidt/presentation-copilot/internal/embed"
)

// Index holds the eagerly-embedded deck: each slide's whole-slide and
// per-sentence embeddings, plus its token sets. Built once by Build and
// read-only afterward.
type Index struct {
	Slides   []Slide
	Hotwords []string
}

// Build normalizes, tokenizes, and embeds every slide in the deck. It is
// the only place slide embeddings are computed; the index is immutable
// once returned.
func Build(ctx context.Context, embedder embed.Embedder, raw []RawSlide, cfg SentenceSplitConfig) (*Index, error) {
	slides := make([]Slide, len(raw))
	texts := make([]string, len(raw))

	for i, r := range raw {
		normalized := normalize(i, r.Title, r.Content)
		sentences := splitSentences(normalized, cfg)
		slides[i] = Slide{
			Index:       i,
			Title:       r.Title,
			Content:     r.Content,
			Normalized:  normalized,
			Sentences:   sentences,
			Tokens:      tokens(normalized),
			TitleTokens: tokens(r.Title),
		}
		texts[i] = normalized
	}

	embeddings, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed slides: %w", err)
	}
	if len(embeddings) != len(slides) {
		return nil, fmt.Errorf("embed slides: expected %d vectors, got %d", len(slides), len(embeddings))
	}
	for i := range slides {
		slides[i].Embedding = embeddings[i]
	}

	for i, s := range slides {
		if len(s.Sentences) == 0 {
			continue
		}
		vecs, err := embedder.EmbedBatch(ctx, s.Sentences)
		if err != nil {
			return nil, fmt.Errorf("embed sentences for slide %d: %w", i, err)
		}
		normed := make([][]float64, len(vecs))
		for j, v := range vecs {
			normed[j] = l2Normalize(v)
		}
		slides[i].SentenceEmbeddings = normed
	}

	return &Index{
		Slides:   slides,
		Hotwords: DeriveHotwords(slides),
	}, nil
}

func l2Normalize(v []float64) []float64 {
	var sumSq float64
	for _, x := range v {
		sumSq += x * x
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
