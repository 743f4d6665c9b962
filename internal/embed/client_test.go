package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedBatchPostsModelAndInputs(t *testing.T) {
	var gotReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path = %s, want /api/embed", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float64{{1, 2, 3}, {4, 5, 6}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text", 1)
	vecs, err := c.EmbedBatch(context.Background(), []string{"slide one", "slide two"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if gotReq.Model != "nomic-embed-text" {
		t.Errorf("request model = %q, want nomic-embed-text", gotReq.Model)
	}
	if len(gotReq.Input) != 2 || gotReq.Input[0] != "slide one" {
		t.Errorf("request input = %v", gotReq.Input)
	}
	if len(vecs) != 2 || vecs[1][2] != 6 {
		t.Errorf("vecs = %v", vecs)
	}
}

func TestEmbedReturnsFirstVectorOfBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{0.5, 0.25}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text", 1)
	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.5 || vec[1] != 0.25 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbedReturnsErrorOnEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text", 1)
	_, err := c.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected an error for an empty embedding response")
	}
}

func TestEmbedBatchReturnsErrorOnNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nomic-embed-text", 1)
	_, err := c.EmbedBatch(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected an error on 502 response")
	}
}

func TestRouterRoutesByEngineNameWithFallback(t *testing.T) {
	httpBackend := &Client{}
	openaiBackend := &Client{}
	router := NewRouter(map[string]Embedder{
		"http":   httpBackend,
		"openai": openaiBackend,
	}, "http")

	got, err := router.Route("openai")
	if err != nil || got != Embedder(openaiBackend) {
		t.Errorf("Route(openai) = %v, %v, want openai backend", got, err)
	}

	got, err = router.Route("unknown-engine")
	if err != nil || got != Embedder(httpBackend) {
		t.Errorf("Route(unknown) = %v, %v, want fallback http backend", got, err)
	}
}
