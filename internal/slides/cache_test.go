package slides

import "testing"

func TestEmbeddingCacheGetMiss(t *testing.T) {
	c := newEmbeddingCache(2)
	if _, ok := c.get("missing"); ok {
		t.Error("expected a miss on an empty cache")
	}
}

func TestEmbeddingCachePutThenGet(t *testing.T) {
	c := newEmbeddingCache(2)
	c.put("hello", []float64{1, 2, 3})

	vec, ok := c.get("hello")
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(vec) != 3 || vec[0] != 1 {
		t.Errorf("vec = %v", vec)
	}
}

func TestEmbeddingCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newEmbeddingCache(2)
	c.put("a", []float64{1})
	c.put("b", []float64{2})
	c.get("a") // touch a, making b the least recently used
	c.put("c", []float64{3})

	if _, ok := c.get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.get("a"); !ok {
		t.Error("expected a to survive (recently touched)")
	}
	if _, ok := c.get("c"); !ok {
		t.Error("expected c to be present")
	}
}

func TestEmbeddingCachePutOverwritesExisting(t *testing.T) {
	c := newEmbeddingCache(2)
	c.put("a", []float64{1})
	c.put("a", []float64{9})

	vec, ok := c.get("a")
	if !ok || vec[0] != 9 {
		t.Errorf("vec = %v, ok = %v, want [9]", vec, ok)
	}
}
