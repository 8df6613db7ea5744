package retrieval

import (
	"math"
	"sort"
	"sync"
)

// Hit is one search result: the position of the stored vector and its
// cosine similarity to the query.
type Hit struct {
	ID    int
	Score float64
}

// Index stores vectors under sequential IDs and ranks them against a query
type Index interface {
	Add(vectors ...[]float32) []int
	Search(query []float32, k int) []Hit
	Len() int
}

// FlatIndex is an exhaustive in-memory cosine index
type FlatIndex struct {
	mu      sync.RWMutex
	vectors [][]float32
	norms   []float64
}

func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

func (f *FlatIndex) Add(vectors ...[]float32) []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]int, len(vectors))
	for i, v := range vectors {
		ids[i] = len(f.vectors)
		f.vectors = append(f.vectors, v)
		f.norms = append(f.norms, norm(v))
	}
	return ids
}

// Search returns up to k hits by descending similarity. Ties keep insertion
// order. Zero vectors score 0.
func (f *FlatIndex) Search(query []float32, k int) []Hit {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if k <= 0 || len(f.vectors) == 0 {
		return nil
	}

	qn := norm(query)
	hits := make([]Hit, len(f.vectors))
	for i, v := range f.vectors {
		hits[i] = Hit{ID: i, Score: cosine(query, qn, v, f.norms[i])}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}

func (f *FlatIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.vectors)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
