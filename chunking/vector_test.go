package chunking_test

import (
	"math"
	"testing"

	"github.com/seangpt/ragcore/chunking"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := chunking.CosineSimilarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-6 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMeanEmbedding(t *testing.T) {
	mean := chunking.MeanEmbedding([][]float32{{2, 0, 4}, {0, 2, 0}})
	want := []float32{1, 1, 2}
	if len(mean) != len(want) {
		t.Fatalf("expected dimension %d, got %d", len(want), len(mean))
	}
	for i := range want {
		if math.Abs(float64(mean[i]-want[i])) > 1e-6 {
			t.Fatalf("component %d: expected %v, got %v", i, want[i], mean[i])
		}
	}
}

func TestMeanEmbeddingSingleVector(t *testing.T) {
	vec := []float32{0.5, 0.25}
	mean := chunking.MeanEmbedding([][]float32{vec})
	if len(mean) != 2 || mean[0] != 0.5 || mean[1] != 0.25 {
		t.Fatalf("expected single vector returned unchanged, got %v", mean)
	}
}

func TestMeanEmbeddingEmpty(t *testing.T) {
	if got := chunking.MeanEmbedding(nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
