package ranking

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

type fakeIndex struct {
	hits   []domain.VectorHit
	err    error
	limit  int
	metric vector.Metric
}

func (f *fakeIndex) Search(_ context.Context, v vector.Vector, limit int, metric vector.Metric) ([]domain.VectorHit, error) {
	f.limit = limit
	f.metric = metric
	if len(f.hits) > limit {
		return f.hits[:limit], f.err
	}
	return f.hits, f.err
}

func TestIndexEuclidean(t *testing.T) {
	idx := &fakeIndex{hits: []domain.VectorHit{
		{MovieID: "baby-driver", Score: 0.5},
		{MovieID: "not-in-catalog", Score: 0.1},
		{MovieID: "la-la-land", Score: 0.5},
		{MovieID: "blade-runner-2049", Score: 0.2},
	}}
	results, err := NewIndex(idx).Rank(context.Background(), Query{Mood: domain.DefaultMood(), K: 4}, testCatalog())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(results); !reflect.DeepEqual(got, []string{"blade-runner-2049", "la-la-land", "baby-driver"}) {
		t.Fatalf("order = %v", got)
	}
	if idx.limit != 5 || idx.metric != vector.MetricEuclidean {
		t.Fatalf("search args = %d %q", idx.limit, idx.metric)
	}
	if math.Abs(results[0].Similarity-1/1.2) > 1e-12 || results[0].Strategy != StrategyIndex {
		t.Fatalf("result = %+v", results[0])
	}
}

func TestIndexSkipsStalePointsWithoutLosingK(t *testing.T) {
	idx := &fakeIndex{hits: []domain.VectorHit{
		{MovieID: "removed-1", Score: 0.01},
		{MovieID: "removed-2", Score: 0.02},
		{MovieID: "la-la-land", Score: 0.1},
		{MovieID: "baby-driver", Score: 0.2},
		{MovieID: "blade-runner-2049", Score: 0.3},
		{MovieID: "lost-in-translation", Score: 0.4},
	}}
	results, err := NewIndex(idx).Rank(context.Background(), Query{Mood: domain.DefaultMood(), K: 2}, testCatalog())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got := ids(results); !reflect.DeepEqual(got, []string{"la-la-land", "baby-driver"}) {
		t.Fatalf("order = %v", got)
	}
	if idx.limit != len(testCatalog()) {
		t.Fatalf("search limit = %d, want %d", idx.limit, len(testCatalog()))
	}
}

func TestIndexCosine(t *testing.T) {
	idx := &fakeIndex{hits: []domain.VectorHit{{MovieID: "la-la-land", Score: 0.9}}}
	results, err := NewIndex(idx).Rank(context.Background(), Query{Mood: domain.DefaultMood(), K: 1, Metric: vector.MetricCosine}, testCatalog())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if math.Abs(results[0].Distance-0.1) > 1e-12 || math.Abs(results[0].Score-90) > 1e-9 {
		t.Fatalf("result = %+v", results[0])
	}
}

func TestIndexErrors(t *testing.T) {
	boom := errors.New("qdrant down")
	tests := []struct {
		name    string
		idx     *fakeIndex
		q       Query
		wantErr error
	}{
		{"search failure", &fakeIndex{err: boom}, Query{Mood: domain.DefaultMood(), K: 2}, boom},
		{"no matching ids", &fakeIndex{hits: []domain.VectorHit{{MovieID: "x"}}}, Query{Mood: domain.DefaultMood(), K: 2}, ErrEmptyResult},
		{"bad k", &fakeIndex{}, Query{Mood: domain.DefaultMood(), K: 0}, ErrInvalidK},
		{"bad mood", &fakeIndex{}, Query{Mood: domain.DefaultMood().WithIntensity(3), K: 2}, vector.ErrInvalidVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIndex(tt.idx).Rank(context.Background(), tt.q, testCatalog())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Rank() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
