package database

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/cinevibe/internal/domain"
)

type sliceLister struct {
	movies []domain.Movie
	err    error
}

func (s sliceLister) List(_ context.Context, offset, limit int) ([]domain.Movie, error) {
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.movies) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.movies) {
		end = len(s.movies)
	}
	return s.movies[offset:end], nil
}

func TestFetchBatchPagesUntilShortPage(t *testing.T) {
	a := NewAdapter(sliceLister{movies: []domain.Movie{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}})

	var (
		ids    []string
		cursor string
		pages  int
	)
	for {
		batch, next, err := a.FetchBatch(context.Background(), cursor, 2)
		if err != nil {
			t.Fatalf("FetchBatch: %v", err)
		}
		pages++
		for _, m := range batch {
			ids = append(ids, m.ID)
		}
		if next == "" {
			break
		}
		cursor = next
	}

	if len(ids) != 4 || ids[0] != "a" || ids[3] != "d" {
		t.Fatalf("ids = %v", ids)
	}
	// A full last page needs one extra, empty read to detect the end.
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
}

func TestFetchBatchErrors(t *testing.T) {
	boom := errors.New("boom")
	a := NewAdapter(sliceLister{err: boom})
	if _, _, err := a.FetchBatch(context.Background(), "", 2); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
	if _, _, err := a.FetchBatch(context.Background(), "x", 2); err == nil {
		t.Error("expected error for bad cursor")
	}
	if _, _, err := a.FetchBatch(context.Background(), "", 0); err == nil {
		t.Error("expected error for zero limit")
	}
}
