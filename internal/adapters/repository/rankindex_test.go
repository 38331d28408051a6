package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/wakepoint/internal/domain/model"
)

var t0 = time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)

func points(scores ...float64) []model.Point {
	out := make([]model.Point, len(scores))
	for i, s := range scores {
		out[i] = model.Point{
			Type:        model.PointTack,
			Time:        t0.Add(time.Duration(i) * time.Minute),
			ImpactScore: s,
			Description: fmt.Sprintf("tack %d", i),
		}
	}
	return out
}

// checkTree verifies BST order, heap priority and subtree sizes.
func checkTree(t *testing.T, n *node) int {
	t.Helper()
	if n == nil {
		return 0
	}
	if n.left != nil {
		if !less(n.left.score, n.left.key, n.score, n.key) {
			t.Fatalf("left child %s out of order under %s", n.left.key, n.key)
		}
		if n.left.prio > n.prio {
			t.Fatalf("heap violated at %s", n.key)
		}
	}
	if n.right != nil {
		if less(n.right.score, n.right.key, n.score, n.key) {
			t.Fatalf("right child %s out of order under %s", n.right.key, n.key)
		}
		if n.right.prio > n.prio {
			t.Fatalf("heap violated at %s", n.key)
		}
	}
	size := 1 + checkTree(t, n.left) + checkTree(t, n.right)
	if size != n.size {
		t.Fatalf("size of %s is %d, want %d", n.key, n.size, size)
	}
	return size
}

func TestRankIndex_BasicOperations(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()

	if got := idx.Count(ctx); got != 0 {
		t.Errorf("expected count 0, got %d", got)
	}

	idx.Put(ctx, "a", points(7.5, 4.25))
	idx.Put(ctx, "b", points(9, 6))

	if got := idx.Count(ctx); got != 4 {
		t.Fatalf("expected count 4, got %d", got)
	}

	top, err := idx.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{9, 7.5, 6, 4.25}
	if len(top) != len(want) {
		t.Fatalf("expected %d moments, got %d", len(want), len(top))
	}
	for i, m := range top {
		if m.ImpactScore != want[i] {
			t.Errorf("position %d: expected %v, got %v", i, want[i], m.ImpactScore)
		}
		if m.Rank != i+1 {
			t.Errorf("position %d: expected rank %d, got %d", i, i+1, m.Rank)
		}
	}
	if top[0].AnalysisID != "b" || top[0].Index != 0 {
		t.Errorf("unexpected top moment %+v", top[0])
	}

	m, err := idx.Rank(ctx, "a", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Rank != 4 || m.Description != "tack 1" {
		t.Errorf("unexpected moment %+v", m)
	}
	checkTree(t, idx.root)
}

func TestRankIndex_PutReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()

	idx.Put(ctx, "a", points(5, 6, 7))
	idx.Put(ctx, "a", points(8))

	if got := idx.Count(ctx); got != 1 {
		t.Fatalf("expected count 1 after replace, got %d", got)
	}
	if _, err := idx.Rank(ctx, "a", 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	checkTree(t, idx.root)
}

func TestRankIndex_Remove(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()
	idx.Put(ctx, "a", points(5, 6))
	idx.Put(ctx, "b", points(7))

	if n := idx.Remove(ctx, "a"); n != 2 {
		t.Errorf("expected 2 removed, got %d", n)
	}
	if n := idx.Remove(ctx, "missing"); n != 0 {
		t.Errorf("expected 0 removed, got %d", n)
	}
	top, _ := idx.TopN(ctx, 5)
	if len(top) != 1 || top[0].AnalysisID != "b" {
		t.Errorf("unexpected moments after remove: %+v", top)
	}
	checkTree(t, idx.root)
}

func TestRankIndex_Ties(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()
	idx.Put(ctx, "a", points(8, 6))
	idx.Put(ctx, "b", points(8))

	top, _ := idx.TopN(ctx, 3)
	if top[0].Rank != 1 || top[1].Rank != 1 || top[2].Rank != 3 {
		t.Errorf("expected ranks 1,1,3 got %d,%d,%d", top[0].Rank, top[1].Rank, top[2].Rank)
	}
	// Ties break on analysis id then index.
	if top[0].AnalysisID != "a" || top[1].AnalysisID != "b" {
		t.Errorf("unexpected tie order: %s, %s", top[0].AnalysisID, top[1].AnalysisID)
	}
	m, _ := idx.Rank(ctx, "b", 0)
	if m.Rank != 1 {
		t.Errorf("expected shared rank 1, got %d", m.Rank)
	}
}

func TestRankIndex_InvalidLimit(t *testing.T) {
	idx := NewRankIndex()
	if _, err := idx.TopN(context.Background(), 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestRankIndex_RandomizedAgainstSort(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()
	rng := rand.New(rand.NewSource(42))

	for a := 0; a < 50; a++ {
		scores := make([]float64, rng.Intn(6))
		for i := range scores {
			scores[i] = float64(rng.Intn(101)) / 10
		}
		idx.Put(ctx, fmt.Sprintf("analysis-%02d", a), points(scores...))
	}
	for a := 0; a < 50; a += 7 {
		id := fmt.Sprintf("analysis-%02d", a)
		idx.Remove(ctx, id)
	}
	checkTree(t, idx.root)

	top, err := idx.TopN(ctx, idx.Count(ctx))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sort.SliceIsSorted(top, func(i, j int) bool { return top[i].ImpactScore > top[j].ImpactScore }) {
		t.Error("moments are not ordered by impact")
	}
	for _, m := range top {
		r, err := idx.Rank(ctx, m.AnalysisID, m.Index)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Rank != m.Rank {
			t.Errorf("%s#%d: Rank says %d, TopN says %d", m.AnalysisID, m.Index, r.Rank, m.Rank)
		}
	}
}

func TestRankIndex_Concurrent(t *testing.T) {
	ctx := context.Background()
	idx := NewRankIndex()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				idx.Put(ctx, fmt.Sprintf("g%d-%d", g, i), points(float64(i%10), 5))
				_, _ = idx.TopN(ctx, 5)
			}
		}(g)
	}
	wg.Wait()
	if got := idx.Count(ctx); got != 8*50*2 {
		t.Errorf("expected %d moments, got %d", 8*50*2, got)
	}
	checkTree(t, idx.root)
}
