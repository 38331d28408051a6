package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/okian/wakepoint/internal/domain/model"
)

// Treap-based, in-memory index of moments across analyses.
//
// Ordering: impact DESC, then moment key ASC (deterministic). "less" means
// ranks earlier, so in-order traversal yields the best moments first.
// Every node carries its subtree size, so rank lookups are O(log n).

// scoreScale converts impact scores to fixed point. Impacts live in [0,10].
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * scoreScale
	if scaled > math.MaxInt64 {
		return math.MaxInt64
	}
	if scaled < math.MinInt64 {
		return math.MinInt64
	}
	return scoreFP(math.Round(scaled))
}

func toFloat(x scoreFP) float64 {
	return float64(x) / scoreScale
}

type node struct {
	key   string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aKey) ranks before (bScore, bKey).
func less(aScore scoreFP, aKey string, bScore scoreFP, bKey string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aKey < bKey
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority hashes the key so the tree shape depends only on its contents.
func priority(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func insert(n *node, key string, score scoreFP) *node {
	if n == nil {
		return &node{key: key, score: score, prio: priority(key), size: 1}
	}
	if less(score, key, n.score, n.key) {
		n.left = insert(n.left, key, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, key, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, key string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	if score == n.score && key == n.key {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, key, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, key, score)
		}
	} else if less(score, key, n.score, n.key) {
		n.left = deleteNode(n.left, key, score)
	} else {
		n.right = deleteNode(n.right, key, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes score strictly higher than score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit keys in rank order.
func collectTopN(n *node, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.key)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

type record struct {
	score  scoreFP
	moment model.Moment
}

// RankIndex ranks the high-impact points of every stored analysis.
// It is safe for concurrent use.
type RankIndex struct {
	mu         sync.RWMutex
	root       *node
	byKey      map[string]record
	byAnalysis map[string][]string
}

// NewRankIndex creates an empty index.
func NewRankIndex() *RankIndex {
	return &RankIndex{
		byKey:      make(map[string]record),
		byAnalysis: make(map[string][]string),
	}
}

func momentKey(analysisID string, index int) string {
	return fmt.Sprintf("%s#%06d", analysisID, index)
}

// Put replaces the moments of an analysis with its points. O(k log n).
func (r *RankIndex) Put(_ context.Context, analysisID string, points []model.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(analysisID)
	keys := make([]string, 0, len(points))
	for i, p := range points {
		key := momentKey(analysisID, i)
		score := toFixedPoint(p.ImpactScore)
		r.byKey[key] = record{
			score: score,
			moment: model.Moment{
				AnalysisID:  analysisID,
				Index:       i,
				Type:        p.Type,
				Time:        p.Time,
				ImpactScore: toFloat(score),
				Description: p.Description,
			},
		}
		r.root = insert(r.root, key, score)
		keys = append(keys, key)
	}
	if len(keys) > 0 {
		r.byAnalysis[analysisID] = keys
	}
}

// Remove drops every moment of the analysis and returns how many were removed.
func (r *RankIndex) Remove(_ context.Context, analysisID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(analysisID)
}

func (r *RankIndex) removeLocked(analysisID string) int {
	keys := r.byAnalysis[analysisID]
	for _, key := range keys {
		rec := r.byKey[key]
		r.root = deleteNode(r.root, key, rec.score)
		delete(r.byKey, key)
	}
	delete(r.byAnalysis, analysisID)
	return len(keys)
}

// TopN returns the n highest-impact moments. Equal impacts share a rank.
func (r *RankIndex) TopN(_ context.Context, n int) ([]model.Moment, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, min(n, len(r.byKey)))
	collectTopN(r.root, n, &keys)

	out := make([]model.Moment, len(keys))
	for i, key := range keys {
		rec := r.byKey[key]
		m := rec.moment
		if i > 0 && r.byKey[keys[i-1]].score == rec.score {
			m.Rank = out[i-1].Rank
		} else {
			m.Rank = i + 1
		}
		out[i] = m
	}
	return out, nil
}

// Rank returns one moment with its global rank, or ErrNotFound.
func (r *RankIndex) Rank(_ context.Context, analysisID string, index int) (model.Moment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byKey[momentKey(analysisID, index)]
	if !ok {
		return model.Moment{}, ErrNotFound
	}
	m := rec.moment
	m.Rank = countAbove(r.root, rec.score) + 1
	return m, nil
}

// Count returns the number of indexed moments.
func (r *RankIndex) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byKey)
}
