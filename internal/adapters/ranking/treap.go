package ranking

import (
	"context"
	"math/rand"
	"sync"

	"github.com/pomorank/pomorank/internal/domain/period"
)

// Treap-based, in-memory Store implementation.
//
// One size-augmented treap per period. Ordering: score DESC, then user id
// ASC, so in-order traversal yields the leaderboard from best to worst and
// subtree sizes give O(log n) rank and range selection. Used by the test
// suite and the "memory" backend.

type node struct {
	id    string
	score int64
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

// less reports whether (aScore, aID) ranks earlier than (bScore, bID).
func less(aScore int64, aID string, bScore int64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int64, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Rotate the higher-priority child up until the target is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// rankOf returns the 1-based rank of (score, id), descending the tree and
// accumulating left-subtree sizes. O(log n).
func rankOf(n *node, id string, score int64) int {
	rank := 1
	for n != nil {
		if score == n.score && id == n.id {
			return rank + nsize(n.left)
		}
		if less(score, id, n.score, n.id) {
			n = n.left
		} else {
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectRange appends the entries whose 1-based in-order position lies in
// [lo, hi]. offset is the number of entries ranked before this subtree.
func collectRange(n *node, lo, hi, offset int, out *[]Entry) {
	if n == nil {
		return
	}
	pos := offset + nsize(n.left) + 1
	if lo < pos {
		collectRange(n.left, lo, hi, offset, out)
	}
	if lo <= pos && pos <= hi {
		*out = append(*out, Entry{Rank: pos, UserID: n.id, Score: n.score})
	}
	if pos < hi {
		collectRange(n.right, lo, hi, pos, out)
	}
}

// tree is one period's treap plus its membership index.
type tree struct {
	root *node
	byID map[string]int64 // user id -> current score
}

// TreapStore is an in-memory Store backed by one treap per period.
type TreapStore struct {
	mu    sync.RWMutex
	trees map[period.Period]*tree
	rng   *rand.Rand
}

// NewTreapStore constructs an empty in-memory ranking store.
func NewTreapStore() *TreapStore {
	s := &TreapStore{
		trees: make(map[period.Period]*tree, 4),
		rng:   rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // tree balancing, not crypto
	}
	for _, p := range period.All() {
		s.trees[p] = &tree{byID: make(map[string]int64)}
	}
	return s
}

func (s *TreapStore) treeFor(p period.Period) (*tree, error) {
	t, ok := s.trees[p]
	if !ok {
		return nil, period.ErrInvalidPeriod
	}
	return t, nil
}

// Upsert sets the score for a user in one period's set. O(log n).
func (s *TreapStore) Upsert(ctx context.Context, p period.Period, userID string, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.treeFor(p)
	if err != nil {
		return err
	}
	if old, ok := t.byID[userID]; ok {
		if old == score {
			return nil
		}
		t.root = deleteNode(t.root, userID, old)
	}
	t.byID[userID] = score
	t.root = insert(t.root, userID, score, s.rng.Uint64())
	return nil
}

// TopN returns up to n entries ordered best-first. O(log n + n).
func (s *TreapStore) TopN(ctx context.Context, p period.Period, n int) ([]Entry, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.treeFor(p)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, n)
	collectRange(t.root, 1, n, 0, &out)
	return out, nil
}

// Rank returns the user's entry with its 1-based rank. O(log n).
func (s *TreapStore) Rank(ctx context.Context, p period.Period, userID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.treeFor(p)
	if err != nil {
		return Entry{}, err
	}
	score, ok := t.byID[userID]
	if !ok {
		return Entry{}, ErrNotRanked
	}
	return Entry{Rank: rankOf(t.root, userID, score), UserID: userID, Score: score}, nil
}

// RangeAround returns the entries ranked within window of the user,
// clipped to [1, cardinality]. O(log n + window).
func (s *TreapStore) RangeAround(ctx context.Context, p period.Period, userID string, window int) ([]Entry, error) {
	if window < 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.treeFor(p)
	if err != nil {
		return nil, err
	}
	score, ok := t.byID[userID]
	if !ok {
		return nil, ErrNotRanked
	}
	rank := rankOf(t.root, userID, score)
	lo := rank - window
	if lo < 1 {
		lo = 1
	}
	hi := rank + window
	if n := nsize(t.root); hi > n {
		hi = n
	}
	out := make([]Entry, 0, hi-lo+1)
	collectRange(t.root, lo, hi, 0, &out)
	return out, nil
}

// Cardinality returns the number of members in one period's set. O(1).
func (s *TreapStore) Cardinality(ctx context.Context, p period.Period) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.treeFor(p)
	if err != nil {
		return 0, err
	}
	return int64(len(t.byID)), nil
}

// Members returns every user id present in one period's set.
func (s *TreapStore) Members(ctx context.Context, p period.Period) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.treeFor(p)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

// Clear removes all members from one period's set.
func (s *TreapStore) Clear(ctx context.Context, p period.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.treeFor(p); err != nil {
		return err
	}
	s.trees[p] = &tree{byID: make(map[string]int64)}
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *TreapStore) Ping(ctx context.Context) error { return nil }
