package acquisition

import (
	"container/heap"

	"bike-curation/internal/domain"
)

// StrategyQueue is a priority queue of acquisition strategies, highest
// priority first. Requeued strategies re-enter at decayed priority, so a
// partially productive strategy keeps competing without starving the
// rest of the queue.
type StrategyQueue struct {
	items []*domain.Strategy
}

// NewStrategyQueue builds a queue from the given strategies.
func NewStrategyQueue(strategies []*domain.Strategy) *StrategyQueue {
	q := &StrategyQueue{items: append([]*domain.Strategy(nil), strategies...)}
	heap.Init(q)
	return q
}

// Len implements heap.Interface.
func (q *StrategyQueue) Len() int { return len(q.items) }

// Less implements heap.Interface. Larger priority pops first.
func (q *StrategyQueue) Less(i, j int) bool { return q.items[i].Priority > q.items[j].Priority }

// Swap implements heap.Interface.
func (q *StrategyQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

// Push implements heap.Interface. Use Add instead.
func (q *StrategyQueue) Push(x any) { q.items = append(q.items, x.(*domain.Strategy)) }

// Pop implements heap.Interface. Use Next instead.
func (q *StrategyQueue) Pop() any {
	old := q.items
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return s
}

// Next removes and returns the highest-priority strategy, or nil when
// the queue is empty.
func (q *StrategyQueue) Next() *domain.Strategy {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*domain.Strategy)
}

// Add inserts a strategy at its current priority.
func (q *StrategyQueue) Add(s *domain.Strategy) {
	heap.Push(q, s)
}

// Requeue re-inserts a partially productive strategy at half priority.
// Reports false when the strategy has decayed to the floor and is
// retired instead.
func (q *StrategyQueue) Requeue(s *domain.Strategy) bool {
	if s.Priority <= domain.MinStrategyPriority {
		return false
	}
	s.Priority /= 2
	if s.Priority < domain.MinStrategyPriority {
		s.Priority = domain.MinStrategyPriority
	}
	heap.Push(q, s)
	return true
}
