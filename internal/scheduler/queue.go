package scheduler

import (
	"slices"
	"strings"

	"github.com/me/priosched/pkg/model"
)

// ReadyQueue holds waiting processes. The head always carries the highest
// queued priority, so RemoveFront picks the next process to run. Positions
// behind the head follow the insertion rule of Insert and are not kept in
// priority order.
type ReadyQueue struct {
	q       []*model.Process
	quantum int
}

// NewReadyQueue creates an empty queue for the given quantum limit.
func NewReadyQueue(quantum int) *ReadyQueue {
	return &ReadyQueue{q: make([]*model.Process, 0), quantum: quantum}
}

func (q *ReadyQueue) String() string {
	return "[" + strings.Join(q.IDs(), " ") + "]"
}

// Insert places p relative to the head of the queue. A quantum that has
// reached the limit is reset first.
//
//   - empty queue, or priority above the head: p becomes the head
//   - priority equal to the head: a mid-quantum p goes in front of the head,
//     a fresh one directly behind it
//   - priority below the head: a mid-quantum p goes directly behind the head;
//     a fresh one walks forward until the next entry has a higher priority
//     or the queue ends
func (q *ReadyQueue) Insert(p *model.Process) {
	if p == nil {
		return
	}
	if p.Quantum >= q.quantum {
		p.Quantum = 0
	}

	q.q = slices.Insert(q.q, q.position(p), p)
}

func (q *ReadyQueue) position(p *model.Process) int {
	if len(q.q) == 0 {
		return 0
	}

	head := q.q[0]
	switch {
	case p.Priority > head.Priority:
		return 0
	case p.Priority == head.Priority:
		if p.Quantum != 0 {
			return 0
		}
		return 1
	}

	i := 0
	for i+1 < len(q.q) && q.q[i+1].Priority <= p.Priority && p.Quantum == 0 {
		i++
	}
	return i + 1
}

// RemoveFront removes and returns the head, or nil when the queue is empty.
func (q *ReadyQueue) RemoveFront() *model.Process {
	if len(q.q) == 0 {
		return nil
	}
	p := q.q[0]
	q.q[0] = nil
	q.q = q.q[1:]
	return p
}

// Peek returns the head without removing it.
func (q *ReadyQueue) Peek() *model.Process {
	if len(q.q) == 0 {
		return nil
	}
	return q.q[0]
}

func (q *ReadyQueue) Len() int {
	return len(q.q)
}

// Records returns the queued processes in dequeue order.
func (q *ReadyQueue) Records() []*model.Process {
	return slices.Clone(q.q)
}

// IDs returns the queued process IDs in dequeue order.
func (q *ReadyQueue) IDs() []string {
	ids := make([]string, len(q.q))
	for i, p := range q.q {
		ids[i] = p.ID
	}
	return ids
}
