package cgr

import "container/heap"

// frontierItem is a single entry on the Dijkstra frontier: a contact index
// and the tentative eta it was pushed with.
type frontierItem struct {
	contactIdx int
	eta        float64
	seq        int // insertion order, used by Less to break ties on equal eta
}

// frontier is a binary min-heap over frontierItem, ordered by eta. Ties are
// broken by insertion order; correctness never depends on tie order since
// relaxation compares with an epsilon tolerance.
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].eta != f[j].eta {
		return f[i].eta < f[j].eta
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(*frontierItem))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}

// priorityQueue wraps frontier behind push/pop/empty, and assigns a
// monotonically increasing insertion sequence for tie-breaking.
type priorityQueue struct {
	f    frontier
	next int
}

func newPriorityQueue(capacityHint int) *priorityQueue {
	pq := &priorityQueue{f: make(frontier, 0, capacityHint)}
	heap.Init(&pq.f)
	return pq
}

func (pq *priorityQueue) push(contactIdx int, eta float64) {
	heap.Push(&pq.f, &frontierItem{contactIdx: contactIdx, eta: eta, seq: pq.next})
	pq.next++
}

func (pq *priorityQueue) popMin() (contactIdx int, eta float64, ok bool) {
	if pq.f.Len() == 0 {
		return 0, 0, false
	}
	item := heap.Pop(&pq.f).(*frontierItem)
	return item.contactIdx, item.eta, true
}

func (pq *priorityQueue) empty() bool {
	return pq.f.Len() == 0
}
