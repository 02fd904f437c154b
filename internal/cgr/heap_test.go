package cgr

import "testing"

func TestPriorityQueue_PopsInNonDecreasingOrder(t *testing.T) {
	pq := newPriorityQueue(4)
	pq.push(0, 5.0)
	pq.push(1, 1.0)
	pq.push(2, 3.0)
	pq.push(3, 1.0)

	var last float64
	first := true
	for !pq.empty() {
		_, eta, ok := pq.popMin()
		if !ok {
			t.Fatal("popMin() returned ok=false while non-empty")
		}
		if !first && eta < last {
			t.Errorf("pop order not non-decreasing: %.2f after %.2f", eta, last)
		}
		last = eta
		first = false
	}
}

func TestPriorityQueue_EmptyPop(t *testing.T) {
	pq := newPriorityQueue(0)
	if !pq.empty() {
		t.Fatal("expected a freshly constructed queue to be empty")
	}
	if _, _, ok := pq.popMin(); ok {
		t.Error("expected popMin() on an empty queue to report ok=false")
	}
}

func TestPriorityQueue_TiesBrokenByInsertionOrder(t *testing.T) {
	pq := newPriorityQueue(2)
	pq.push(10, 2.0)
	pq.push(20, 2.0)

	first, _, _ := pq.popMin()
	second, _, _ := pq.popMin()

	if first != 10 || second != 20 {
		t.Errorf("expected insertion order 10,20 for tied etas, got %d,%d", first, second)
	}
}
